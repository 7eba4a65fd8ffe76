package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"trade-reconcile-service/internal/dataset"
)

func TestWorkbookRoundTrip(t *testing.T) {
	sheets := []Sheet{
		{
			Name:    "Summary",
			Columns: []string{"PaperKey", "Amount"},
			Rows: [][]dataset.Value{
				{dataset.TextValue("UNH"), dataset.NumberValue(decimal.NewFromInt(100))},
				{dataset.TextValue("AAPL"), dataset.NumberValue(decimal.RequireFromString("250.5"))},
			},
		},
		{
			Name:    "Rows",
			Columns: []string{"id"},
			Rows: [][]dataset.Value{
				{dataset.TextValue("T1")},
			},
		},
	}

	raw, err := Workbook(sheets)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) != 2 || names[0] != "Summary" || names[1] != "Rows" {
		t.Fatalf("sheet names = %v", names)
	}

	rows, err := f.GetRows("Summary")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Summary rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "PaperKey" || rows[0][1] != "Amount" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "UNH" || rows[1][1] != "100" {
		t.Errorf("first data row = %v", rows[1])
	}
	if rows[2][1] != "250.5" {
		t.Errorf("second amount = %q, want 250.5", rows[2][1])
	}
}

func TestWorkbookClampsSheetNames(t *testing.T) {
	long := strings.Repeat("x", 40)
	raw, err := Workbook([]Sheet{{
		Name:    long,
		Columns: []string{"a"},
		Rows:    [][]dataset.Value{{dataset.TextValue("1")}},
	}})
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) != 1 || len(names[0]) != 31 {
		t.Errorf("sheet names = %v, want one 31-char name", names)
	}
}

func TestRecordSheetPreservesColumnOrder(t *testing.T) {
	columns := []string{"SourceFile", "id", "amount"}
	records := []dataset.Record{
		dataset.NewRecord(columns, []dataset.Value{
			dataset.TextValue("file1.xlsx"),
			dataset.TextValue("T1"),
			dataset.NumberValue(decimal.NewFromInt(10)),
		}),
	}

	sheet := RecordSheet("Flagged", records)
	if !equalStrings(sheet.Columns, columns) {
		t.Errorf("columns = %v, want %v", sheet.Columns, columns)
	}
	if len(sheet.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(sheet.Rows))
	}
	if sheet.Rows[0][0].String() != "file1.xlsx" {
		t.Errorf("first cell = %q", sheet.Rows[0][0].String())
	}
}

func TestRecordSheetEmpty(t *testing.T) {
	sheet := RecordSheet("Empty", nil)
	if !sheet.Empty() {
		t.Error("sheet with no records should be empty")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

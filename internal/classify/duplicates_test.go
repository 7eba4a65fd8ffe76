package classify

import (
	"testing"

	"trade-reconcile-service/internal/dataset"
)

func buildDataset(t *testing.T, name string, columns []string, rows [][]string) *dataset.Dataset {
	t.Helper()
	data := make([][]dataset.Value, 0, len(rows))
	for _, row := range rows {
		values := make([]dataset.Value, len(columns))
		for i := range columns {
			if i < len(row) {
				values[i] = dataset.Coerce(row[i])
			} else {
				values[i] = dataset.Null()
			}
		}
		data = append(data, values)
	}
	return dataset.New(name, columns, data)
}

func TestDuplicatesGrouping(t *testing.T) {
	ds := buildDataset(t, "file1", []string{"paper", "amount"}, [][]string{
		{"US91324P1021___UNH US", "100.004"},
		{"US91324P1021___UNH", "99.997"},
		{"US0032601066___PPLT", "500"},
	})

	report, err := Duplicates(ds, &DuplicateConfig{
		InstrumentColumn: "paper",
		AmountColumn:     "amount",
		MinRepeats:       2,
		RoundTo:          0,
	})
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}

	// Both UNH rows round to 100 and form one group of two.
	if len(report.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(report.Groups))
	}
	g := report.Groups[0]
	if g.Instrument != "UNH" || g.Amount.String() != "100" || g.Count != 2 {
		t.Errorf("group = %+v, want UNH/100/2", g)
	}
	if len(report.Rows) != 2 {
		t.Errorf("member rows = %d, want 2", len(report.Rows))
	}
	if got := report.Rows[0].Value("GroupSize").String(); got != "2" {
		t.Errorf("GroupSize tag = %q, want 2", got)
	}
}

func TestDuplicatesBelowThresholdNotReported(t *testing.T) {
	ds := buildDataset(t, "file1", []string{"paper", "amount"}, [][]string{
		{"AAA___X", "10"},
		{"AAA___X", "10"},
		{"BBB___Y", "20"},
	})

	report, err := Duplicates(ds, &DuplicateConfig{
		InstrumentColumn: "paper",
		AmountColumn:     "amount",
		MinRepeats:       3,
		RoundTo:          2,
	})
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if len(report.Groups) != 0 {
		t.Errorf("groups = %v, want none below min_repeats", report.Groups)
	}
}

func TestDuplicatesIdempotent(t *testing.T) {
	ds := buildDataset(t, "file1", []string{"paper", "amount"}, [][]string{
		{"AAA___X", "10.004"},
		{"AAA___X", "9.997"},
		{"AAA___X", "10"},
		{"BBB___Y", "20"},
	})
	cfg := &DuplicateConfig{
		InstrumentColumn: "paper",
		AmountColumn:     "amount",
		MinRepeats:       2,
		RoundTo:          0,
	}

	first, err := Duplicates(ds, cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	rows := make([][]dataset.Value, 0, len(first.Rows))
	for _, rec := range first.Rows {
		rows = append(rows, rec.Values())
	}
	rerun := dataset.New("rerun", first.Rows[0].Columns(), rows)

	second, err := Duplicates(rerun, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(first.Groups) != len(second.Groups) {
		t.Fatalf("group count changed on rerun: %d -> %d", len(first.Groups), len(second.Groups))
	}
	for i := range first.Groups {
		if first.Groups[i].Count != second.Groups[i].Count {
			t.Errorf("group %d size changed: %d -> %d",
				i, first.Groups[i].Count, second.Groups[i].Count)
		}
	}
}

func TestDuplicatesOrdering(t *testing.T) {
	ds := buildDataset(t, "file1", []string{"paper", "amount"}, [][]string{
		{"AAA___A", "1"}, {"AAA___A", "1"},
		{"BBB___B", "2"}, {"BBB___B", "2"}, {"BBB___B", "2"},
	})

	report, err := Duplicates(ds, &DuplicateConfig{
		InstrumentColumn: "paper",
		AmountColumn:     "amount",
		MinRepeats:       2,
		RoundTo:          2,
	})
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if len(report.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(report.Groups))
	}
	if report.Groups[0].Instrument != "B" {
		t.Errorf("largest group first, got %q", report.Groups[0].Instrument)
	}
}

func TestDuplicatesConfigValidation(t *testing.T) {
	ds := buildDataset(t, "file1", []string{"paper", "amount"}, [][]string{{"A", "1"}})

	tests := []struct {
		name string
		cfg  DuplicateConfig
	}{
		{"min repeats below 2", DuplicateConfig{
			InstrumentColumn: "paper", AmountColumn: "amount", MinRepeats: 1, RoundTo: 2,
		}},
		{"round to above 6", DuplicateConfig{
			InstrumentColumn: "paper", AmountColumn: "amount", MinRepeats: 2, RoundTo: 7,
		}},
		{"negative round to", DuplicateConfig{
			InstrumentColumn: "paper", AmountColumn: "amount", MinRepeats: 2, RoundTo: -1,
		}},
		{"unknown column", DuplicateConfig{
			InstrumentColumn: "nope", AmountColumn: "amount", MinRepeats: 2, RoundTo: 2,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Duplicates(ds, &tt.cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDuplicatesSkipsUnparseableRows(t *testing.T) {
	ds := buildDataset(t, "file1", []string{"paper", "amount"}, [][]string{
		{"AAA___X", "10"},
		{"AAA___X", "not a number"},
		{"", "10"},
	})

	report, err := Duplicates(ds, &DuplicateConfig{
		InstrumentColumn: "paper",
		AmountColumn:     "amount",
		MinRepeats:       2,
		RoundTo:          2,
	})
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if report.RowsParsed != 1 {
		t.Errorf("RowsParsed = %d, want 1", report.RowsParsed)
	}
	if len(report.Groups) != 0 {
		t.Errorf("unparseable rows formed a group: %v", report.Groups)
	}
}

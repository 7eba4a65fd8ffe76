package classify

import (
	"testing"

	"trade-reconcile-service/internal/dataset"
)

func directionTestConfig() *DirectionConfig {
	return &DirectionConfig{
		InstrumentColumn1: "paper",
		OperationColumn1:  "op",
		InstrumentColumn2: "instr",
		SideColumn2:       "side",
		OperationMap:      DefaultOperationMap(),
		SideMap:           DefaultSideMap(),
	}
}

func TestDirectionCountsAgree(t *testing.T) {
	ds1 := buildDataset(t, "file1", []string{"paper", "op"}, [][]string{
		{"US1___UNH US", "Списание денежных средств"},
		{"US1___UNH US", "Зачисление денежных средств"},
	})
	ds2 := buildDataset(t, "file2", []string{"instr", "side"}, [][]string{
		{"[EQ]UNH.NYSE.TOM", "Buy"},
		{"[EQ]UNH.NYSE.TOM", "Sell"},
	})

	report, err := Direction(ds1, ds2, directionTestConfig())
	if err != nil {
		t.Fatalf("Direction: %v", err)
	}

	if len(report.Summary) != 2 {
		t.Fatalf("summary rows = %d, want 2", len(report.Summary))
	}
	if len(report.Mismatches) != 0 {
		t.Errorf("mismatches = %v, want none", report.Mismatches)
	}
	for _, row := range report.Summary {
		if row.Instrument != "UNH" {
			t.Errorf("instrument = %q, want UNH", row.Instrument)
		}
		if row.CountFile1 != 1 || row.CountFile2 != 1 || row.Diff != 0 {
			t.Errorf("row = %+v, want balanced counts", row)
		}
	}
}

func TestDirectionMismatch(t *testing.T) {
	ds1 := buildDataset(t, "file1", []string{"paper", "op"}, [][]string{
		{"A___X", "Списание денежных средств"},
		{"A___X", "Списание денежных средств"},
	})
	ds2 := buildDataset(t, "file2", []string{"instr", "side"}, [][]string{
		{"[EQ]X.NYSE", "Buy"},
	})

	report, err := Direction(ds1, ds2, directionTestConfig())
	if err != nil {
		t.Fatalf("Direction: %v", err)
	}

	if len(report.Mismatches) != 1 {
		t.Fatalf("mismatches = %d, want 1", len(report.Mismatches))
	}
	m := report.Mismatches[0]
	if m.Instrument != "X" || m.Direction != "debit" || m.Diff != 1 {
		t.Errorf("mismatch = %+v, want X/debit/+1", m)
	}
}

func TestDirectionSkipsUnresolvedRows(t *testing.T) {
	ds1 := buildDataset(t, "file1", []string{"paper", "op"}, [][]string{
		{"A___X", "неизвестная операция"},
		{"", "Списание денежных средств"},
	})
	ds2 := buildDataset(t, "file2", []string{"instr", "side"}, [][]string{
		{"[EQ]X.NYSE", "hold"},
	})

	report, err := Direction(ds1, ds2, directionTestConfig())
	if err != nil {
		t.Fatalf("Direction: %v", err)
	}
	if report.RowsResolved1 != 0 || report.RowsResolved2 != 0 {
		t.Errorf("resolved counts = %d/%d, want 0/0",
			report.RowsResolved1, report.RowsResolved2)
	}
	if len(report.Summary) != 0 {
		t.Errorf("summary = %v, want empty", report.Summary)
	}
}

func TestDirectionRequiresMaps(t *testing.T) {
	ds1 := buildDataset(t, "file1", []string{"paper", "op"}, [][]string{{"A", "b"}})
	ds2 := buildDataset(t, "file2", []string{"instr", "side"}, [][]string{{"A", "b"}})

	cfg := directionTestConfig()
	cfg.OperationMap = DirectionMap{}
	if _, err := Direction(ds1, ds2, cfg); err == nil {
		t.Error("expected error for empty equivalence table")
	}
}

func TestDirectionMapResolve(t *testing.T) {
	opMap := DefaultOperationMap()
	sideMap := DefaultSideMap()

	tests := []struct {
		m     *DirectionMap
		input string
		want  string
	}{
		{&opMap, "Списание денежных средств", "debit"},
		{&opMap, "ЗАЧИСЛЕНИЕ ДС", "credit"},
		{&opMap, "something else", ""},
		{&sideMap, "Buy", "debit"},
		{&sideMap, "  sell  ", "credit"},
		{&sideMap, "buyer", ""},
	}

	for _, tt := range tests {
		if got := tt.m.Resolve(dataset.TextValue(tt.input)); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

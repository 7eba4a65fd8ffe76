package classify

import "testing"

func TestCrossFileSetDifference(t *testing.T) {
	ds1 := buildDataset(t, "file1", []string{"paper", "amount"}, [][]string{
		{"US1___UNH US", "100"},
		{"US1___UNH US", "100"},
		{"US2___AAPL US", "250"},
	})
	ds2 := buildDataset(t, "file2", []string{"instr", "amt"}, [][]string{
		{"[EQ]UNH.NYSE", "100"},
		{"[EQ]TSLA.NASDAQ", "50"},
	})

	report, err := CrossFile(ds1, ds2, &CrossFileConfig{
		InstrumentColumn1: "paper",
		AmountColumn1:     "amount",
		InstrumentColumn2: "instr",
		AmountColumn2:     "amt",
		RoundTo:           2,
	})
	if err != nil {
		t.Fatalf("CrossFile: %v", err)
	}

	// (UNH, 100) exists on both sides, so only AAPL and TSLA are flagged
	// even though the UNH row counts differ.
	if len(report.Discrepancies) != 2 {
		t.Fatalf("discrepancies = %v, want AAPL and TSLA only", report.Discrepancies)
	}

	byInstrument := map[string]CrossFileDiscrepancy{}
	for _, d := range report.Discrepancies {
		byInstrument[d.Instrument] = d
	}
	if d, ok := byInstrument["AAPL"]; !ok || d.CountFile1 != 1 || d.CountFile2 != 0 {
		t.Errorf("AAPL discrepancy = %+v", d)
	}
	if d, ok := byInstrument["TSLA"]; !ok || d.CountFile1 != 0 || d.CountFile2 != 1 {
		t.Errorf("TSLA discrepancy = %+v", d)
	}
}

func TestCrossFileRoundingAlignsKeys(t *testing.T) {
	ds1 := buildDataset(t, "file1", []string{"paper", "amount"}, [][]string{
		{"A___X", "100.004"},
	})
	ds2 := buildDataset(t, "file2", []string{"instr", "amt"}, [][]string{
		{"[EQ]X.NYSE", "99.997"},
	})

	report, err := CrossFile(ds1, ds2, &CrossFileConfig{
		InstrumentColumn1: "paper",
		AmountColumn1:     "amount",
		InstrumentColumn2: "instr",
		AmountColumn2:     "amt",
		RoundTo:           0,
	})
	if err != nil {
		t.Fatalf("CrossFile: %v", err)
	}
	if len(report.Discrepancies) != 0 {
		t.Errorf("amounts rounding to the same key were flagged: %v", report.Discrepancies)
	}
}

func TestCrossFileSortedOutput(t *testing.T) {
	ds1 := buildDataset(t, "file1", []string{"paper", "amount"}, [][]string{
		{"X___ZZ", "5"},
		{"X___AA", "1"},
	})
	ds2 := buildDataset(t, "file2", []string{"instr", "amt"}, [][]string{
		{"[EQ]MM.NYSE", "3"},
	})

	report, err := CrossFile(ds1, ds2, &CrossFileConfig{
		InstrumentColumn1: "paper",
		AmountColumn1:     "amount",
		InstrumentColumn2: "instr",
		AmountColumn2:     "amt",
		RoundTo:           2,
	})
	if err != nil {
		t.Fatalf("CrossFile: %v", err)
	}

	want := []string{"AA", "MM", "ZZ"}
	if len(report.Discrepancies) != len(want) {
		t.Fatalf("discrepancies = %d, want %d", len(report.Discrepancies), len(want))
	}
	for i, d := range report.Discrepancies {
		if d.Instrument != want[i] {
			t.Errorf("position %d = %q, want %q", i, d.Instrument, want[i])
		}
	}
}

func TestCrossFileValidation(t *testing.T) {
	ds1 := buildDataset(t, "file1", []string{"paper", "amount"}, [][]string{{"A", "1"}})
	ds2 := buildDataset(t, "file2", []string{"instr", "amt"}, [][]string{{"B", "2"}})

	_, err := CrossFile(ds1, ds2, &CrossFileConfig{
		InstrumentColumn1: "paper",
		AmountColumn1:     "amount",
		InstrumentColumn2: "missing",
		AmountColumn2:     "amt",
		RoundTo:           2,
	})
	if err == nil {
		t.Error("expected error for unknown column")
	}

	_, err = CrossFile(ds1, ds2, &CrossFileConfig{
		InstrumentColumn1: "paper",
		AmountColumn1:     "amount",
		InstrumentColumn2: "instr",
		AmountColumn2:     "amt",
		RoundTo:           9,
	})
	if err == nil {
		t.Error("expected error for out-of-range round_to")
	}
}

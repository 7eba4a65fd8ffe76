package classify

import "testing"

func splitTestConfig() *SplitConfig {
	return &SplitConfig{
		ReferenceISINColumn: "ID_ISIN",
		SecurityColumn:      "security",
		AccountColumn:       "account",
		QuantityColumn:      "qty",
	}
}

func TestSplitsJoin(t *testing.T) {
	daily := buildDataset(t, "daily", []string{"security", "account", "qty"}, [][]string{
		{"US0378331005 Apple Inc", "ACC1", "10"},
		{"US88160R1014 Tesla", "ACC2", "5"},
		{"DE000BASF111", "ACC3", "7"},
	})
	reference := buildDataset(t, "splits", []string{"ID_ISIN"}, [][]string{
		{"US0378331005"},
		{"DE000BASF111"},
	})

	matches, err := Splits(daily, reference, splitTestConfig())
	if err != nil {
		t.Fatalf("Splits: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].ISIN != "US0378331005" {
		t.Errorf("first ISIN = %q", matches[0].ISIN)
	}
	if got := matches[0].Account.String(); got != "ACC1" {
		t.Errorf("account = %q, want ACC1", got)
	}
	if got := matches[0].Quantity.String(); got != "10" {
		t.Errorf("quantity = %q, want 10", got)
	}
	if got := matches[0].Security.String(); got != "US0378331005 Apple Inc" {
		t.Errorf("security name = %q", got)
	}
}

func TestSplitsEmptyIntersection(t *testing.T) {
	daily := buildDataset(t, "daily", []string{"security", "account", "qty"}, [][]string{
		{"US0378331005 Apple Inc", "ACC1", "10"},
	})
	reference := buildDataset(t, "splits", []string{"ID_ISIN"}, [][]string{
		{"XS9999999999"},
	})

	matches, err := Splits(daily, reference, splitTestConfig())
	if err != nil {
		t.Fatalf("Splits: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("matches = %v, want empty", matches)
	}
}

func TestSplitsCleansLeadingIdentifier(t *testing.T) {
	daily := buildDataset(t, "daily", []string{"security", "account", "qty"}, [][]string{
		{"  US0378331005 (split 4:1)", "ACC1", "40"},
		{"(no identifier)", "ACC2", "1"},
	})
	reference := buildDataset(t, "splits", []string{"ID_ISIN"}, [][]string{
		{"US0378331005"},
	})

	matches, err := Splits(daily, reference, splitTestConfig())
	if err != nil {
		t.Fatalf("Splits: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if matches[0].ISIN != "US0378331005" {
		t.Errorf("ISIN = %q", matches[0].ISIN)
	}
}

func TestSplitsValidation(t *testing.T) {
	daily := buildDataset(t, "daily", []string{"security", "account", "qty"}, [][]string{{"a", "b", "1"}})
	reference := buildDataset(t, "splits", []string{"ID_ISIN"}, [][]string{{"x"}})

	cfg := splitTestConfig()
	cfg.ReferenceISINColumn = "missing"
	if _, err := Splits(daily, reference, cfg); err == nil {
		t.Error("expected error for unknown reference column")
	}

	cfg = splitTestConfig()
	cfg.QuantityColumn = "missing"
	if _, err := Splits(daily, reference, cfg); err == nil {
		t.Error("expected error for unknown daily column")
	}
}

package settings

import (
	"reflect"
	"testing"
)

func TestDecodeEmptyYieldsDefaults(t *testing.T) {
	b, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(b, Default()) {
		t.Errorf("Decode(nil) = %+v, want defaults", b)
	}
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	raw := []byte(`{"podft_threshold": "5000000", "overlap_accounts": ["123"]}`)

	b, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if b.PodftThreshold != "5000000" {
		t.Errorf("threshold = %q, want override", b.PodftThreshold)
	}
	if !reflect.DeepEqual(b.OverlapAccounts, []string{"123"}) {
		t.Errorf("overlap accounts = %v", b.OverlapAccounts)
	}
	// Untouched keys keep their defaults.
	if b.PodftSumColumn != Default().PodftSumColumn {
		t.Errorf("sum column = %q, want default", b.PodftSumColumn)
	}
	if !b.PodftFilterEnabled {
		t.Error("filter default lost")
	}
}

func TestDecodeRejectsBadJSON(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Error("expected error for malformed settings")
	}
}

func TestThresholdAmount(t *testing.T) {
	b := Default()
	d, err := b.ThresholdAmount()
	if err != nil {
		t.Fatalf("ThresholdAmount: %v", err)
	}
	if d.String() != "7000000" {
		t.Errorf("default threshold = %s", d)
	}

	b.PodftThreshold = "7 000 000,50"
	d, err = b.ThresholdAmount()
	if err != nil {
		t.Fatalf("ThresholdAmount: %v", err)
	}
	if d.String() != "7000000.5" {
		t.Errorf("threshold = %s, want 7000000.5", d)
	}

	b.PodftThreshold = "seven million"
	if _, err := b.ThresholdAmount(); err == nil {
		t.Error("expected error for unparseable threshold")
	}
}

func TestExcludedMarkets(t *testing.T) {
	b := Default()
	want := []string{"COMMODITY", "CRYPTO", "FOREX"}
	if got := b.ExcludedMarkets(); !reflect.DeepEqual(got, want) {
		t.Errorf("ExcludedMarkets = %v, want %v", got, want)
	}

	b.PodftFilterValues = " a ,, b "
	if got := b.ExcludedMarkets(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("ExcludedMarkets = %v, want trimmed non-empty entries", got)
	}
}

func TestResolveIDColumn(t *testing.T) {
	b := Default()

	columns := []string{"Account", "ID сделки на бирже", "Сумма тг"}
	if got := b.ResolveIDColumn(columns); got != "ID сделки на бирже" {
		t.Errorf("ResolveIDColumn = %q", got)
	}

	// Aliases are tried in order.
	columns = []string{"ID сделки на бирже", "Execution ID"}
	if got := b.ResolveIDColumn(columns); got != "Execution ID" {
		t.Errorf("ResolveIDColumn = %q, want first alias", got)
	}

	if got := b.ResolveIDColumn([]string{"other"}); got != "" {
		t.Errorf("ResolveIDColumn = %q, want empty", got)
	}
}

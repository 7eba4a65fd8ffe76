// Package settings carries the per-request reconciliation settings bundle.
// The bundle arrives as a JSON form field; missing keys fall back to the
// operational defaults below. Bundles are read-only once decoded.
package settings

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"trade-reconcile-service/internal/dataset"
	apperrors "trade-reconcile-service/pkg/errors"
)

// Bundle is the full settings payload for a compare or split-check run.
type Bundle struct {
	// Regulatory threshold check.
	PodftSumColumn     string `json:"podft_sum_col"`
	PodftThreshold     string `json:"podft_threshold"`
	PodftFilterEnabled bool   `json:"podft_filter_enabled"`
	PodftFilterColumn  string `json:"podft_filter_col"`
	PodftFilterValues  string `json:"podft_filter_values"`

	// Crypto keyword check.
	CryptoEnabled  bool     `json:"crypto_enabled"`
	CryptoColumn   string   `json:"crypto_col"`
	CryptoKeywords []string `json:"crypto_keywords"`

	// Column aliases. DefaultIDNames is tried in order against each
	// file's header when the request does not name an id column.
	DefaultIDNames    []string `json:"default_id_names"`
	DefaultAccColumn1 string   `json:"default_acc_name_file1"`
	DefaultAccColumn2 string   `json:"default_acc_name_file2"`

	// Accounts excluded from the main comparison.
	OverlapAccounts []string `json:"overlap_accounts"`

	// Corporate-action split check.
	SplitEnabled        bool   `json:"split_check_enabled"`
	SplitISINColumn     string `json:"split_list_isin_col"`
	SplitSecurityColumn string `json:"daily_file_security_col"`
	SplitQuantityColumn string `json:"split_daily_qty_col"`
}

// Default returns the operational defaults.
func Default() Bundle {
	return Bundle{
		PodftSumColumn:     "Сумма тг",
		PodftThreshold:     "7000000",
		PodftFilterEnabled: true,
		PodftFilterColumn:  "Рынок ЦБ",
		PodftFilterValues:  "COMMODITY, CRYPTO, FOREX",

		CryptoEnabled:  true,
		CryptoColumn:   "Валюта",
		CryptoKeywords: []string{"USDT"},

		DefaultIDNames:    []string{"Execution ID", "ID сделки на бирже"},
		DefaultAccColumn1: "Account",
		DefaultAccColumn2: "Субсчет в учетной организации",

		SplitISINColumn:     "ID_ISIN",
		SplitSecurityColumn: "Ценная бумага",
		SplitQuantityColumn: "Количество",
	}
}

// Decode parses a settings JSON blob over the defaults, so keys absent from
// the payload keep their default values. An empty blob yields Default().
func Decode(raw []byte) (Bundle, error) {
	b := Default()
	if len(raw) == 0 {
		return b, nil
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return Bundle{}, apperrors.InvalidConfig("settings_json", string(raw), err.Error())
	}
	return b, nil
}

// ThresholdAmount parses the configured threshold, which may carry spaces or
// a comma decimal separator.
func (b Bundle) ThresholdAmount() (decimal.Decimal, error) {
	d, err := dataset.ParseAmount(b.PodftThreshold)
	if err != nil {
		return decimal.Decimal{}, apperrors.InvalidConfig("podft_threshold", b.PodftThreshold,
			"not a number")
	}
	return d, nil
}

// ExcludedMarkets splits the comma-separated exclusion list, trimming each
// entry and dropping empties.
func (b Bundle) ExcludedMarkets() []string {
	var out []string
	for _, v := range strings.Split(b.PodftFilterValues, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ResolveIDColumn returns the first id-column alias present in the header,
// or "" when none match.
func (b Bundle) ResolveIDColumn(columns []string) string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	for _, alias := range b.DefaultIDNames {
		if present[alias] {
			return alias
		}
	}
	return ""
}

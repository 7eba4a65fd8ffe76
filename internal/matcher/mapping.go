// Package matcher partitions two datasets into matched and unmatched
// records by a configured key, using a single-pass hashed join.
package matcher

import (
	"trade-reconcile-service/internal/dataset"
	apperrors "trade-reconcile-service/pkg/errors"
)

// ColumnMapping names which column in each dataset plays which role for the
// join. It is supplied by the caller per invocation; the engine never
// infers it from dataset shape.
type ColumnMapping struct {
	// IDColumn1 and IDColumn2 hold the join key on each side.
	IDColumn1 string
	IDColumn2 string

	// AccountColumn1 and AccountColumn2 identify the account/subaccount
	// column on each side. Carried for display and for the overlap-account
	// filter; part of the join key only when AccountInKey is set.
	AccountColumn1 string
	AccountColumn2 string

	// AccountInKey includes the normalized account in the join key. The
	// default (false) treats accounts as display-only.
	AccountInKey bool
}

// Validate checks the mapping against both dataset headers. It fails with
// ColumnNotFound naming the offending column, so misconfiguration is
// rejected before any classifier runs.
func (m *ColumnMapping) Validate(ds1, ds2 *dataset.Dataset) error {
	if m.IDColumn1 == "" || m.IDColumn2 == "" {
		return apperrors.InvalidConfig("id_columns", m.IDColumn1+"/"+m.IDColumn2,
			"id column must be mapped on both sides")
	}
	if !ds1.HasColumn(m.IDColumn1) {
		return apperrors.ColumnNotFound(ds1.Name, m.IDColumn1, ds1.Columns())
	}
	if !ds2.HasColumn(m.IDColumn2) {
		return apperrors.ColumnNotFound(ds2.Name, m.IDColumn2, ds2.Columns())
	}
	if m.AccountInKey {
		if m.AccountColumn1 == "" || m.AccountColumn2 == "" {
			return apperrors.InvalidConfig("account_columns", m.AccountColumn1+"/"+m.AccountColumn2,
				"account column must be mapped on both sides when it joins the key")
		}
	}
	if m.AccountColumn1 != "" && !ds1.HasColumn(m.AccountColumn1) {
		return apperrors.ColumnNotFound(ds1.Name, m.AccountColumn1, ds1.Columns())
	}
	if m.AccountColumn2 != "" && !ds2.HasColumn(m.AccountColumn2) {
		return apperrors.ColumnNotFound(ds2.Name, m.AccountColumn2, ds2.Columns())
	}
	return nil
}

// key builds the normalized join key for a record on the given side.
func (m *ColumnMapping) key(rec dataset.Record, idColumn, accountColumn string) string {
	k := dataset.NormalizeKey(rec.Value(idColumn))
	if k == "" {
		return ""
	}
	if m.AccountInKey {
		k += "|" + dataset.ExtractDigits(rec.Value(accountColumn))
	}
	return k
}

// Key1 returns the join key for a dataset-1 record, or "" when the id cell
// is empty.
func (m *ColumnMapping) Key1(rec dataset.Record) string {
	return m.key(rec, m.IDColumn1, m.AccountColumn1)
}

// Key2 returns the join key for a dataset-2 record, or "" when the id cell
// is empty.
func (m *ColumnMapping) Key2(rec dataset.Record) string {
	return m.key(rec, m.IDColumn2, m.AccountColumn2)
}

// Package dataset defines the tabular data model the reconciliation engine
// operates on: typed cell values, ordered records, and read-only datasets
// produced by the loaders.
package dataset

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the detected type of a cell value.
type Kind int

const (
	// KindNull marks an empty cell.
	KindNull Kind = iota
	// KindText marks a value kept as raw text.
	KindText
	// KindNumber marks a value coerced to a decimal number.
	KindNumber
	// KindDate marks a value recognized as a calendar date.
	KindDate
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// Value is one typed cell. The zero Value is a null cell.
type Value struct {
	Kind   Kind
	Text   string
	Number decimal.Decimal
	Date   time.Time
}

// Null returns an empty cell value.
func Null() Value {
	return Value{Kind: KindNull}
}

// TextValue returns a text cell value.
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// NumberValue returns a numeric cell value.
func NumberValue(d decimal.Decimal) Value {
	return Value{Kind: KindNumber, Number: d}
}

// DateValue returns a date cell value.
func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, Date: t}
}

// IsNull reports whether the cell is empty.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// String renders the cell the way it appeared in the source file, for
// display and export. Null cells render as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return v.Number.String()
	case KindDate:
		return v.Date.Format("2006-01-02")
	default:
		return ""
	}
}

// AsNumber attempts to interpret the cell as a decimal number. Text cells
// are re-coerced through ParseAmount so values like "1 000,50" still count.
func (v Value) AsNumber() (decimal.Decimal, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindText:
		d, err := ParseAmount(v.Text)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// MarshalJSON renders the value as its display string, matching the wire
// shape the UI table renderer expects.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// Record is one row: values aligned with its dataset's column order.
// Records are immutable once parsed.
type Record struct {
	columns []string
	values  []Value
}

// NewRecord creates a record over a shared column slice. The values slice
// must be the same length as columns.
func NewRecord(columns []string, values []Value) Record {
	return Record{columns: columns, values: values}
}

// Columns returns the ordered column names. Callers must not modify the
// returned slice.
func (r Record) Columns() []string {
	return r.columns
}

// Value returns the cell under the named column. Missing columns read as
// null, mirroring how short rows in real exports behave.
func (r Record) Value(column string) Value {
	for i, c := range r.columns {
		if c == column && i < len(r.values) {
			return r.values[i]
		}
	}
	return Null()
}

// Values returns the ordered cells of the record.
func (r Record) Values() []Value {
	return r.values
}

// MarshalJSON renders the record as a JSON object with keys in column
// order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		v := Null()
		if i < len(r.values) {
			v = r.values[i]
		}
		val, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON rebuilds a record from a JSON object. Keys are read in
// document order so exports of round-tripped reports keep their column
// order; cell text goes back through type coercion.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}

	var columns []string
	var values []Value
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var cell string
		if err := dec.Decode(&cell); err != nil {
			return err
		}
		columns = append(columns, key)
		values = append(values, Coerce(cell))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	r.columns = columns
	r.values = values
	return nil
}

// WithColumn returns a copy of the record with an extra column prepended.
// Used to tag classifier output rows with their source file.
func (r Record) WithColumn(name string, value Value) Record {
	columns := make([]string, 0, len(r.columns)+1)
	columns = append(columns, name)
	columns = append(columns, r.columns...)
	values := make([]Value, 0, len(r.values)+1)
	values = append(values, value)
	values = append(values, r.values...)
	return Record{columns: columns, values: values}
}

// Dataset is an ordered sequence of records sharing one column set.
// Datasets are read-only after creation and are not retained by the engine
// past the invocation that consumed them.
type Dataset struct {
	Name    string
	columns []string
	records []Record
}

// New creates a dataset from a column set and rows of values. Row value
// slices must align with columns.
func New(name string, columns []string, rows [][]Value) *Dataset {
	ds := &Dataset{Name: name, columns: columns}
	ds.records = make([]Record, 0, len(rows))
	for _, row := range rows {
		ds.records = append(ds.records, Record{columns: columns, values: row})
	}
	return ds
}

// Columns returns the ordered header of the dataset.
func (d *Dataset) Columns() []string {
	return d.columns
}

// HasColumn reports whether the header contains the named column.
func (d *Dataset) HasColumn(column string) bool {
	for _, c := range d.columns {
		if c == column {
			return true
		}
	}
	return false
}

// Records returns the ordered rows. Callers must not modify the slice.
func (d *Dataset) Records() []Record {
	return d.records
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Filter returns a new dataset containing the records for which keep
// returns true, preserving order and sharing the column set.
func (d *Dataset) Filter(keep func(Record) bool) *Dataset {
	out := &Dataset{Name: d.Name, columns: d.columns}
	for _, rec := range d.records {
		if keep(rec) {
			out.records = append(out.records, rec)
		}
	}
	return out
}

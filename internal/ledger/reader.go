package ledger

import "github.com/louisbranch/ledgerdb/internal/engine"

// Reader steps through the records of a read response. Column accessors
// return the zero value when the cell holds a different variant than the
// one requested.
type Reader struct {
	records []engine.Record
	row     int
}

// NewReader wraps an ordered record list. Step must be called before the
// first row is read.
func NewReader(records []engine.Record) *Reader {
	return &Reader{records: records, row: -1}
}

// Step advances to the next record and reports whether one exists.
func (r *Reader) Step() bool {
	if r == nil || r.row+1 >= len(r.records) {
		return false
	}
	r.row++
	return true
}

// Len returns the total record count.
func (r *Reader) Len() int {
	if r == nil {
		return 0
	}
	return len(r.records)
}

// ColumnString returns column i of the current record as a string.
func (r *Reader) ColumnString(i int) string {
	if v, ok := r.field(i); ok && v.Kind == engine.KindString {
		return v.Str
	}
	return ""
}

// ColumnInt returns column i of the current record as a 32-bit integer.
func (r *Reader) ColumnInt(i int) int32 {
	if v, ok := r.field(i); ok && v.Kind == engine.KindInt {
		return v.Int
	}
	return 0
}

// ColumnInt64 returns column i of the current record as a 64-bit integer.
func (r *Reader) ColumnInt64(i int) int64 {
	if v, ok := r.field(i); ok && v.Kind == engine.KindInt64 {
		return v.Int64
	}
	return 0
}

// ColumnDouble returns column i of the current record as a float.
func (r *Reader) ColumnDouble(i int) float64 {
	if v, ok := r.field(i); ok && v.Kind == engine.KindDouble {
		return v.Double
	}
	return 0
}

// ColumnBool returns column i of the current record as a bool.
func (r *Reader) ColumnBool(i int) bool {
	if v, ok := r.field(i); ok && v.Kind == engine.KindBool {
		return v.Bool
	}
	return false
}

func (r *Reader) field(i int) (engine.Value, bool) {
	if r == nil || r.row < 0 || r.row >= len(r.records) {
		return engine.Value{}, false
	}
	fields := r.records[r.row].Fields
	if i < 0 || i >= len(fields) {
		return engine.Value{}, false
	}
	return fields[i], true
}

package engine

import "fmt"

// ValueKind discriminates the closed set of scalar variants.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindInt
	KindInt64
	KindDouble
	KindBool
)

// Value is a tagged scalar used for statement parameters and result cells.
// Exactly one variant is meaningful, selected by Kind; the zero Value is
// NULL. Variants are never coerced into each other at the marshaling
// boundary.
type Value struct {
	Kind   ValueKind
	Str    string
	Int    int32
	Int64  int64
	Double float64
	Bool   bool
}

// NullValue returns a NULL value.
func NullValue() Value { return Value{Kind: KindNull} }

// StringValue returns a string value.
func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }

// IntValue returns a 32-bit integer value.
func IntValue(v int32) Value { return Value{Kind: KindInt, Int: v} }

// Int64Value returns a 64-bit integer value.
func Int64Value(v int64) Value { return Value{Kind: KindInt64, Int64: v} }

// DoubleValue returns a floating-point value.
func DoubleValue(v float64) Value { return Value{Kind: KindDouble, Double: v} }

// BoolValue returns a boolean value.
func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// ColumnType declares how one result column is read back.
type ColumnType int

const (
	ColumnString ColumnType = iota
	ColumnInt
	ColumnInt64
	ColumnDouble
	ColumnBool
)

// Binding attaches a parameter value to a 0-based positional statement
// slot. The slot index, not the position in the binding list, determines
// placement.
type Binding struct {
	Index int
	Value Value
}

// Record is one output row: an ordered value per declared column type.
type Record struct {
	Fields []Value
}

// bindingArgs lays parameter values out by slot index. Slots left unbound
// by the caller bind SQL NULL.
func bindingArgs(bindings []Binding) []any {
	size := 0
	for _, b := range bindings {
		if b.Index+1 > size {
			size = b.Index + 1
		}
	}
	if size == 0 {
		return nil
	}
	args := make([]any, size)
	for _, b := range bindings {
		args[b.Index] = bindValue(b.Value)
	}
	return args
}

// bindValue converts a Value into the driver's native parameter type. An
// unknown kind is an engine/caller protocol mismatch, not bad data.
func bindValue(v Value) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindString:
		return v.Str
	case KindInt:
		return v.Int
	case KindInt64:
		return v.Int64
	case KindDouble:
		return v.Double
	case KindBool:
		return v.Bool
	}
	panic(fmt.Sprintf("engine: unknown value kind %d", v.Kind))
}

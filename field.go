package textsort

import "strconv"

// FieldType selects how a field's raw bytes are interpreted for comparison.
type FieldType int

const (
	// FieldTypeString compares fields as byte strings.
	FieldTypeString FieldType = iota
	// FieldTypeInteger compares fields as signed 64 bit integers.
	FieldTypeInteger
	// FieldTypeNumber compares fields as 64 bit floating point numbers.
	FieldTypeNumber
)

func (t FieldType) String() string {
	switch t {
	case FieldTypeString:
		return "String"
	case FieldTypeInteger:
		return "Integer"
	case FieldTypeNumber:
		return "Number"
	}
	return "Unknown"
}

// Order is the sort direction for a field or for the whole record.
type Order int

const (
	// OrderDefault defers to the global Config.Order.
	OrderDefault Order = iota
	// Asc sorts smallest first.
	Asc
	// Desc sorts largest first.
	Desc
)

func (o Order) String() string {
	switch o {
	case Asc:
		return "Asc"
	case Desc:
		return "Desc"
	}
	return "Default"
}

// Field describes one sort key of a line record. Index 0 treats the complete
// line as the field; indices 1..N address the Nth separator-delimited field.
// A Field is immutable once the sort starts and is shared read-only by all
// workers.
type Field struct {
	// Name is an optional label used in error messages.
	Name string
	// Index of the field, 1-based. 0 means the entire line.
	Index int
	// Type selects the comparison domain.
	Type FieldType
	// IgnoreBlanks trims surrounding whitespace before comparison.
	IgnoreBlanks bool
	// IgnoreCase upper-cases string fields before comparison.
	IgnoreCase bool
	// Random replaces the key with a per-run pseudo random value,
	// shuffling the records addressed by this field.
	Random bool
	// Order overrides the global sort order for this field.
	Order Order
}

// NewField returns a Field with the given index and type and default flags.
func NewField(index int, fieldType FieldType) Field {
	return Field{Index: index, Type: fieldType}
}

// order resolves the effective direction given the global default.
func (f Field) order(global Order) Order {
	if f.Order == OrderDefault {
		return global
	}
	return f.Order
}

func (f Field) label() string {
	if f.Name != "" {
		return f.Name
	}
	return "field " + strconv.Itoa(f.Index)
}

package frame

// DType is the storage type of a column.
type DType int

const (
	DTypeString DType = iota
	DTypeNumber
	DTypeInt
	DTypeBool
	DTypeDate
	DTypeDatetime
)

// ParseDType maps a schema dtype string to a storage type. Unrecognized
// values fall back to string.
func ParseDType(s string) DType {
	switch s {
	case "string":
		return DTypeString
	case "number", "float":
		return DTypeNumber
	case "integer", "int":
		return DTypeInt
	case "boolean", "bool":
		return DTypeBool
	case "date":
		return DTypeDate
	case "datetime":
		return DTypeDatetime
	default:
		return DTypeString
	}
}

// String returns the canonical dtype name.
func (d DType) String() string {
	switch d {
	case DTypeNumber:
		return "number"
	case DTypeInt:
		return "integer"
	case DTypeBool:
		return "boolean"
	case DTypeDate:
		return "date"
	case DTypeDatetime:
		return "datetime"
	default:
		return "string"
	}
}

// Column is one typed output column. Cells holds one value per row: nil for
// a null cell, otherwise string (string/date/datetime columns), float64
// (number), int64 (integer), or bool (boolean).
type Column struct {
	Name  string
	Cells []any
	Type  DType
}

// Len returns the number of cells.
func (c *Column) Len() int {
	return len(c.Cells)
}

// Table is a rectangular set of named, typed columns.
type Table struct {
	Columns []Column
}

// Rows returns the table height. All columns have equal length.
func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// NumColumns returns the table width.
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// Column returns the column with the given output name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

package frame

import (
	"bytes"
	"encoding/json"

	"github.com/wippyai/extension-host/errors"
	"github.com/wippyai/extension-host/protocol"
)

// NormalizeRaw decodes a raw JSON payload and normalizes it against the
// schema. Numbers are decoded as json.Number so 64-bit integers survive
// intact. A nil or empty payload is treated as JSON null.
func NormalizeRaw(raw json.RawMessage, schema protocol.Schema) (*Table, error) {
	if len(raw) == 0 {
		return Normalize(nil, schema)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, errors.InvalidShape("data is not valid JSON: " + err.Error())
	}
	return Normalize(data, schema)
}

// FromProto normalizes a wire-format dataframe into a typed table.
func FromProto(df protocol.ProtoDataFrame) (*Table, error) {
	return NormalizeRaw(df.Data, df.Schema)
}

// Normalize converts a decoded JSON payload plus a schema into a typed table.
//
//   - nil: empty table (schema columns, zero rows)
//   - []any: row-oriented; one cell per schema column per row
//   - map[string]any: column-oriented; reconciled and broadcast to the
//     height of the tallest column
//
// Any other payload shape is an InvalidShape data error.
func Normalize(data any, schema protocol.Schema) (*Table, error) {
	if err := checkAliases(schema); err != nil {
		return nil, err
	}

	switch v := data.(type) {
	case nil:
		return emptyTable(schema), nil
	case []any:
		return normalizeRows(v, schema), nil
	case map[string]any:
		return normalizeColumns(v, schema)
	default:
		return nil, errors.InvalidShape("data must be null, an array of rows, or an object of columns")
	}
}

func checkAliases(schema protocol.Schema) error {
	seen := make(map[string]struct{}, len(schema))
	for _, def := range schema {
		if _, dup := seen[def.Alias]; dup {
			return errors.BuildFailed("duplicate column alias %q", def.Alias)
		}
		seen[def.Alias] = struct{}{}
	}
	return nil
}

func emptyTable(schema protocol.Schema) *Table {
	t := &Table{Columns: make([]Column, len(schema))}
	for i, def := range schema {
		t.Columns[i] = Column{Name: def.Alias, Type: ParseDType(def.DType)}
	}
	return t
}

// normalizeRows builds every column from row objects. Missing keys and
// non-object rows yield null cells, never errors.
func normalizeRows(rows []any, schema protocol.Schema) *Table {
	t := &Table{Columns: make([]Column, len(schema))}
	for i, def := range schema {
		dtype := ParseDType(def.DType)
		cells := make([]any, len(rows))
		for j, row := range rows {
			obj, ok := row.(map[string]any)
			if !ok {
				continue
			}
			value, present := obj[def.Name]
			if !present {
				continue
			}
			cells[j] = coerce(value, dtype)
		}
		t.Columns[i] = Column{Name: def.Alias, Type: dtype, Cells: cells}
	}
	return t
}

// normalizeColumns builds columns from a column-keyed object, then reconciles
// lengths: absent columns null-fill, single-cell columns broadcast, and every
// column ends at the height of the tallest one.
func normalizeColumns(obj map[string]any, schema protocol.Schema) (*Table, error) {
	t := &Table{Columns: make([]Column, len(schema))}
	maxRows := 0

	for i, def := range schema {
		dtype := ParseDType(def.DType)
		col := Column{Name: def.Alias, Type: dtype}

		if value, present := obj[def.Name]; present {
			if arr, ok := value.([]any); ok {
				col.Cells = make([]any, len(arr))
				for j, elem := range arr {
					col.Cells[j] = coerce(elem, dtype)
				}
			} else {
				col.Cells = []any{coerce(value, dtype)}
			}
			if len(col.Cells) > maxRows {
				maxRows = len(col.Cells)
			}
		}

		t.Columns[i] = col
	}

	for i := range t.Columns {
		col := &t.Columns[i]
		switch {
		case len(col.Cells) == maxRows:
			// already rectangular
		case len(col.Cells) == 0:
			col.Cells = make([]any, maxRows)
		case len(col.Cells) == 1 && maxRows > 1:
			single := col.Cells[0]
			col.Cells = make([]any, maxRows)
			for j := range col.Cells {
				col.Cells[j] = single
			}
		default:
			return nil, errors.BuildFailed("column %q has %d rows, expected %d", col.Name, len(col.Cells), maxRows)
		}
	}

	return t, nil
}

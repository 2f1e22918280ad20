package frame

import (
	"encoding/json"
	"strconv"
	"strings"
)

// coerce converts one decoded JSON value to the column's cell type. Returns
// nil for JSON null and for any value the dtype cannot absorb; coercion
// failure is never an error.
func coerce(v any, dtype DType) any {
	if v == nil {
		return nil
	}
	switch dtype {
	case DTypeNumber:
		return coerceNumber(v)
	case DTypeInt:
		return coerceInt(v)
	case DTypeBool:
		return coerceBool(v)
	default:
		// string, date, and datetime columns all store text.
		return coerceString(v)
	}
}

// coerceString renders any non-null JSON value as text. Strings pass through,
// everything else gets its canonical JSON rendering.
func coerceString(v any) any {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		raw, err := json.Marshal(x)
		if err != nil {
			return nil
		}
		return string(raw)
	}
}

func coerceNumber(v any) any {
	switch x := v.(type) {
	case float64:
		return x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		return f
	default:
		return nil
	}
}

func coerceInt(v any) any {
	switch x := v.(type) {
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return nil
		}
		return i
	case float64:
		i := int64(x)
		if float64(i) != x {
			return nil
		}
		return i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil
		}
		return i
	default:
		return nil
	}
}

func coerceBool(v any) any {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(x) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		default:
			return nil
		}
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil
		}
		return f != 0
	case float64:
		return x != 0
	default:
		return nil
	}
}

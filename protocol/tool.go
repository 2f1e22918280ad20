package protocol

import (
	"encoding/json"

	"github.com/wippyai/extension-host/errors"
)

// Metadata is the static identity a guest advertises before processing any
// command.
type Metadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// ToolInfo is the static per-tool metadata a guest advertises. Schema is a
// JSON Schema value describing the tool's parameters, passed through verbatim.
type ToolInfo struct {
	Schema      json.RawMessage `json:"schema"`
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
}

// ColumnDef describes one output column of a tabular tool result. Name is the
// source field key, Alias the output column identifier, DType the target type
// (string, number|float, integer|int, boolean|bool, date, datetime;
// unrecognized values fall back to string).
type ColumnDef struct {
	Name  string `json:"name"`
	Alias string `json:"alias"`
	DType string `json:"dtype"`
}

// Schema is an ordered sequence of column definitions.
type Schema = []ColumnDef

// ProtoDataFrame is the wire-format, untyped precursor to a typed table:
// a raw JSON payload plus the schema describing how to normalize it.
type ProtoDataFrame struct {
	Data     json.RawMessage `json:"data"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Schema   Schema          `json:"schema"`
}

// ToolResult is the successful output of a tool execution: either plain text
// or an untyped table payload. Exactly one field is set.
type ToolResult struct {
	Text      *string
	DataFrame *ProtoDataFrame
}

// TextResult builds a text tool result.
func TextResult(text string) ToolResult {
	return ToolResult{Text: &text}
}

// DataFrameResult builds a tabular tool result.
func DataFrameResult(df ProtoDataFrame) ToolResult {
	return ToolResult{DataFrame: &df}
}

// MarshalJSON encodes the result as an externally tagged variant:
// {"Text": "..."} or {"DataFrame": {...}}.
func (r ToolResult) MarshalJSON() ([]byte, error) {
	switch {
	case r.Text != nil:
		return json.Marshal(map[string]string{"Text": *r.Text})
	case r.DataFrame != nil:
		return json.Marshal(map[string]*ProtoDataFrame{"DataFrame": r.DataFrame})
	default:
		return nil, errors.New(errors.PhaseProtocol, errors.KindEncodeFailed, "empty tool result")
	}
}

// UnmarshalJSON decodes the externally tagged variant form.
func (r *ToolResult) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode tool result")
	}

	if raw, ok := tagged["Text"]; ok {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode Text result")
		}
		*r = ToolResult{Text: &text}
		return nil
	}
	if raw, ok := tagged["DataFrame"]; ok {
		var df ProtoDataFrame
		if err := json.Unmarshal(raw, &df); err != nil {
			return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode DataFrame result")
		}
		*r = ToolResult{DataFrame: &df}
		return nil
	}
	return errors.New(errors.PhaseProtocol, errors.KindDecodeFailed, "tool result has no recognized variant")
}

// ToolOutcome is the ok/err duality of a tool execution as carried on the
// wire: {"Ok": <ToolResult>} or {"Err": <guest-defined error value>}. The
// error side is opaque to the host and passed through verbatim.
type ToolOutcome struct {
	OK  *ToolResult
	Err json.RawMessage
}

// OkOutcome wraps a successful tool result.
func OkOutcome(result ToolResult) ToolOutcome {
	return ToolOutcome{OK: &result}
}

// ErrOutcome wraps an error message as a guest-style string error value.
func ErrOutcome(message string) ToolOutcome {
	raw, _ := json.Marshal(message)
	return ToolOutcome{Err: raw}
}

// Failed reports whether the outcome is the error side.
func (o ToolOutcome) Failed() bool {
	return o.OK == nil
}

// ErrString renders the error side for display. Structured error values
// render as compact JSON.
func (o ToolOutcome) ErrString() string {
	if o.Err == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(o.Err, &s); err == nil {
		return s
	}
	return string(o.Err)
}

func (o ToolOutcome) MarshalJSON() ([]byte, error) {
	if o.OK != nil {
		return json.Marshal(map[string]*ToolResult{"Ok": o.OK})
	}
	err := o.Err
	if err == nil {
		err = json.RawMessage("null")
	}
	return json.Marshal(map[string]json.RawMessage{"Err": err})
}

func (o *ToolOutcome) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode tool outcome")
	}

	if raw, ok := tagged["Ok"]; ok {
		var result ToolResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return err
		}
		*o = ToolOutcome{OK: &result}
		return nil
	}
	if raw, ok := tagged["Err"]; ok {
		*o = ToolOutcome{Err: raw}
		return nil
	}
	return errors.New(errors.PhaseProtocol, errors.KindDecodeFailed, "tool outcome has neither Ok nor Err")
}

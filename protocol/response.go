package protocol

import (
	"encoding/json"

	"github.com/wippyai/extension-host/errors"
)

// ResponseType names a Response variant on the wire.
type ResponseType string

const (
	ResponseMetadata    ResponseType = "Metadata"
	ResponseToolList    ResponseType = "ToolList"
	ResponseToolDetails ResponseType = "ToolDetails"
	ResponseToolResult  ResponseType = "ToolResult"
	ResponseError       ResponseType = "Error"
)

// Response is a tagged union received FROM an extension. Exactly one variant
// is active, selected by Type.
type Response struct {
	// Metadata is set for the Metadata variant.
	Metadata *Metadata

	// ToolInfo is set for the ToolDetails variant.
	ToolInfo *ToolInfo

	// Result is set for the ToolResult variant.
	Result *ToolOutcome

	// Tools is set for the ToolList variant.
	Tools []ToolInfo

	// ToolID identifies the tool for ToolDetails and ToolResult. For
	// ToolResult it always equals the triggering command's tool id unless
	// the response was produced by a protocol-level error.
	ToolID string

	// Message is set for the Error variant.
	Message string

	// CorrelationID echoes the triggering command's id. Empty means absent.
	CorrelationID string

	Type ResponseType
}

// MetadataResponse builds the Metadata response a session emits first.
func MetadataResponse(md Metadata) Response {
	return Response{Type: ResponseMetadata, Metadata: &md}
}

// ToolListResponse builds a ToolList response.
func ToolListResponse(tools []ToolInfo, correlationID string) Response {
	return Response{Type: ResponseToolList, Tools: tools, CorrelationID: correlationID}
}

// ToolDetailsResponse builds a ToolDetails response.
func ToolDetailsResponse(toolID string, info ToolInfo, correlationID string) Response {
	return Response{Type: ResponseToolDetails, ToolID: toolID, ToolInfo: &info, CorrelationID: correlationID}
}

// ToolResultResponse builds a ToolResult response.
func ToolResultResponse(toolID string, outcome ToolOutcome, correlationID string) Response {
	return Response{Type: ResponseToolResult, ToolID: toolID, Result: &outcome, CorrelationID: correlationID}
}

// ErrorResponse builds an Error response.
func ErrorResponse(message, correlationID string) Response {
	return Response{Type: ResponseError, Message: message, CorrelationID: correlationID}
}

type responseEnvelope struct {
	Type    ResponseType    `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type toolListPayload struct {
	Tools         []ToolInfo `json:"tools"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}

type toolDetailsPayload struct {
	ToolInfo      ToolInfo `json:"tool_info"`
	ToolID        string   `json:"tool_id"`
	CorrelationID string   `json:"correlation_id,omitempty"`
}

type toolResultPayload struct {
	Result        ToolOutcome `json:"result"`
	ToolID        string      `json:"tool_id"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

type errorPayload struct {
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// MarshalJSON encodes the response as a {"type": ..., "payload": ...} envelope.
func (r Response) MarshalJSON() ([]byte, error) {
	var payload any
	switch r.Type {
	case ResponseMetadata:
		if r.Metadata == nil {
			return nil, errors.New(errors.PhaseProtocol, errors.KindEncodeFailed, "Metadata response without metadata")
		}
		payload = *r.Metadata
	case ResponseToolList:
		payload = toolListPayload{Tools: r.Tools, CorrelationID: r.CorrelationID}
	case ResponseToolDetails:
		if r.ToolInfo == nil {
			return nil, errors.New(errors.PhaseProtocol, errors.KindEncodeFailed, "ToolDetails response without tool info")
		}
		payload = toolDetailsPayload{ToolID: r.ToolID, ToolInfo: *r.ToolInfo, CorrelationID: r.CorrelationID}
	case ResponseToolResult:
		if r.Result == nil {
			return nil, errors.New(errors.PhaseProtocol, errors.KindEncodeFailed, "ToolResult response without result")
		}
		payload = toolResultPayload{ToolID: r.ToolID, Result: *r.Result, CorrelationID: r.CorrelationID}
	case ResponseError:
		payload = errorPayload{Message: r.Message, CorrelationID: r.CorrelationID}
	default:
		return nil, errors.New(errors.PhaseProtocol, errors.KindEncodeFailed, "unknown response type %q", r.Type)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseProtocol, errors.KindEncodeFailed, err, "marshal response payload")
	}
	return json.Marshal(responseEnvelope{Type: r.Type, Payload: raw})
}

// UnmarshalJSON decodes the tagged envelope form. Unknown variants are a
// protocol error, recoverable at the session boundary.
func (r *Response) UnmarshalJSON(data []byte) error {
	var env responseEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode response envelope")
	}

	if env.Payload == nil {
		env.Payload = json.RawMessage("{}")
	}

	out := Response{Type: env.Type}
	switch env.Type {
	case ResponseMetadata:
		var md Metadata
		if err := json.Unmarshal(env.Payload, &md); err != nil {
			return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode Metadata payload")
		}
		out.Metadata = &md
	case ResponseToolList:
		var p toolListPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode ToolList payload")
		}
		out.Tools = p.Tools
		out.CorrelationID = p.CorrelationID
	case ResponseToolDetails:
		var p toolDetailsPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode ToolDetails payload")
		}
		out.ToolID = p.ToolID
		out.ToolInfo = &p.ToolInfo
		out.CorrelationID = p.CorrelationID
	case ResponseToolResult:
		var p toolResultPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode ToolResult payload")
		}
		out.ToolID = p.ToolID
		out.Result = &p.Result
		out.CorrelationID = p.CorrelationID
	case ResponseError:
		var p errorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode Error payload")
		}
		out.Message = p.Message
		out.CorrelationID = p.CorrelationID
	default:
		return errors.New(errors.PhaseProtocol, errors.KindDecodeFailed, "unknown response type %q", env.Type)
	}

	*r = out
	return nil
}

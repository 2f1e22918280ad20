package protocol

import (
	"encoding/json"

	"github.com/wippyai/extension-host/errors"
)

// CommandType names a Command variant on the wire.
type CommandType string

const (
	CommandListTools      CommandType = "ListTools"
	CommandGetToolDetails CommandType = "GetToolDetails"
	CommandExecuteTool    CommandType = "ExecuteTool"
	CommandCustom         CommandType = "Custom"
)

// Command is a tagged union sent TO an extension. Exactly one variant is
// active, selected by Type; the remaining fields are meaningful only for
// their variant.
type Command struct {
	// Params is the tool input for ExecuteTool, verbatim JSON.
	Params json.RawMessage

	// ToolID identifies the target tool for GetToolDetails and ExecuteTool.
	ToolID string

	// Custom carries the free-form payload of a Custom command. By
	// convention (not by schema) it decodes into a {tool, params} object;
	// the host never validates this.
	Custom string

	// CorrelationID is echoed back in the matching response. Empty means
	// absent.
	CorrelationID string

	Type CommandType
}

// ListTools builds a ListTools command.
func ListTools(correlationID string) Command {
	return Command{Type: CommandListTools, CorrelationID: correlationID}
}

// GetToolDetails builds a GetToolDetails command for one tool.
func GetToolDetails(toolID, correlationID string) Command {
	return Command{Type: CommandGetToolDetails, ToolID: toolID, CorrelationID: correlationID}
}

// ExecuteTool builds an ExecuteTool command with raw JSON params.
func ExecuteTool(toolID string, params json.RawMessage, correlationID string) Command {
	return Command{Type: CommandExecuteTool, ToolID: toolID, Params: params, CorrelationID: correlationID}
}

// CustomCommand builds a Custom command with a free-form payload.
func CustomCommand(command, correlationID string) Command {
	return Command{Type: CommandCustom, Custom: command, CorrelationID: correlationID}
}

type commandEnvelope struct {
	Type    CommandType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type listToolsPayload struct {
	CorrelationID string `json:"correlation_id,omitempty"`
}

type getToolDetailsPayload struct {
	ToolID        string `json:"tool_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type executeToolPayload struct {
	Params        json.RawMessage `json:"params"`
	ToolID        string          `json:"tool_id"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

type customPayload struct {
	Command       string `json:"command"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// MarshalJSON encodes the command as a {"type": ..., "payload": ...} envelope.
func (c Command) MarshalJSON() ([]byte, error) {
	var payload any
	switch c.Type {
	case CommandListTools:
		payload = listToolsPayload{CorrelationID: c.CorrelationID}
	case CommandGetToolDetails:
		payload = getToolDetailsPayload{ToolID: c.ToolID, CorrelationID: c.CorrelationID}
	case CommandExecuteTool:
		params := c.Params
		if params == nil {
			params = json.RawMessage("null")
		}
		payload = executeToolPayload{ToolID: c.ToolID, Params: params, CorrelationID: c.CorrelationID}
	case CommandCustom:
		payload = customPayload{Command: c.Custom, CorrelationID: c.CorrelationID}
	default:
		return nil, errors.New(errors.PhaseProtocol, errors.KindEncodeFailed, "unknown command type %q", c.Type)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseProtocol, errors.KindEncodeFailed, err, "marshal command payload")
	}
	return json.Marshal(commandEnvelope{Type: c.Type, Payload: raw})
}

// UnmarshalJSON decodes the tagged envelope form. Unknown variants are a
// protocol error, recoverable at the session boundary.
func (c *Command) UnmarshalJSON(data []byte) error {
	var env commandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode command envelope")
	}

	if env.Payload == nil {
		env.Payload = json.RawMessage("{}")
	}

	out := Command{Type: env.Type}
	switch env.Type {
	case CommandListTools:
		var p listToolsPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode ListTools payload")
		}
		out.CorrelationID = p.CorrelationID
	case CommandGetToolDetails:
		var p getToolDetailsPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode GetToolDetails payload")
		}
		out.ToolID = p.ToolID
		out.CorrelationID = p.CorrelationID
	case CommandExecuteTool:
		var p executeToolPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode ExecuteTool payload")
		}
		out.ToolID = p.ToolID
		out.Params = p.Params
		out.CorrelationID = p.CorrelationID
	case CommandCustom:
		var p customPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "decode Custom payload")
		}
		out.Custom = p.Command
		out.CorrelationID = p.CorrelationID
	default:
		return errors.New(errors.PhaseProtocol, errors.KindDecodeFailed, "unknown command type %q", env.Type)
	}

	*c = out
	return nil
}

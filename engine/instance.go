package engine

import (
	"context"
	"encoding/json"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/extension-host/errors"
	"github.com/wippyai/extension-host/protocol"
)

// requiredExports are the guest functions every extension must provide.
// view is optional.
var requiredExports = []string{"allocate", "get_metadata", "new", "update"}

// Instance is a running extension guest.
//
// Instance is not thread-safe. Callers must serialize access, which the
// extension session does.
type Instance struct {
	engine *Engine
	module api.Module
	handle uint64
	built  bool
}

// Instantiate compiles and instantiates an extension binary.
// The returned instance has no guest-side state yet; call NewInstance to
// run the extension constructor.
func (e *Engine) Instantiate(ctx context.Context, wasmBytes []byte) (*Instance, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.InvalidBinary(err)
	}

	module, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return nil, errors.InvalidBinary(err)
	}

	for _, name := range requiredExports {
		if module.ExportedFunction(name) == nil {
			_ = module.Close(ctx)
			return nil, errors.MissingExport(name)
		}
	}

	return &Instance{engine: e, module: module}, nil
}

// guestResult is the JSON envelope wrapping every fallible guest return.
type guestResult struct {
	OK  json.RawMessage `json:"ok"`
	Err *string         `json:"err"`
}

// callPacked invokes a guest export and decodes the packed result envelope.
// A guest-reported err becomes a guest failure; a trap becomes a fault.
func (i *Instance) callPacked(ctx context.Context, name string, args ...uint64) (json.RawMessage, error) {
	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return nil, errors.MissingExport(name)
	}

	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.Fault(err, "call "+name)
	}
	if len(results) == 0 {
		return nil, errors.Fault(nil, name+" returned no results")
	}

	data, ok := readPacked(i.module, results[0])
	if !ok {
		return nil, errors.Fault(nil, name+" returned a null region")
	}

	var res guestResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, name+" result envelope")
	}
	if res.Err != nil {
		return nil, errors.GuestFailure(*res.Err)
	}
	return res.OK, nil
}

// Metadata reads the extension's identity from the guest.
func (i *Instance) Metadata(ctx context.Context) (protocol.Metadata, error) {
	fn := i.module.ExportedFunction("get_metadata")
	if fn == nil {
		return protocol.Metadata{}, errors.MissingExport("get_metadata")
	}

	results, err := fn.Call(ctx)
	if err != nil {
		return protocol.Metadata{}, errors.Fault(err, "call get_metadata")
	}
	if len(results) == 0 {
		return protocol.Metadata{}, errors.Fault(nil, "get_metadata returned no results")
	}

	data, ok := readPacked(i.module, results[0])
	if !ok {
		return protocol.Metadata{}, errors.Fault(nil, "get_metadata returned a null region")
	}

	var md protocol.Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return protocol.Metadata{}, errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "metadata")
	}
	return md, nil
}

// NewInstance runs the guest constructor with the given config JSON and
// stores the returned handle for subsequent Update and View calls.
func (i *Instance) NewInstance(ctx context.Context, config string) error {
	if config == "" {
		config = "{}"
	}

	arg, err := writeToGuest(ctx, i.module, []byte(config))
	if err != nil {
		return err
	}

	ptr, length := unpack(arg)
	raw, err := i.callPacked(ctx, "new", uint64(ptr), uint64(length))
	if err != nil {
		if msg, ok := errors.GuestMessage(err); ok {
			return errors.ConstructorFailed(nil, msg)
		}
		return err
	}

	var handle uint64
	if err := json.Unmarshal(raw, &handle); err != nil {
		return errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "constructor handle")
	}

	i.handle = handle
	i.built = true
	return nil
}

// Update sends one command JSON to the guest and returns the response JSON.
func (i *Instance) Update(ctx context.Context, command string) (string, error) {
	if !i.built {
		return "", errors.Fault(nil, "update before constructor")
	}

	arg, err := writeToGuest(ctx, i.module, []byte(command))
	if err != nil {
		return "", err
	}

	ptr, length := unpack(arg)
	raw, err := i.callPacked(ctx, "update", i.handle, uint64(ptr), uint64(length))
	if err != nil {
		return "", err
	}

	var response string
	if err := json.Unmarshal(raw, &response); err != nil {
		return "", errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "update result")
	}
	return response, nil
}

// View returns a snapshot of guest state for diagnostics. Extensions that
// do not export view report a missing export.
func (i *Instance) View(ctx context.Context) (string, error) {
	if i.module.ExportedFunction("view") == nil {
		return "", errors.MissingExport("view")
	}
	if !i.built {
		return "", errors.Fault(nil, "view before constructor")
	}

	raw, err := i.callPacked(ctx, "view", i.handle)
	if err != nil {
		return "", err
	}

	var state string
	if err := json.Unmarshal(raw, &state); err != nil {
		return "", errors.Wrap(errors.PhaseProtocol, errors.KindDecodeFailed, err, "view result")
	}
	return state, nil
}

// Close releases the guest module. The engine runtime stays usable.
func (i *Instance) Close(ctx context.Context) error {
	return i.module.Close(ctx)
}

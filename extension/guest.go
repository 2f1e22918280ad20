package extension

import (
	"context"

	"github.com/wippyai/extension-host/protocol"
)

// Guest is the surface the session loop drives. The engine's wasm-backed
// instance implements it; tests substitute in-process fakes.
type Guest interface {
	// Metadata reads the extension's identity.
	Metadata(ctx context.Context) (protocol.Metadata, error)

	// NewInstance runs the extension constructor with config JSON.
	NewInstance(ctx context.Context, config string) error

	// Update processes one command JSON and returns the response JSON.
	Update(ctx context.Context, command string) (string, error)

	// View returns a diagnostic snapshot of guest state.
	View(ctx context.Context) (string, error)

	// Close releases guest resources.
	Close(ctx context.Context) error
}

package extension

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wippyai/extension-host/errors"
)

// Extension is a loaded-but-not-running extension: raw binary plus the
// config JSON its constructor will receive. Bytes is shared by reference,
// so an Extension is cheap to copy and can be started multiple times.
type Extension struct {
	ID     string
	Config string
	Bytes  []byte
}

// Load reads an extension binary from disk. Path may be the .wasm file
// itself or a directory containing extension.wasm.
func Load(id, config, path string) (*Extension, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.ExtensionNotFound(path)
	}
	if info.IsDir() {
		path = filepath.Join(path, "extension.wasm")
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, errors.ExtensionNotFound(path)
		}
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindExtensionNotFound, err, path)
	}

	return &Extension{ID: id, Config: config, Bytes: bytes}, nil
}

// New wraps in-memory wasm bytes as an Extension.
func New(id, config string, bytes []byte) *Extension {
	return &Extension{ID: id, Config: config, Bytes: bytes}
}

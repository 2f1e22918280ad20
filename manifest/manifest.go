package manifest

import (
	"context"
	"encoding/json"
)

// Manifest describes one loadable extension. ID is the identity key and
// must be unique within a discovery scan. Schema carries the extension's
// self-declared tool schema verbatim; the host never interprets it.
type Manifest struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Version     string          `json:"version" yaml:"version"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Provider    string          `json:"provider,omitempty" yaml:"provider,omitempty"`
	Schema      json.RawMessage `json:"schema,omitempty" yaml:"-"`
}

// Entry pairs a discovered manifest with the binary path it names.
type Entry struct {
	Path     string
	Manifest Manifest
}

// Discovery produces extension entries found under a root directory.
//
// Implementations scan at most two directory levels below the root for
// descriptor files. Malformed descriptors are skipped, not reported:
// Entries returns only the manifests that parsed. A Discovery is
// restartable; each Entries call performs a fresh scan.
type Discovery interface {
	Entries(ctx context.Context) ([]Entry, error)
}

package engine

import (
	"context"
	stderrors "errors"
	"testing"

	hosterrors "github.com/wippyai/extension-host/errors"
)

// emptyModule is the smallest valid core wasm binary: magic plus version.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestPackUnpack(t *testing.T) {
	tests := []struct {
		name   string
		ptr    uint32
		length uint32
	}{
		{"zero", 0, 0},
		{"small", 16, 4},
		{"large offsets", 0xFFFF0000, 0x0000FFFF},
		{"max", 0xFFFFFFFF, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := pack(tt.ptr, tt.length)
			ptr, length := unpack(packed)
			if ptr != tt.ptr || length != tt.length {
				t.Errorf("roundtrip (%d, %d) = (%d, %d)", tt.ptr, tt.length, ptr, length)
			}
		})
	}
}

func TestNewAndClose(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if e.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if err := e.Close(ctx); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestInstantiateInvalidBinary(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer e.Close(ctx)

	_, err = e.Instantiate(ctx, []byte("not a wasm module"))
	if err == nil {
		t.Fatal("expected error for garbage bytes")
	}

	var he *hosterrors.Error
	if !stderrors.As(err, &he) {
		t.Fatalf("expected structured error, got %T", err)
	}
	if he.Kind != hosterrors.KindInvalidBinary {
		t.Errorf("Kind = %q, want %q", he.Kind, hosterrors.KindInvalidBinary)
	}
	if he.Phase != hosterrors.PhaseLoad {
		t.Errorf("Phase = %q, want %q", he.Phase, hosterrors.PhaseLoad)
	}
}

func TestInstantiateMissingExports(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer e.Close(ctx)

	// A valid but empty module compiles fine and lacks the extension surface.
	_, err = e.Instantiate(ctx, emptyModule)
	if err == nil {
		t.Fatal("expected error for module without exports")
	}

	var he *hosterrors.Error
	if !stderrors.As(err, &he) {
		t.Fatalf("expected structured error, got %T", err)
	}
	if he.Kind != hosterrors.KindMissingExport {
		t.Errorf("Kind = %q, want %q", he.Kind, hosterrors.KindMissingExport)
	}
}

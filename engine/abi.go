package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/extension-host/errors"
)

// pack combines a guest memory pointer and length into the wire u64.
func pack(ptr, length uint32) uint64 {
	return uint64(ptr)<<32 | uint64(length)
}

// unpack splits a packed u64 into pointer and length.
func unpack(packed uint64) (ptr, length uint32) {
	return uint32(packed >> 32), uint32(packed)
}

// readPacked copies the region a packed value points at out of guest memory.
func readPacked(m api.Module, packed uint64) ([]byte, bool) {
	ptr, length := unpack(packed)
	if ptr == 0 && length == 0 {
		return nil, false
	}
	return m.Memory().Read(ptr, length)
}

// writeToGuest allocates guest memory via the allocate export, copies data
// into it, and returns the packed pointer. The guest owns the region after
// the call returns.
func writeToGuest(ctx context.Context, m api.Module, data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, nil
	}

	allocate := m.ExportedFunction("allocate")
	if allocate == nil {
		return 0, errors.MissingExport("allocate")
	}

	results, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, errors.Fault(err, "guest allocate")
	}
	if len(results) == 0 {
		return 0, errors.Fault(nil, "guest allocate returned no results")
	}

	ptr := uint32(results[0])
	if !m.Memory().Write(ptr, data) {
		return 0, errors.Fault(nil, "write to guest memory out of range")
	}
	return pack(ptr, uint32(len(data))), nil
}

// Package compress turns a finished tar container into the compressed
// output file. Backends must be deterministic: the same container
// always yields the same output bytes.
package compress

import (
	"context"
	"errors"
	"fmt"
)

var ErrToolchainMissing = errors.New("compressor not found")

type Compressor interface {
	Name() string
	// Compress reads the file at src and writes the compressed result
	// to dst, replacing anything already there.
	Compress(ctx context.Context, src, dst string) error
}

// ExitError is returned when an external compressor exits non-zero.
type ExitError struct {
	Tool   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s failed with status %d", e.Tool, e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

const (
	BackendZstd    = "zstd"
	BackendBuiltin = "builtin"
)

// New returns the compressor registered under backend.
func New(backend, binary string, level int) (Compressor, error) {
	switch backend {
	case BackendZstd, "":
		return &Zstd{Binary: binary, Level: level}, nil
	case BackendBuiltin:
		return &Builtin{Level: level}, nil
	}
	return nil, fmt.Errorf(
		"unknown compressor %q (want %s or %s)",
		backend, BackendZstd, BackendBuiltin,
	)
}

package compress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

const (
	DefaultBinary = "zstd"
	MaxLevel      = 22
	ultraLevel    = 19
)

// Zstd runs the external zstd command. It is pinned to a single
// worker thread so the frame layout never depends on the host.
type Zstd struct {
	Binary string
	Level  int
}

func (z *Zstd) Name() string {
	return z.binary()
}

func (z *Zstd) binary() string {
	if z.Binary == "" {
		return DefaultBinary
	}
	return z.Binary
}

func (z *Zstd) level() int {
	if z.Level <= 0 {
		return MaxLevel
	}
	return z.Level
}

func (z *Zstd) Args(src, dst string) []string {
	args := []string{"-q", "-f", "-T1"}
	if z.level() > ultraLevel {
		args = append(args, "--ultra")
	}
	args = append(args,
		"-"+strconv.Itoa(z.level()),
		src, "-o", dst,
	)
	return args
}

func (z *Zstd) Compress(
	ctx context.Context, src, dst string,
) error {
	bin, err := exec.LookPath(z.binary())
	if err != nil {
		return fmt.Errorf(
			"%w: %s: %v", ErrToolchainMissing, z.binary(), err,
		)
	}

	args := z.Args(src, dst)
	slog.Debug("running compressor",
		"bin", bin, "args", strings.Join(args, " "),
	)

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", z.binary(), ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{
				Tool:   z.binary(),
				Code:   exitErr.ExitCode(),
				Stderr: strings.TrimSpace(stderr.String()),
			}
		}
		return fmt.Errorf("run %s: %w", z.binary(), err)
	}
	return nil
}

package compress

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Builtin compresses in process with the pure Go zstd encoder. Output
// is stable across runs and hosts but is not byte-identical to the
// zstd command line tool. Level uses zstd command line numbering and
// is mapped onto the encoder's coarser speed levels; zero means best.
type Builtin struct {
	Level int
}

func (Builtin) Name() string {
	return BackendBuiltin
}

func (b Builtin) EncoderLevel() zstd.EncoderLevel {
	if b.Level <= 0 {
		return zstd.SpeedBestCompression
	}
	return zstd.EncoderLevelFromZstd(b.Level)
}

func (b Builtin) Compress(
	ctx context.Context, src, dst string,
) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open container: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if err := encode(ctx, out, in, b.EncoderLevel()); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}

func encode(
	ctx context.Context,
	w io.Writer,
	r io.Reader,
	level zstd.EncoderLevel,
) error {
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderCRC(true),
	)
	if err != nil {
		return fmt.Errorf("zstd encoder: %w", err)
	}

	if _, err := io.Copy(enc, ctxReader{ctx, r}); err != nil {
		enc.Close()
		return fmt.Errorf("compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Package builder runs one archive build end to end: merge the
// manifests, collect and order the entries, write the tar container to
// a temporary file and hand it to a compressor. The output path is only
// ever touched by a final rename, so a failed build leaves nothing
// behind.
package builder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rillanetwork/tarzst/pkg/compress"
	"github.com/rillanetwork/tarzst/pkg/manifest"
	"github.com/rillanetwork/tarzst/pkg/pack"
)

// OutputMode is the permission of the published archive.
const OutputMode = 0o644

type Options struct {
	Output     string
	Configs    []string
	Compressor compress.Compressor
	// Index makes Build read the container back and return its
	// listing in Result.Index.
	Index bool
	// TempDir holds the uncompressed container. Empty means
	// os.TempDir.
	TempDir string
}

type Result struct {
	Output  string
	Entries int
	Size    int64
	Index   []pack.IndexEntry
}

func Build(ctx context.Context, opts Options) (*Result, error) {
	if opts.Output == "" {
		return nil, errors.New("no output path")
	}
	if len(opts.Configs) == 0 {
		return nil, errors.New("no config files")
	}
	if opts.Compressor == nil {
		opts.Compressor = &compress.Zstd{}
	}

	m, err := manifest.Merge(opts.Configs...)
	if err != nil {
		return nil, err
	}
	entries, err := m.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	entries, err = pack.Dedupe(entries)
	if err != nil {
		return nil, err
	}
	slog.Debug("collected entries",
		"count", len(entries),
		"mappings", len(m.Directories)+len(m.Files),
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	container, err := os.CreateTemp(opts.TempDir, "tarzst-*.tar")
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	defer os.Remove(container.Name())
	slog.Debug("writing container", "path", container.Name())

	count, err := writeContainer(ctx, container, entries)
	if err != nil {
		return nil, err
	}

	res := &Result{Output: opts.Output, Entries: count}
	if opts.Index {
		res.Index, err = readIndex(container.Name())
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size, err := publish(
		ctx, opts.Compressor, container.Name(), opts.Output,
	)
	if err != nil {
		return nil, err
	}
	res.Size = size
	return res, nil
}

func writeContainer(
	ctx context.Context,
	f *os.File,
	entries []pack.Entry,
) (int, error) {
	bw := bufio.NewWriterSize(f, 1<<20)
	count, err := pack.WriteTar(ctx, bw, entries)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("write container: %w", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return 0, fmt.Errorf("write container: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close container: %w", err)
	}
	return count, nil
}

func readIndex(path string) ([]pack.IndexEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	defer f.Close()
	idx, err := pack.Index(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("index container: %w", err)
	}
	return idx, nil
}

// publish compresses src into a temporary file next to dst and renames
// it into place.
func publish(
	ctx context.Context,
	c compress.Compressor,
	src, dst string,
) (int64, error) {
	dir, base := filepath.Split(dst)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	slog.Debug("compressing",
		"compressor", c.Name(), "src", src, "dst", tmpPath,
	)
	if err := c.Compress(ctx, src, tmpPath); err != nil {
		return 0, err
	}

	if err := os.Chmod(tmpPath, OutputMode); err != nil {
		return 0, fmt.Errorf("chmod output: %w", err)
	}
	info, err := os.Stat(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("stat output: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return 0, fmt.Errorf("rename output: %w", err)
	}
	return info.Size(), nil
}

package pack

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/rillanetwork/tarzst/pkg/paths"
)

// SortEntries orders entries by the member name stored in the
// container, so directory members sort with their trailing "/". This
// is the only thing that decides member order.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].MemberName() < entries[j].MemberName()
	})
}

// Dedupe sorts entries and drops repeats of the same source under the
// same name. Two different sources claiming one name is an error.
func Dedupe(entries []Entry) ([]Entry, error) {
	SortEntries(entries)

	out := entries[:0]
	for _, e := range entries {
		if n := len(out); n > 0 &&
			out[n-1].MemberName() == e.MemberName() {
			prev := out[n-1]
			if filepath.Clean(prev.Source) ==
				filepath.Clean(e.Source) {
				continue
			}
			return nil, fmt.Errorf(
				"%w %q: %s and %s",
				ErrDuplicateEntry, e.Name,
				prev.Source, e.Source,
			)
		}
		out = append(out, e)
	}
	return out, nil
}

// WriteTar writes entries, in the order given, as an uncompressed tar
// stream with normalized headers and closes the stream. ctx is checked
// before each entry.
func WriteTar(
	ctx context.Context,
	w io.Writer,
	entries []Entry,
) (int, error) {
	tw := tar.NewWriter(w)

	count := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if paths.Escapes(e.Name) {
			slog.Warn("archive name escapes archive root",
				"name", e.Name, "source", e.Source,
			)
		}
		if err := addEntry(tw, e); err != nil {
			return count, err
		}
		count++
	}

	if err := tw.Close(); err != nil {
		return count, fmt.Errorf("close tar: %w", err)
	}
	return count, nil
}

func addEntry(tw *tar.Writer, e Entry) error {
	hdr := Header(e)
	if e.Kind != KindRegular {
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write header %s: %w", e.Name, err)
		}
		return nil
	}

	f, err := os.Open(e.Source)
	if err != nil {
		return fmt.Errorf("open %s: %w", e.Source, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", e.Source, err)
	}
	if info.Size() != e.Size {
		return fmt.Errorf(
			"%w: %s (%d -> %d bytes)",
			ErrSizeChanged, e.Source, e.Size, info.Size(),
		)
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", e.Name, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("write body %s: %w", e.Name, err)
	}
	return nil
}

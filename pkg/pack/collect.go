package pack

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rillanetwork/tarzst/pkg/paths"
)

// CollectDir walks source and returns an entry for every regular file
// and symlink below it whose relative path has no excluded component.
// Symlinks are never followed, including symlinks to directories,
// which become a single leaf entry.
func CollectDir(
	ctx context.Context,
	source, target string,
	excludes []string,
) ([]Entry, error) {
	root, err := walkRoot(source)
	if err != nil {
		return nil, err
	}
	matcher := paths.NewExcludeMatcher(excludes)

	var entries []Entry
	skipped := 0
	err = filepath.WalkDir(
		root,
		func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("walk %s: %w", p, err)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if rel == "." {
				return nil
			}
			if matcher.Match(rel) {
				skipped++
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			e, err := statEntry(p, paths.JoinArchive(target, rel))
			if err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	slog.Debug("collected directory",
		"source", source,
		"target", target,
		"entries", len(entries),
		"excludes", matcher.Len(),
		"excluded", skipped,
	)
	return entries, nil
}

// CollectFile returns the single entry for a file mapping. The target
// is used as the archive name as written, apart from slash conversion
// and dropping a leading "/".
func CollectFile(source, target string) (Entry, error) {
	if _, err := os.Lstat(source); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, fmt.Errorf(
				"%w: %s", ErrMissingSource, source,
			)
		}
		return Entry{}, fmt.Errorf("stat %s: %w", source, err)
	}
	name := paths.TrimRoot(target)
	if name == "" {
		return Entry{}, fmt.Errorf(
			"empty archive name for %s", source,
		)
	}
	return statEntry(source, name)
}

func walkRoot(source string) (string, error) {
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf(
				"%w: %s", ErrMissingSource, source,
			)
		}
		return "", fmt.Errorf("stat %s: %w", source, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf(
			"%w: %s", ErrNotDirectory, source,
		)
	}

	// WalkDir does not descend into a symlinked root.
	linfo, err := os.Lstat(source)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", source, err)
	}
	if linfo.Mode()&fs.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(source)
		if err != nil {
			return "", fmt.Errorf(
				"resolve %s: %w", source, err,
			)
		}
		return resolved, nil
	}
	return source, nil
}

func statEntry(source, name string) (Entry, error) {
	info, err := os.Lstat(source)
	if err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", source, err)
	}

	e := Entry{
		Source: source,
		Name:   name,
		Mode:   info.Mode(),
	}
	switch mode := info.Mode(); {
	case mode.IsRegular():
		e.Kind = KindRegular
		e.Size = info.Size()
	case mode&fs.ModeSymlink != 0:
		link, err := os.Readlink(source)
		if err != nil {
			return Entry{}, fmt.Errorf(
				"readlink %s: %w", source, err,
			)
		}
		e.Kind = KindSymlink
		e.Linkname = filepath.ToSlash(link)
	case mode.IsDir():
		e.Kind = KindDirectory
	default:
		return Entry{}, fmt.Errorf(
			"%w: %s (%s)", ErrUnsupportedType, source, mode.Type(),
		)
	}
	return e, nil
}

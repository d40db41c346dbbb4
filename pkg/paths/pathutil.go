package paths

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

func ValidateRelPath(p string) error {
	if p == "" {
		return fmt.Errorf("empty path")
	}
	if strings.ContainsRune(p, 0) {
		return fmt.Errorf("path contains null byte")
	}
	if path.IsAbs(p) {
		return fmt.Errorf("absolute path not allowed: %s", p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return fmt.Errorf("path resolves to current directory")
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf(
			"path escapes base directory: %s", p,
		)
	}
	return nil
}

// ArchiveName converts a host path into archive syntax: forward
// slashes, no leading slash, no "." or empty components. ".."
// components are kept as written.
func ArchiveName(p string) string {
	p = filepath.ToSlash(p)
	parts := strings.Split(p, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "/")
}

// JoinArchive joins a target prefix and a relative path into an archive
// name. An empty prefix places the path at the archive root.
func JoinArchive(prefix, rel string) string {
	return ArchiveName(prefix + "/" + filepath.ToSlash(rel))
}

// TrimRoot converts p to forward slashes and drops leading slashes,
// leaving the rest of the name untouched.
func TrimRoot(p string) string {
	return strings.TrimLeft(filepath.ToSlash(p), "/")
}

// Escapes reports whether an archive name would land outside the
// extraction directory.
func Escapes(name string) bool {
	return ValidateRelPath(name) != nil
}

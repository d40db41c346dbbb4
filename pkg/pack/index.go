package pack

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"
)

// IndexEntry is one row of a container listing.
type IndexEntry struct {
	Name     string
	Kind     Kind
	Mode     int64
	Size     int64
	Linkname string
	Uid      int
	Gid      int
	Uname    string
	Gname    string
	ModTime  time.Time
}

// Index reads an uncompressed tar stream and returns its members in
// stream order. Bodies are skipped, nothing is extracted.
func Index(r io.Reader) ([]IndexEntry, error) {
	tr := tar.NewReader(r)

	var entries []IndexEntry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, fmt.Errorf("read tar: %w", err)
		}

		kind, err := headerKind(hdr)
		if err != nil {
			return entries, err
		}
		entries = append(entries, IndexEntry{
			Name:     hdr.Name,
			Kind:     kind,
			Mode:     hdr.Mode,
			Size:     hdr.Size,
			Linkname: hdr.Linkname,
			Uid:      hdr.Uid,
			Gid:      hdr.Gid,
			Uname:    hdr.Uname,
			Gname:    hdr.Gname,
			ModTime:  hdr.ModTime.UTC(),
		})
	}
	return entries, nil
}

func headerKind(hdr *tar.Header) (Kind, error) {
	switch hdr.Typeflag {
	case tar.TypeReg:
		return KindRegular, nil
	case tar.TypeSymlink:
		return KindSymlink, nil
	case tar.TypeDir:
		return KindDirectory, nil
	}
	return 0, fmt.Errorf(
		"%w in tar: %s (type %q)",
		ErrUnsupportedType, hdr.Name, hdr.Typeflag,
	)
}

// String renders the entry as one listing line, similar to tar -tv.
func (e IndexEntry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d/%d %8d %s %s",
		modeString(e.Kind, e.Mode),
		e.Uid, e.Gid, e.Size,
		e.ModTime.Format(time.RFC3339),
		e.Name,
	)
	if e.Kind == KindSymlink {
		fmt.Fprintf(&b, " -> %s", e.Linkname)
	}
	return b.String()
}

func modeString(k Kind, mode int64) string {
	m := fs.FileMode(mode).Perm()
	switch k {
	case KindDirectory:
		m |= fs.ModeDir
	case KindSymlink:
		m |= fs.ModeSymlink
	}
	return m.String()
}

package pack

import (
	"archive/tar"
	"io/fs"
	"time"
)

// CanonicalModTime is stamped on every archive member.
var CanonicalModTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	ModeFile       = 0o644
	ModeExecutable = ModeFile | 0o111
)

// NormalizeMode collapses raw permission bits to 0644 or 0755. Only
// the executable bits of the original mode survive, and directories
// are always 0755.
func NormalizeMode(kind Kind, raw fs.FileMode) int64 {
	if kind == KindDirectory || raw.Perm()&0o111 != 0 {
		return ModeExecutable
	}
	return ModeFile
}

// Header builds the tar header for e with all host and time specific
// metadata replaced by canonical values.
func Header(e Entry) *tar.Header {
	hdr := &tar.Header{
		Name:    e.MemberName(),
		Mode:    NormalizeMode(e.Kind, e.Mode),
		ModTime: CanonicalModTime,
		Uid:     0,
		Gid:     0,
		Uname:   "",
		Gname:   "",
	}
	switch e.Kind {
	case KindRegular:
		hdr.Typeflag = tar.TypeReg
		hdr.Size = e.Size
	case KindSymlink:
		hdr.Typeflag = tar.TypeSymlink
		hdr.Linkname = e.Linkname
	case KindDirectory:
		hdr.Typeflag = tar.TypeDir
	}
	return hdr
}

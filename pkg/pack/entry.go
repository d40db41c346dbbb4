package pack

import (
	"io/fs"
	"strings"
)

type Kind int

const (
	KindRegular Kind = iota
	KindSymlink
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindSymlink:
		return "symlink"
	case KindDirectory:
		return "directory"
	}
	return "unknown"
}

// Entry is one member of the archive: where it comes from on disk, the
// name it gets in the archive and the raw metadata seen at collection
// time. Mode is the unnormalized lstat mode.
type Entry struct {
	Source   string
	Name     string
	Kind     Kind
	Mode     fs.FileMode
	Linkname string
	Size     int64
}

// MemberName is the name as stored in the tar header. Directory
// members carry a trailing "/".
func (e Entry) MemberName() string {
	if e.Kind == KindDirectory && !strings.HasSuffix(e.Name, "/") {
		return e.Name + "/"
	}
	return e.Name
}

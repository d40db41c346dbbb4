package pack

import "errors"

var (
	ErrMissingSource   = errors.New("source does not exist")
	ErrNotDirectory    = errors.New("source is not a directory")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrDuplicateEntry  = errors.New("duplicate archive name")
	ErrSizeChanged     = errors.New("file changed size while archiving")
)

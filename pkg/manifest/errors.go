package manifest

import (
	"errors"
	"fmt"
)

var ErrInvalidMapping = errors.New("invalid mapping")

// ParseError reports a configuration document that is not well-formed
// structured data.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

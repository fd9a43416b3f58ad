package tree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey matches any UnknownKeyError via errors.Is.
var ErrUnknownKey = errors.New("unknown key")

// ErrKindMismatch matches any KindMismatchError via errors.Is.
var ErrKindMismatch = errors.New("scalar kind mismatch")

// UnknownKeyError lists every override path absent from the tree.
type UnknownKeyError struct {
	Paths []string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown key(s) in override: %s", strings.Join(e.Paths, ", "))
}

func (e *UnknownKeyError) Is(target error) bool { return target == ErrUnknownKey }

// KindMismatchError reports a value that cannot be stored at Path, either
// because it has the wrong shape (mapping vs scalar) or cannot be converted
// to the leaf's declared kind.
type KindMismatchError struct {
	Path   string
	Want   string
	Got    string
	Reason string
}

func (e *KindMismatchError) Error() string {
	msg := fmt.Sprintf("%s: expected %s, got %s", e.Path, e.Want, e.Got)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *KindMismatchError) Is(target error) bool { return target == ErrKindMismatch }

package director

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is matched by every *SyntaxError.
	ErrSyntax = errors.New("segment syntax error")
	// ErrInvalidFPS is returned when the frame rate is not positive.
	ErrInvalidFPS = errors.New("frames per second must be positive")
)

// SyntaxError describes a malformed segment expression. Fragment is the exact
// substring that could not be understood.
type SyntaxError struct {
	Fragment string
	Reason   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax: %s: %q", e.Reason, e.Fragment)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

func syntaxErr(fragment, format string, args ...any) error {
	return &SyntaxError{Fragment: fragment, Reason: fmt.Sprintf(format, args...)}
}

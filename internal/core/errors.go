package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds. Every compile error wraps exactly one of them, so
// callers can branch with errors.Is.
var (
	ErrUnsupportedType       = errors.New("unsupported type")
	ErrUnsupportedOperation  = errors.New("unsupported operation")
	ErrMissingRequiredOption = errors.New("missing required option")
	ErrInconsistentRequest   = errors.New("inconsistent request")
	ErrNameCollision         = errors.New("name collision")
	ErrInvalidIdentifier     = errors.New("invalid identifier")
)

// CompileError describes why a table or request could not be compiled.
// No plan is ever returned together with a CompileError.
type CompileError struct {
	Kind   error
	Table  string
	Object string
	Detail string
}

func (e *CompileError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Table != "" {
		fmt.Fprintf(&sb, " in table %q", e.Table)
	}
	if e.Object != "" {
		fmt.Fprintf(&sb, " (%s)", e.Object)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *CompileError) Unwrap() error { return e.Kind }

// Errorf builds a CompileError of the given kind.
func Errorf(kind error, table, object, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Table: table, Object: object, Detail: fmt.Sprintf(format, args...)}
}

// IsCompileError reports whether err carries a CompileError and returns it.
func IsCompileError(err error) (*CompileError, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

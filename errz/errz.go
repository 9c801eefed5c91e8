// Package errz defines the structured error type produced by the emitter.
package errz

import "fmt"

// ErrorKind represents the category of an emit error.
type ErrorKind int

const (
	// ErrInvariant indicates an internal invariant violation: the input
	// graph claimed well-formedness properties that did not hold. This is
	// an upstream bug; emission of the unit is aborted.
	ErrInvariant ErrorKind = iota
	// ErrMalformedGraph indicates the input graph failed structural
	// validation before emission started.
	ErrMalformedGraph
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrInvariant:
		return "invariant violation"
	case ErrMalformedGraph:
		return "malformed graph"
	default:
		return "error"
	}
}

// EmitError is a rich error carrying the function, block and byte offset
// at which emission failed.
type EmitError struct {
	Kind     ErrorKind
	Message  string
	FuncName string
	Block    int // -1 if not block-scoped
	Offset   int // byte offset at failure, -1 if unknown
	Cause    error
}

// Error implements the error interface.
func (e *EmitError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.FuncName != "" {
		msg += fmt.Sprintf(" (func %s", e.FuncName)
		if e.Block >= 0 {
			msg += fmt.Sprintf(", block %d", e.Block)
		}
		if e.Offset >= 0 {
			msg += fmt.Sprintf(", offset %d", e.Offset)
		}
		msg += ")"
	}
	return msg
}

// Unwrap returns the underlying cause of the error.
func (e *EmitError) Unwrap() error {
	return e.Cause
}

// Invariant creates an ErrInvariant error with a formatted message.
func Invariant(funcName string, block, offset int, format string, args ...any) *EmitError {
	return &EmitError{
		Kind:     ErrInvariant,
		Message:  fmt.Sprintf(format, args...),
		FuncName: funcName,
		Block:    block,
		Offset:   offset,
	}
}

// Malformed creates an ErrMalformedGraph error wrapping the validation
// findings.
func Malformed(funcName string, cause error) *EmitError {
	return &EmitError{
		Kind:     ErrMalformedGraph,
		Message:  cause.Error(),
		FuncName: funcName,
		Block:    -1,
		Offset:   -1,
		Cause:    cause,
	}
}

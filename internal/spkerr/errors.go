package spkerr

import (
	"errors"
	"fmt"
)

// Kind represents a category of packaging failure.
type Kind int

const (
	// KindUnknown is reported for errors that carry no Kind.
	KindUnknown Kind = iota
	// KindValidation marks malformed or ambiguous user input.
	KindValidation
	// KindResolution marks an arch or platform lookup failure.
	KindResolution
	// KindParse marks a version or file name pattern mismatch.
	KindParse
	// KindNetwork marks a transport failure or an unexpected HTTP status.
	KindNetwork
	// KindDownload marks a release binary that does not exist upstream.
	KindDownload
	// KindConfiguration marks a gap in the static tables or the settings.
	KindConfiguration
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindResolution:
		return "ResolutionError"
	case KindParse:
		return "ParseError"
	case KindNetwork:
		return "NetworkError"
	case KindDownload:
		return "DownloadError"
	case KindConfiguration:
		return "ConfigurationError"
	default:
		return "UnknownError"
	}
}

// Error is a classified packaging failure.
type Error struct {
	// Kind is the failure category.
	Kind Kind
	// Op names the operation that failed, e.g. "resolve platform".
	Op string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
	}

	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New classifies err under kind for the named operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}

// Newf is New with a formatted cause.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return New(kind, op, fmt.Errorf(format, args...))
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var spkErr *Error
	if errors.As(err, &spkErr) {
		return spkErr.Kind
	}

	return KindUnknown
}

// Is reports whether err's chain contains an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

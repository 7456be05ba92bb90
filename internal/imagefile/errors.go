package imagefile

import (
	"errors"
	"fmt"
)

// Kind tags why an image was rejected.
type Kind string

const (
	UnsupportedType   Kind = "UnsupportedType"
	TooLarge          Kind = "TooLarge"
	Corrupt           Kind = "Corrupt"
	InvalidDimensions Kind = "InvalidDimensions"
)

var (
	ErrUnsupportedType   = errors.New("unsupported image type")
	ErrTooLarge          = errors.New("image too large")
	ErrCorrupt           = errors.New("corrupt image")
	ErrInvalidDimensions = errors.New("invalid image dimensions")
)

func (k Kind) sentinel() error {
	switch k {
	case UnsupportedType:
		return ErrUnsupportedType
	case TooLarge:
		return ErrTooLarge
	case Corrupt:
		return ErrCorrupt
	case InvalidDimensions:
		return ErrInvalidDimensions
	}
	return nil
}

// Error is a tagged pipeline failure. errors.Is matches it against the
// sentinel of its kind.
type Error struct {
	Kind    Kind
	Details string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Errorf builds a tagged error with formatted details.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Details: fmt.Sprintf(format, args...)}
}

// CorruptError wraps a decode failure.
func CorruptError(stage string, err error) *Error {
	return &Error{Kind: Corrupt, Details: stage, Err: err}
}

// KindOf extracts the failure kind from err, or "" when err is untagged.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, k := range []Kind{UnsupportedType, TooLarge, Corrupt, InvalidDimensions} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return ""
}

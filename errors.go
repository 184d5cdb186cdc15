package substr

import (
	"errors"
	"fmt"
)

// MaxStringLen is the longest string, in bytes, a Collection can hold.
const MaxStringLen = 255

var (
	// ErrNoMaxStringLen indicates the input was empty, so no maximum
	// string length could be computed.
	ErrNoMaxStringLen = errors.New("substr: empty input has no maximum string length")

	// ErrStringTooLong indicates an input string exceeded MaxStringLen.
	// The concrete error is a *StringTooLongError.
	ErrStringTooLong = errors.New("substr: string too long")

	// ErrUnresolved indicates containment links that could never be
	// given a position. The concrete error is an *UnresolvedError.
	ErrUnresolved = errors.New("substr: unresolved containment links")

	// ErrBadVersion indicates the serialized collection version is not supported.
	ErrBadVersion = errors.New("substr: unsupported format version")

	// ErrChecksum indicates the serialized payload does not match its digest.
	ErrChecksum = errors.New("substr: payload checksum mismatch")

	// ErrCorrupt indicates decoded data violates a collection invariant.
	ErrCorrupt = errors.New("substr: corrupt data")
)

// StringTooLongError reports the longest input length when it exceeds MaxStringLen.
type StringTooLongError struct {
	Max int
}

func (e *StringTooLongError) Error() string {
	return fmt.Sprintf("substr: string of %d bytes exceeds limit of %d", e.Max, MaxStringLen)
}

// Is reports true for ErrStringTooLong.
func (e *StringTooLongError) Is(target error) bool { return target == ErrStringTooLong }

// UnresolvedError lists the ids whose containers never received a span.
type UnresolvedError struct {
	IDs []int
}

func (e *UnresolvedError) Error() string {
	if len(e.IDs) == 0 {
		return ErrUnresolved.Error()
	}
	return fmt.Sprintf("substr: %d containment links could not be resolved (first id %d)", len(e.IDs), e.IDs[0])
}

// Is reports true for ErrUnresolved.
func (e *UnresolvedError) Is(target error) bool { return target == ErrUnresolved }

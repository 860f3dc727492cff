package runs

import (
	"errors"
	"fmt"
)

// ParseError reports a malformed format string.
type ParseError struct {
	Message string
	Pos     int // byte offset into the format string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %d", e.Message, e.Pos)
}

// Array run errors
var (
	// ErrNotFound indicates that a search found no matching data.
	ErrNotFound = errors.New("no matching array found")

	// ErrIndexOutOfRange indicates an element index outside the array.
	ErrIndexOutOfRange = errors.New("element index out of range")

	// ErrTopLevelSource indicates an inner source aimed at element 0,
	// which is tracked by the run's own pointer sources.
	ErrTopLevelSource = errors.New("element 0 sources are top-level sources")

	// ErrNoInnerPointers indicates an inner source on an array without the ^ prefix.
	ErrNoInnerPointers = errors.New("array does not accept pointers to elements")
)

// Segment codec errors
var (
	// ErrNotEnum indicates that an enum's reference is not an array starting with text.
	ErrNotEnum = errors.New("enum reference is not a text array")

	// ErrNoEnumMatch indicates that no enum option matches the given text.
	ErrNoEnumMatch = errors.New("no matching enum option")

	// ErrBadValue indicates text that cannot be encoded into a segment.
	ErrBadValue = errors.New("invalid segment value")
)

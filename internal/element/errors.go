package element

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedElement is wrapped by every MalformedElementError
	ErrMalformedElement = errors.New("malformed element")
	// ErrOutOfOrderElement is wrapped by every OutOfOrderElementError
	ErrOutOfOrderElement = errors.New("out of order element")
	// ErrSequenceConsumed is returned when a sequence is iterated a second time
	ErrSequenceConsumed = errors.New("element sequence already consumed")
	// ErrOutOfSequence is returned when sequences are not drained nodes, ways, relations
	ErrOutOfSequence = errors.New("element sequences must be drained in node, way, relation order")
)

// MalformedElementError indicates a required attribute is missing or unparsable
type MalformedElementError struct {
	Kind  Kind   // element the attribute belongs to
	Child string // child element name, empty for the element itself
	ID    uint64 // id of the open record, 0 if unknown
	Attr  string
	Value string
	Err   error // parse error, nil if the attribute is missing
}

func (e *MalformedElementError) Error() string {
	where := e.Kind.String()
	if e.Child != "" {
		where += "/" + e.Child
	}
	if e.ID != 0 {
		where = fmt.Sprintf("%s (id %d)", where, e.ID)
	}
	if e.Err == nil {
		return fmt.Sprintf("malformed %s: missing attribute %q", where, e.Attr)
	}
	return fmt.Sprintf("malformed %s: attribute %s=%q: %v", where, e.Attr, e.Value, e.Err)
}

func (e *MalformedElementError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedElement}
	}
	return []error{ErrMalformedElement, e.Err}
}

// OutOfOrderElementError indicates an element of an earlier kind after a later kind started
type OutOfOrderElementError struct {
	Kind  Kind // element that was seen
	Phase Kind // kind being read at the time
}

func (e *OutOfOrderElementError) Error() string {
	return fmt.Sprintf("%s element found while reading %ss", e.Kind, e.Phase)
}

func (e *OutOfOrderElementError) Unwrap() error {
	return ErrOutOfOrderElement
}

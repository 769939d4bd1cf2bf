package base40

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. Test for them with errors.Is
var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidPairing  = errors.New("invalid quality for interval number")
	ErrUnrepresentable = errors.New("no spelling within two accidentals")
	ErrOutOfRange      = errors.New("outside MIDI note range")
)

// ParseError reports a pitch or interval name that could not be parsed
type ParseError struct {
	Kind   string // "pitch" or "interval"
	Name   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("base40: invalid %s name %q: %s", e.Kind, e.Name, e.Reason)
}

// Unwrap returns the error kind
func (e *ParseError) Unwrap() error {
	return e.Err
}

func pitchError(name, reason string) error {
	return &ParseError{Kind: "pitch", Name: name, Reason: reason, Err: ErrInvalidName}
}

func intervalError(name string, kind error, reason string) error {
	return &ParseError{Kind: "interval", Name: name, Reason: reason, Err: kind}
}

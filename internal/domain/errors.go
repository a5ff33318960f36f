package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks specs that reference missing fields or parameters.
	ErrConfiguration = errors.New("configuration error")
	// ErrDomainRange marks inverted or empty axis domains.
	ErrDomainRange = errors.New("domain range error")
)

// SpecError wraps a construction failure with its kind so callers can match
// it with errors.Is.
type SpecError struct {
	Kind error
	Msg  string
}

func (e *SpecError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *SpecError) Unwrap() error { return e.Kind }

// ConfigErrorf returns a SpecError of kind ErrConfiguration.
func ConfigErrorf(format string, args ...any) error {
	return &SpecError{Kind: ErrConfiguration, Msg: fmt.Sprintf(format, args...)}
}

// DomainRangeErrorf returns a SpecError of kind ErrDomainRange.
func DomainRangeErrorf(format string, args ...any) error {
	return &SpecError{Kind: ErrDomainRange, Msg: fmt.Sprintf(format, args...)}
}

package engine

import (
	"errors"
	"fmt"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

// Kind separates problems found before any work started from failures while
// converting.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConversion Kind = "conversion"
)

// ConversionError is the only error type Convert returns. Reason is meant for
// people; Err keeps the underlying cause for errors.Is / errors.As.
type ConversionError struct {
	Kind   Kind
	File   string
	Target model.Format
	Reason string
	Err    error
}

func (e *ConversionError) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("convert %s to %s: %s: %v", e.File, e.Target, e.Reason, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("convert %s to %s: %s", e.File, e.Target, e.Reason)
	default:
		return fmt.Sprintf("convert %s to %s: %v", e.File, e.Target, e.Err)
	}
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Message is the short human-readable explanation stored on queue items.
func (e *ConversionError) Message() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	case e.Reason != "":
		return e.Reason
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "conversion failed"
	}
}

// IsValidation reports whether err was raised before conversion started.
func IsValidation(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce) && ce.Kind == KindValidation
}

// failure is what converters return: a reason plus an optional cause. Convert
// turns it into a ConversionError carrying the file and target.
type failure struct {
	reason string
	err    error
}

func (f *failure) Error() string {
	if f.err == nil {
		return f.reason
	}
	return f.reason + ": " + f.err.Error()
}

func (f *failure) Unwrap() error {
	return f.err
}

func fail(reason string, err error) error {
	return &failure{reason: reason, err: err}
}

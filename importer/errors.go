package importer

import (
	"errors"
	"fmt"
)

// Sentinel errors for template import failures. Use errors.Is to test for them.
var (
	// ErrInvalidSource means the template source could not be located or opened.
	// It is reported before any parsing is attempted.
	ErrInvalidSource = errors.New("importer: template source cannot be opened")

	// ErrTemplate means the source was readable but is not a usable PDF:
	// it does not parse, or it is encrypted.
	ErrTemplate = errors.New("importer: invalid template")

	// ErrPageOutOfRange means the requested template page does not exist.
	ErrPageOutOfRange = errors.New("importer: template page out of range")
)

// ArgumentError reports a template source that cannot be opened at all.
type ArgumentError struct {
	Source string
	Err    error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("importer: template %s: %v", e.Source, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidSource) hold for every ArgumentError.
func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidSource }

// TemplateError reports a template that was read but cannot be imported.
type TemplateError struct {
	Source string
	Err    error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("importer: template %s: %v", e.Source, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTemplate) hold for every TemplateError.
func (e *TemplateError) Is(target error) bool { return target == ErrTemplate }

package pdftpl

import (
	"errors"
	"fmt"

	"github.com/lvillar/pdftpl/importer"
	"github.com/lvillar/pdftpl/reader"
)

// Sentinel errors for common failure conditions.
var (
	ErrNoFont       = errors.New("pdftpl: font has not been set")
	ErrNoPage       = errors.New("pdftpl: no page has been added")
	ErrInvalidParam = errors.New("pdftpl: invalid parameter")

	// ErrInvalidSource reports a template source that cannot be opened.
	ErrInvalidSource = importer.ErrInvalidSource
	// ErrTemplate reports a template that was read but is not a usable PDF.
	ErrTemplate = importer.ErrTemplate
	// ErrPageOutOfRange reports a template page number that does not exist.
	ErrPageOutOfRange = importer.ErrPageOutOfRange
	// ErrEncrypted reports an encrypted template. It always comes with ErrTemplate.
	ErrEncrypted = reader.ErrEncrypted
)

// PDFError represents an error that occurred during a specific document operation.
// It wraps an underlying error and includes the operation name for context.
type PDFError struct {
	Op  string // operation name, e.g. "StartNewPage", "Output"
	Err error  // underlying error
}

func (e *PDFError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdftpl.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pdftpl.%s: unknown error", e.Op)
}

func (e *PDFError) Unwrap() error {
	return e.Err
}

// newPDFError creates a new PDFError wrapping the given error with operation context.
func newPDFError(op string, err error) *PDFError {
	return &PDFError{Op: op, Err: err}
}

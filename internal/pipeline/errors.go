package pipeline

import (
	"errors"
	"fmt"

	"github.com/dgallion1/docsift/internal/output"
)

// Failure taxonomy for a batch run. Per-document failures are isolated and
// reported; only ErrNoSections fails the whole batch.
var (
	ErrMissingInput  = errors.New("input document missing")
	ErrExtraction    = errors.New("text extraction failed")
	ErrOracle        = errors.New("oracle call failed")
	ErrSerialization = output.ErrSerialization
	ErrNoSections    = errors.New("no document produced any section")
)

// DocumentError attributes a failure to one input document.
type DocumentError struct {
	Document string
	Err      error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: %v", e.Document, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

package ai

import "fmt"

// ExtractionError reports model output that could not be read as job postings.
type ExtractionError struct {
	Raw string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("context too big: unable to parse jobs: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

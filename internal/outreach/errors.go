package outreach

import (
	"errors"
	"fmt"

	"github.com/khrees2412/coldreach/pkg/models"
)

// ErrNoUser is returned when Process is called without an identified sender.
var ErrNoUser = errors.New("no user profile: create one with 'coldreach profile init'")

// InputError reports a URL that could not be fetched or produced no content.
type InputError struct {
	URL string
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %s: %v", e.URL, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// CompositionError reports a failure drafting the email for Job.
type CompositionError struct {
	Job models.JobPosting
	Err error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("compose email for %q: %v", e.Job.Role, e.Err)
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}

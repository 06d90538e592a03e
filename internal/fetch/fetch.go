package fetch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

// ErrServerError matches every StatusError carrying a 5xx status.
var ErrServerError = errors.New("server error")

// Page is a fetched HTML response.
type Page struct {
	URL       string
	Status    int
	Body      []byte
	FromCache bool
}

// Fetcher retrieves pages from the site. Non-2xx answers are returned as
// *StatusError.
type Fetcher interface {
	Get(ctx context.Context, url string) (Page, error)
	Post(ctx context.Context, url string, form url.Values) (Page, error)
}

type StatusError struct {
	Method string
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
}

func (e *StatusError) Unwrap() error {
	if e.Status >= 500 {
		return ErrServerError
	}
	return nil
}

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}

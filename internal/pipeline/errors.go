package pipeline

import (
	"errors"
	"fmt"
)

// FetchReason classifies why a single fetch attempt failed.
type FetchReason string

// Fetch failure reasons carried by FetchError.
const (
	ReasonNetwork   FetchReason = "network"
	ReasonTimeout   FetchReason = "timeout"
	ReasonBadStatus FetchReason = "bad_status"
	ReasonRender    FetchReason = "render"
)

// FetchError is a typed fetch failure. The failover controller treats every
// reason the same way: log and move to the next domain.
type FetchError struct {
	URL    string
	Reason FetchReason
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError wraps err with a reason and the URL being fetched.
func NewFetchError(url string, reason FetchReason, err error) *FetchError {
	return &FetchError{URL: url, Reason: reason, Err: err}
}

// AllDomainsExhaustedError is returned when every domain of a source failed.
// The source contributes zero items for this run.
type AllDomainsExhaustedError struct {
	SourceID string
	Attempts int
	LastErr  error
}

func (e *AllDomainsExhaustedError) Error() string {
	return fmt.Sprintf("source %s: all %d domains exhausted: %v", e.SourceID, e.Attempts, e.LastErr)
}

func (e *AllDomainsExhaustedError) Unwrap() error { return e.LastErr }

// InsufficientItemsError reports a source that extracted fewer items than its
// configured minimum. The runner uses it to trigger the backup source.
type InsufficientItemsError struct {
	SourceID string
	Got      int
	Want     int
}

func (e *InsufficientItemsError) Error() string {
	return fmt.Sprintf("source %s: %d items extracted, minimum is %d", e.SourceID, e.Got, e.Want)
}

// IsAllDomainsExhausted reports whether err wraps an AllDomainsExhaustedError.
func IsAllDomainsExhausted(err error) bool {
	var target *AllDomainsExhaustedError
	return errors.As(err, &target)
}

// IsInsufficientItems reports whether err wraps an InsufficientItemsError.
func IsInsufficientItems(err error) bool {
	var target *InsufficientItemsError
	return errors.As(err, &target)
}

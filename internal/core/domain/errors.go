package domain

import (
	"fmt"
	"strings"
)

// FailureKind tells configuration, transport and server problems apart.
type FailureKind string

const (
	KindInvalidRequest    FailureKind = "invalid_request"
	KindTransport         FailureKind = "transport"
	KindServer            FailureKind = "server"
	KindMalformedResponse FailureKind = "malformed_response"
)

// Failure is the error returned by validation and submission. Messages are
// human readable and ordered as they were found.
type Failure struct {
	Kind       FailureKind
	Messages   []string
	StatusCode int
	Body       string
	Cause      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, strings.Join(f.Messages, "; "))
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

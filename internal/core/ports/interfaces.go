package ports

import (
	"context"

	"flixcloud/internal/core/domain"
)

// PostRequest is a single POST to the transcoding service.
type PostRequest struct {
	URL     string
	Headers map[string]string
	Body    []byte
	Options domain.TransportOptions
}

// PostResponse is the raw outcome of a POST that reached the server.
type PostResponse struct {
	StatusCode int
	Body       []byte
}

// Transport defines the contract for sending job requests over HTTP.
type Transport interface {
	// Post sends the request and returns the status code and body.
	// Connection failures and timeouts are returned as errors; any HTTP
	// status, including 4xx and 5xx, is a response.
	Post(ctx context.Context, req PostRequest) (*PostResponse, error)
}

// BodySource defines the contract for reading one inbound notification body.
type BodySource interface {
	// ReadBody returns the raw payload as delivered.
	ReadBody(ctx context.Context) ([]byte, error)
}

package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flixcloud/internal/core/domain"
	"flixcloud/internal/core/ports"
	"flixcloud/internal/xmlenc"
)

// Client validates, serializes and submits job requests.
// A Client holds no per-request state; one JobRequest must not be sent
// from several goroutines at once.
type Client struct {
	transport ports.Transport
	endpoint  string
	logger    *zap.SugaredLogger
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint overrides the job submission URL.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.endpoint = url
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new Client. A nil transport is reported by Validate.
func NewClient(transport ports.Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		endpoint:  domain.DefaultEndpoint,
		logger:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks the request and the client. It returns a *domain.Failure
// listing every problem, or nil.
func (c *Client) Validate(req *domain.JobRequest) error {
	var errs []string
	if c.transport == nil {
		errs = append(errs, "transport is not installed.")
	}
	if req == nil {
		errs = append(errs, "job request is required.")
	} else {
		errs = append(errs, req.Validate()...)
	}

	if len(errs) > 0 {
		return &domain.Failure{Kind: domain.KindInvalidRequest, Messages: errs}
	}
	return nil
}

// Send validates and submits req. Invalid requests fail without a network
// call and a nil Submission. Once a request goes out, the Submission is
// always returned, even on failure, carrying the XML, status code and body
// for inspection. Every error is a *domain.Failure.
func (c *Client) Send(ctx context.Context, req *domain.JobRequest) (*domain.Submission, error) {
	if err := c.Validate(req); err != nil {
		c.logger.Infow("job request rejected", "error", err)
		return nil, err
	}

	sub := &domain.Submission{
		RequestID:  uuid.New().String(),
		RequestXML: req.XML(),
	}
	log := c.logger.With("request_id", sub.RequestID, "recipe_id", req.RecipeID)

	log.Infow("submitting job",
		"endpoint", c.endpoint,
		"trust_mode", req.Transport.TrustMode().String(),
		"timeout", req.Transport.Timeout,
	)

	resp, err := c.transport.Post(ctx, ports.PostRequest{
		URL: c.endpoint,
		Headers: map[string]string{
			"Accept":       "text/xml",
			"Content-Type": "application/xml",
		},
		Body:    []byte(sub.RequestXML),
		Options: req.Transport,
	})
	if err != nil {
		code := TransportErrorCode(err)
		log.Warnw("transport failure", "code", code, "error", err)
		return sub, &domain.Failure{
			Kind:     domain.KindTransport,
			Messages: []string{fmt.Sprintf("transport error (%s): %v", code, err)},
			Cause:    err,
		}
	}

	sub.StatusCode = resp.StatusCode
	sub.Body = resp.Body

	if err := decideResponse(sub); err != nil {
		log.Warnw("job submission failed", "status", sub.StatusCode, "error", err)
		return sub, err
	}

	log.Infow("job submitted", "status", sub.StatusCode, "job_id", sub.JobID, "initialized_job_at", sub.InitializedAt)
	return sub, nil
}

// decideResponse maps the status code and body onto the submission outcome.
func decideResponse(sub *domain.Submission) error {
	fail := func(kind domain.FailureKind, msg string) error {
		return &domain.Failure{Kind: kind, Messages: []string{msg}, StatusCode: sub.StatusCode, Body: string(sub.Body)}
	}

	switch sub.StatusCode {
	case http.StatusCreated:
		fields, err := responseFields(sub)
		if err != nil {
			return err
		}
		sub.JobID = strings.TrimSpace(fields["id"])
		sub.InitializedAt = strings.TrimSpace(fields["initialized-job-at"])
		sub.Success = true
		return nil

	case http.StatusOK:
		fields, err := responseFields(sub)
		if err != nil {
			return err
		}
		msg := strings.TrimSpace(fields["error"])
		if msg == "" {
			msg = "the server reported an error without a message (200)."
		}
		return fail(domain.KindServer, msg)

	case http.StatusFound:
		return fail(domain.KindServer, "redirection occurred; endpoint URL is misconfigured.")

	case http.StatusBadRequest:
		fields, err := responseFields(sub)
		if err != nil {
			return err
		}
		parts := make([]string, 0, 2)
		for _, key := range []string{"description", "error"} {
			if v := strings.TrimSpace(fields[key]); v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) == 0 {
			parts = append(parts, "bad request (400).")
		}
		return fail(domain.KindServer, strings.Join(parts, " "))

	case http.StatusUnauthorized:
		return fail(domain.KindServer, "access denied — invalid API key.")

	case http.StatusNotFound:
		return fail(domain.KindServer, "endpoint not found.")

	case http.StatusInternalServerError:
		return fail(domain.KindServer, "server-side failure.")

	default:
		code := "none"
		if sub.StatusCode != 0 {
			code = fmt.Sprint(sub.StatusCode)
		}
		result := "empty"
		if len(sub.Body) > 0 {
			result = fmt.Sprintf("%q", sub.Body)
		}
		return fail(domain.KindServer, fmt.Sprintf("an unknown error has occurred. Status code: %s. Result: %s.", code, result))
	}
}

func responseFields(sub *domain.Submission) (map[string]string, error) {
	fields, err := xmlenc.ParseFields(sub.Body)
	if err != nil {
		return nil, &domain.Failure{
			Kind:       domain.KindMalformedResponse,
			Messages:   []string{fmt.Sprintf("malformed response body (%d): %v", sub.StatusCode, err)},
			StatusCode: sub.StatusCode,
			Body:       string(sub.Body),
			Cause:      err,
		}
	}
	return fields, nil
}

package service

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flixcloud/internal/core/domain"
	"flixcloud/internal/core/ports"
)

type mockTransport struct {
	postFunc func(ctx context.Context, req ports.PostRequest) (*ports.PostResponse, error)
	calls    []ports.PostRequest
}

func (m *mockTransport) Post(ctx context.Context, req ports.PostRequest) (*ports.PostResponse, error) {
	m.calls = append(m.calls, req)
	return m.postFunc(ctx, req)
}

func respond(status int, body string) *mockTransport {
	return &mockTransport{postFunc: func(context.Context, ports.PostRequest) (*ports.PostResponse, error) {
		return &ports.PostResponse{StatusCode: status, Body: []byte(body)}, nil
	}}
}

func validRequest() *domain.JobRequest {
	req := domain.NewJobRequest("2j1l:kd3add:0:ivzf:2e1y", 99)
	req.SetInput("http://www.example.com/videos/input.mpg", "", "")
	req.SetOutput("ftp://www.example.com/httpdocs/videos/output.flv", "username", "password")
	return req
}

func requireFailure(t *testing.T, err error) *domain.Failure {
	t.Helper()
	require.Error(t, err)
	var f *domain.Failure
	require.True(t, errors.As(err, &f), "expected *domain.Failure, got %T", err)
	return f
}

func TestClient_Validate(t *testing.T) {
	t.Run("missing transport, key and recipe", func(t *testing.T) {
		f := requireFailure(t, NewClient(nil).Validate(domain.NewJobRequest("", 0)))
		assert.Equal(t, domain.KindInvalidRequest, f.Kind)
		assert.Equal(t, []string{
			"transport is not installed.",
			"API key is required.",
			"Recipe ID is required and must be an integer.",
		}, f.Messages)
	})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, NewClient(respond(201, "")).Validate(validRequest()))
	})
}

func TestClient_Send_NilRequest(t *testing.T) {
	tr := respond(201, "")
	sub, err := NewClient(tr).Send(context.Background(), nil)
	f := requireFailure(t, err)
	assert.Nil(t, sub)
	assert.Equal(t, domain.KindInvalidRequest, f.Kind)
	assert.Equal(t, []string{"job request is required."}, f.Messages)
	assert.Empty(t, tr.calls)
}

func TestClient_Send_InvalidMakesNoCall(t *testing.T) {
	tr := respond(201, "")
	req := validRequest()
	req.SetWatermark("", "", "p")

	sub, err := NewClient(tr).Send(context.Background(), req)
	f := requireFailure(t, err)
	assert.Nil(t, sub)
	assert.Equal(t, domain.KindInvalidRequest, f.Kind)
	assert.Equal(t, []string{
		"Watermark file url required.",
		"Watermark user needed (password supplied).",
	}, f.Messages)
	assert.Empty(t, tr.calls)
}

func TestClient_Send_Created(t *testing.T) {
	tr := respond(201, `<job><id>42</id><initialized-job-at>2024-01-01T00:00:00Z</initialized-job-at></job>`)
	req := validRequest()
	req.Transport = domain.TransportOptions{Insecure: true}

	sub, err := NewClient(tr).Send(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, sub.Success)
	assert.Equal(t, "42", sub.JobID)
	assert.Equal(t, "2024-01-01T00:00:00Z", sub.InitializedAt)
	assert.Equal(t, 201, sub.StatusCode)
	assert.NotEmpty(t, sub.RequestID)

	require.Len(t, tr.calls, 1)
	call := tr.calls[0]
	assert.Equal(t, domain.DefaultEndpoint, call.URL)
	assert.Equal(t, "text/xml", call.Headers["Accept"])
	assert.Equal(t, "application/xml", call.Headers["Content-Type"])
	assert.Equal(t, sub.RequestXML, string(call.Body))
	assert.True(t, call.Options.Insecure)
	assert.Contains(t, sub.RequestXML, "<api-key>2j1l:kd3add:0:ivzf:2e1y</api-key>")
}

func TestClient_Send_Endpoint(t *testing.T) {
	tr := respond(201, `<job><id>1</id></job>`)
	_, err := NewClient(tr, WithEndpoint("http://127.0.0.1:9999/jobs")).Send(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999/jobs", tr.calls[0].URL)
}

func TestClient_Send_StatusTable(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		kind     domain.FailureKind
		contains []string
	}{
		{"200 application error", 200, `<errors><error>Recipe does not exist</error></errors>`, domain.KindServer, []string{"Recipe does not exist"}},
		{"200 without message", 200, `<errors></errors>`, domain.KindServer, []string{"without a message"}},
		{"302", 302, "", domain.KindServer, []string{"redirection occurred", "misconfigured"}},
		{"400", 400, `<job><description>bad recipe</description><error>invalid</error></job>`, domain.KindServer, []string{"bad recipe", "invalid"}},
		{"401", 401, "", domain.KindServer, []string{"access denied"}},
		{"404", 404, "<html/>", domain.KindServer, []string{"endpoint not found"}},
		{"500", 500, "", domain.KindServer, []string{"server-side failure"}},
		{"unknown with body", 418, "teapot", domain.KindServer, []string{"418", `"teapot"`}},
		{"no status, no body", 0, "", domain.KindServer, []string{"none", "empty"}},
		{"201 malformed", 201, "<job><id>42</job>", domain.KindMalformedResponse, []string{"malformed response body (201)"}},
		{"200 not xml", 200, "oops", domain.KindMalformedResponse, []string{"malformed response body (200)"}},
		{"400 not xml", 400, "", domain.KindMalformedResponse, []string{"malformed response body (400)"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := respond(tc.status, tc.body)
			sub, err := NewClient(tr).Send(context.Background(), validRequest())

			f := requireFailure(t, err)
			assert.Equal(t, tc.kind, f.Kind)
			require.Len(t, f.Messages, 1)
			for _, s := range tc.contains {
				assert.Contains(t, f.Messages[0], s)
			}
			assert.Equal(t, tc.status, f.StatusCode)
			assert.Equal(t, tc.body, f.Body)

			require.NotNil(t, sub)
			assert.False(t, sub.Success)
			assert.Empty(t, sub.JobID)
			assert.Equal(t, tc.status, sub.StatusCode)
			assert.Len(t, tr.calls, 1, "no retry")
		})
	}
}

func TestClient_Send_FixedStatusMessages(t *testing.T) {
	cases := map[int]string{
		302: "redirection occurred; endpoint URL is misconfigured.",
		401: "access denied — invalid API key.",
		404: "endpoint not found.",
		500: "server-side failure.",
	}
	for status, want := range cases {
		_, err := NewClient(respond(status, "")).Send(context.Background(), validRequest())
		f := requireFailure(t, err)
		assert.Equal(t, []string{want}, f.Messages, "status %d", status)
	}
}

func TestClient_Send_TransportError(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "www.flixcloud.com", IsNotFound: true}}
	tr := &mockTransport{postFunc: func(context.Context, ports.PostRequest) (*ports.PostResponse, error) {
		return nil, errors.Wrap(dialErr, "failed to send request")
	}}

	sub, err := NewClient(tr).Send(context.Background(), validRequest())
	f := requireFailure(t, err)
	assert.Equal(t, domain.KindTransport, f.Kind)
	require.Len(t, f.Messages, 1)
	assert.True(t, strings.HasPrefix(f.Messages[0], "transport error (dns):"))
	assert.Zero(t, sub.StatusCode)
	assert.NotEmpty(t, sub.RequestXML)
	assert.Len(t, tr.calls, 1)

	var dnsErr *net.DNSError
	assert.True(t, errors.As(err, &dnsErr))
}

func TestTransportErrorCode(t *testing.T) {
	assert.Equal(t, "timeout", TransportErrorCode(errors.Wrap(context.DeadlineExceeded, "x")))
	assert.Equal(t, "canceled", TransportErrorCode(context.Canceled))
	assert.Equal(t, "dns", TransportErrorCode(&net.DNSError{Err: "no such host"}))
	assert.Equal(t, "network", TransportErrorCode(errors.New("boom")))
}

package httptransport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"flixcloud/internal/core/domain"
	"flixcloud/internal/core/ports"
)

// HTTPTransport implements ports.Transport using net/http.
// A client is built per call from the request's TransportOptions.
type HTTPTransport struct {
	base *http.Transport
}

// NewHTTPTransport creates a new HTTPTransport.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{base: http.DefaultTransport.(*http.Transport).Clone()}
}

// Post sends the request body and returns status and body of the response.
func (t *HTTPTransport) Post(ctx context.Context, req ports.PostRequest) (*ports.PostResponse, error) {
	client, err := t.client(req.Options)
	if err != nil {
		return nil, err
	}
	defer client.CloseIdleConnections()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	return &ports.PostResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

func (t *HTTPTransport) client(opts domain.TransportOptions) (*http.Client, error) {
	tlsConfig, err := TLSConfig(opts)
	if err != nil {
		return nil, err
	}

	tr := t.base.Clone()
	// Timeout bounds connection establishment as a whole; zero means none.
	tr.DialContext = (&net.Dialer{Timeout: opts.Timeout}).DialContext
	tr.TLSHandshakeTimeout = opts.Timeout
	tr.TLSClientConfig = tlsConfig

	return &http.Client{
		Transport: tr,
		// A redirect means the endpoint is wrong; surface the 3xx as is.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// TLSConfig builds the client TLS settings for the effective trust mode.
// Insecure wins over any configured CA.
func TLSConfig(opts domain.TransportOptions) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	switch opts.TrustMode() {
	case domain.TrustInsecure:
		cfg.InsecureSkipVerify = true
		return cfg, nil
	case domain.TrustDefault:
		return cfg, nil
	}

	pool := x509.NewCertPool()
	if opts.CAFile != "" {
		if err := appendPEMFile(pool, opts.CAFile); err != nil {
			return nil, err
		}
	}
	if opts.CADir != "" {
		if err := appendPEMDir(pool, opts.CADir); err != nil {
			return nil, err
		}
	}
	cfg.RootCAs = pool
	return cfg, nil
}

func appendPEMFile(pool *x509.CertPool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read certificate %s", path)
	}
	if !pool.AppendCertsFromPEM(data) {
		return errors.Newf("no certificates found in %s", path)
	}
	return nil
}

func appendPEMDir(pool *x509.CertPool, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "failed to read certificate directory %s", dir)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		if pool.AppendCertsFromPEM(data) {
			loaded++
		}
	}
	if loaded == 0 {
		return errors.Newf("no certificates found in %s", dir)
	}
	return nil
}

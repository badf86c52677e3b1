package service

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"syscall"

	"github.com/cockroachdb/errors"
)

// TransportErrorCode names the kind of network failure behind err:
// timeout, canceled, dns, connection_refused, tls or network.
func TransportErrorCode(err error) string {
	var dnsErr *net.DNSError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var netErr net.Error

	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection_refused"
	case errors.As(err, &unknownAuth), errors.As(err, &hostErr),
		errors.As(err, &certErr), errors.As(err, &recordErr):
		return "tls"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "network"
	}
}

package ping

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ErrorKind is the short classification recorded for a failed ping.
type ErrorKind string

const (
	KindTimeout          ErrorKind = "timeout"
	KindConnection       ErrorKind = "connection_error"
	KindDNS              ErrorKind = "dns_error"
	KindTLS              ErrorKind = "tls_error"
	KindCancelled        ErrorKind = "cancelled"
	KindInvalidRequest   ErrorKind = "invalid_request"
	KindUnexpectedStatus ErrorKind = "unexpected_status"
)

var (
	ErrTargetUnreachable = errors.New("target unreachable")
	ErrTargetRejected    = errors.New("target rejected request")
)

// maxDetail bounds the error text copied into a result.
const maxDetail = 200

// Result is the outcome of pinging one target.
type Result struct {
	Name       string    `json:"name"`
	OK         bool      `json:"ok"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      ErrorKind `json:"error,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	LatencyMS  int64     `json:"latency_ms"`
}

// Err returns nil for a successful ping, otherwise an error wrapping
// ErrTargetRejected or ErrTargetUnreachable.
func (r Result) Err() error {
	switch {
	case r.OK:
		return nil
	case r.Error == KindUnexpectedStatus:
		return errors.Wrapf(ErrTargetRejected, "%s: status %d", r.Name, r.StatusCode)
	default:
		return errors.Wrapf(ErrTargetUnreachable, "%s: %s", r.Name, r.Error)
	}
}

func latencyMS(d time.Duration) int64 {
	return d.Milliseconds()
}

// truncate cuts s to at most maxDetail bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxDetail {
		return s
	}

	cut := maxDetail
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// classify maps a transport error to an ErrorKind. ctx is the caller's
// context, used to tell a cancelled invocation apart from a per-call timeout.
func classify(ctx context.Context, err error) ErrorKind {
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return KindCancelled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	// Resolver failures, including resolver timeouts, are DNS problems.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if isTLSError(err) {
		return KindTLS
	}

	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}

	return KindConnection
}

func isTLSError(err error) bool {
	var (
		recordErr   tls.RecordHeaderError
		verifyErr   *tls.CertificateVerificationError
		authority   x509.UnknownAuthorityError
		hostname    x509.HostnameError
		invalidCert x509.CertificateInvalidError
		alert       tls.AlertError
	)

	return errors.As(err, &recordErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &authority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &invalidCert) ||
		errors.As(err, &alert)
}

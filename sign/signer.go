package sign

import (
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Time formats used in signatures. No sub-second precision anywhere.
const (
	v4TimeFormat    = "20060102T150405Z"
	v4DateFormat    = "20060102"
	v2ExpiresFormat = "2006-01-02T15:04:05Z"
	v4AuthAlgorithm = "AWS4-HMAC-SHA256"
	v2ExpiryWindow  = 120 * time.Second
	v2ContentType   = "application/x-www-form-urlencoded; charset=utf-8"
)

// ErrMissingCredentials is returned when the access key id or secret key is
// empty at signing time.
var ErrMissingCredentials = errors.New("credentials missing access key id or secret key")

// Signer signs Requests in place. The zero-configuration Signer from New is
// safe for concurrent use; signing reads but never mutates credentials.
type Signer struct {
	logger *slog.Logger
}

// Option configures a Signer.
type Option func(*Signer)

// WithLogger sets the logger for signing diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Signer) { s.logger = l }
}

// New returns a Signer.
func New(opts ...Option) *Signer {
	s := &Signer{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSigner = New()

// Sign signs req with the package default Signer.
func Sign(req *Request, now time.Time) error {
	return defaultSigner.Sign(req, now)
}

// Sign computes the signature for req at the given instant and embeds it in
// the request: an Authorization header for v4 services, or a Signature body
// parameter for the legacy v2 set. Exactly one of the two, chosen solely by
// req.Service.
func (s *Signer) Sign(req *Request, now time.Time) error {
	if req.Creds == nil || req.Creds.AccessKeyID == "" || req.Creds.SecretKey == "" {
		return ErrMissingCredentials
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("parsing request URL: %w", err)
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	scheme := SchemeForService(req.Service)
	s.logger.Debug("signing request",
		"service", req.Service, "region", req.Region, "scheme", scheme.String())

	switch scheme {
	case SchemeV2:
		return s.signV2(req, u, now)
	default:
		return s.signV4(req, u, now)
	}
}

// signV2 implements the legacy query-parameter procedure: the signature is
// computed over the sorted form parameters and appended to the body as a
// Signature parameter. The Authorization header is never touched.
func (s *Signer) signV2(req *Request, u *url.URL, now time.Time) error {
	params, err := url.ParseQuery(string(req.Body))
	if err != nil {
		return fmt.Errorf("parsing form body: %w", err)
	}

	req.Header.Set("Content-Type", v2ContentType)

	params.Set("AWSAccessKeyId", req.Creds.AccessKeyID)
	params.Set("Expires", now.UTC().Add(v2ExpiryWindow).Format(v2ExpiresFormat))
	params.Set("SignatureVersion", "2")
	params.Set("SignatureMethod", "HmacSHA256")
	if req.Creds.SessionToken != "" {
		params.Set("SecurityToken", req.Creds.SessionToken)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	stringToSign := strings.Join([]string{
		"POST",
		u.Host,
		path,
		CanonicalQuery(params),
	}, "\n")

	mac := hmacSHA256([]byte(req.Creds.SecretKey), []byte(stringToSign))
	signature := strings.TrimRight(base64.StdEncoding.EncodeToString(mac), " \t\r\n")
	params.Set("Signature", signature)

	req.Body = []byte(CanonicalQuery(params))
	return nil
}

// signV4 implements the header-based procedure: derive a scoped signing
// key, hash the canonical request, and emit the Authorization header.
func (s *Signer) signV4(req *Request, u *url.URL, now time.Time) error {
	utc := now.UTC()
	datetime := utc.Format(v4TimeFormat)
	date := utc.Format(v4DateFormat)
	scope := strings.Join([]string{date, req.Region, req.Service, "aws4_request"}, "/")

	contentHash := hashSHA256(req.Body)
	bodyMD5 := md5.Sum(req.Body)

	// Any stale Authorization from a previous signing attempt must not be
	// folded into the canonical headers.
	req.Header.Del("Authorization")
	if req.Header.Get("Host") == "" {
		req.Header.Set("Host", u.Host)
	}
	req.Header.Set("x-amz-content-sha256", contentHash)
	req.Header.Set("x-amz-date", datetime)
	req.Header.Set("Content-MD5", base64.StdEncoding.EncodeToString(bodyMD5[:]))
	if req.Creds.SessionToken != "" {
		req.Header.Set("x-amz-security-token", req.Creds.SessionToken)
	}

	canonicalHeaders, signedHeaders := CanonicalHeaders(req.Header)
	canonicalRequest := strings.Join([]string{
		req.Method,
		CanonicalPath(req.Service, u.Path),
		CanonicalQuery(u.Query()),
		canonicalHeaders,
		signedHeaders,
		contentHash,
	}, "\n")

	stringToSign := strings.Join([]string{
		v4AuthAlgorithm,
		datetime,
		scope,
		hashSHA256([]byte(canonicalRequest)),
	}, "\n")

	key := SigningKey(req.Creds.SecretKey, date, req.Region, req.Service)
	signature := fmt.Sprintf("%x", hmacSHA256(key, []byte(stringToSign)))

	req.Header.Set("Authorization", fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		v4AuthAlgorithm, req.Creds.AccessKeyID, scope, signedHeaders, signature))
	return nil
}

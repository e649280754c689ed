// Package sign computes AWS request signatures. Most services use Signature
// Version 4 (an Authorization header derived from a canonical request); a
// small frozen set of legacy services still require Signature Version 2
// (query parameters appended to a form-encoded body).
package sign

import (
	"net/http"

	"github.com/majorcontext/signet/credentials"
)

// Request describes an outbound HTTP API request to be signed. The caller
// owns it; Sign mutates Header and Body in place and retains nothing.
type Request struct {
	// Method is the HTTP verb. v2 signing always signs as POST.
	Method string
	// URL is the full request URL.
	URL string
	// Header holds the request headers. Sign adds the signature headers
	// here on the v4 path.
	Header http.Header
	// Body is the raw request body. The v2 path rewrites it with the
	// signed parameter set.
	Body []byte
	// Service is the AWS service name, e.g. "s3" or "iam". It selects the
	// signing scheme and participates in the v4 credential scope.
	Service string
	// Region participates in the v4 credential scope.
	Region string
	// Creds are the resolved credentials to sign with.
	Creds *credentials.Credentials
}

// Scheme is the signature algorithm for a service.
type Scheme int

const (
	// SchemeV4 is Signature Version 4, the general case.
	SchemeV4 Scheme = iota
	// SchemeV2 is the legacy query-parameter scheme.
	SchemeV2
)

// legacyServices is the closed set of services still on v2. Not
// configurable.
var legacyServices = map[string]struct{}{
	"sdb":          {},
	"importexport": {},
}

// SchemeForService returns the signing scheme mandated for a service.
func SchemeForService(service string) Scheme {
	if _, ok := legacyServices[service]; ok {
		return SchemeV2
	}
	return SchemeV4
}

func (s Scheme) String() string {
	switch s {
	case SchemeV2:
		return "v2"
	default:
		return "v4"
	}
}

// Package credentials resolves AWS account credentials from the environment,
// the shared credentials file, or the EC2 instance metadata service, in that
// order. The resolved Credentials value is read by the sign package on every
// request and is safe for concurrent use.
package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Identity is the caller identity returned by STS GetCallerIdentity.
type Identity struct {
	ARN     string
	Account string
}

// IdentityProvider looks up the caller identity for a set of credentials.
// The sts package provides the real implementation.
type IdentityProvider interface {
	CallerIdentity(ctx context.Context) (*Identity, error)
}

// Credentials holds a resolved set of AWS credentials. AccessKeyID,
// SecretKey, and SessionToken are set at construction and treated as
// immutable. The caller identity fields are filled lazily, at most once,
// on first use of UserARN or AccountNumber.
type Credentials struct {
	// AccessKeyID is the AWS access key id. Never empty after resolution.
	AccessKeyID string
	// SecretKey is the AWS secret access key. Never logged in full.
	SecretKey string
	// SessionToken accompanies temporary credentials. Empty for long-lived
	// keys.
	SessionToken string

	// mu serializes the lazy identity fill. Concurrent first callers block
	// while a single GetCallerIdentity call runs.
	mu      sync.Mutex
	arn     string
	account string
}

// New constructs Credentials from an access key id, secret key, and optional
// session token.
func New(accessKeyID, secretKey, sessionToken string) *Credentials {
	return &Credentials{
		AccessKeyID:  accessKeyID,
		SecretKey:    secretKey,
		SessionToken: sessionToken,
	}
}

// UserARN returns the caller's ARN, fetching it via p on first use.
// An ARN known at resolution time (AWS_USER_ARN, or the instance profile
// ARN from metadata) is returned without a lookup.
func (c *Credentials) UserARN(ctx context.Context, p IdentityProvider) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.arn != "" {
		return c.arn, nil
	}
	if err := c.fillIdentity(ctx, p); err != nil {
		return "", err
	}
	return c.arn, nil
}

// AccountNumber returns the caller's account number, fetching it via p on
// first use. A pre-seeded ARN does not suppress this fetch; only a cached
// account number does.
func (c *Credentials) AccountNumber(ctx context.Context, p IdentityProvider) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.account != "" {
		return c.account, nil
	}
	if err := c.fillIdentity(ctx, p); err != nil {
		return "", err
	}
	return c.account, nil
}

// fillIdentity performs the single GetCallerIdentity call and caches both
// fields. Callers must hold mu. A field already set is never overwritten.
func (c *Credentials) fillIdentity(ctx context.Context, p IdentityProvider) error {
	if p == nil {
		return fmt.Errorf("no identity provider configured")
	}
	id, err := p.CallerIdentity(ctx)
	if err != nil {
		return fmt.Errorf("looking up caller identity: %w", err)
	}
	if c.arn == "" {
		c.arn = id.ARN
	}
	if c.account == "" {
		c.account = id.Account
	}
	return nil
}

// String returns a redacted representation safe for diagnostics. The secret
// key and session token appear as short prefixes only.
func (c *Credentials) String() string {
	return fmt.Sprintf("Credentials{AccessKeyID: %s, SecretKey: %s, SessionToken: %s}",
		c.AccessKeyID, redact(c.SecretKey), redact(c.SessionToken))
}

// LogValue implements slog.LogValuer so credentials redact under any handler.
func (c *Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("access_key_id", c.AccessKeyID),
		slog.String("secret_key", redact(c.SecretKey)),
		slog.String("session_token", redact(c.SessionToken)),
	)
}

// redact keeps a four-character prefix of a secret value.
func redact(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// Environment variables consumed by the resolver.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvSessionToken    = "AWS_SESSION_TOKEN"
	EnvUserARN         = "AWS_USER_ARN"
	EnvCredentialsFile = "AWS_CONFIG_FILE"
	EnvDefaultProfile  = "AWS_DEFAULT_PROFILE"
	EnvProfile         = "AWS_PROFILE"
)

// DefaultProfile is the credentials file section used when no profile
// environment variable is set.
const DefaultProfile = "default"

// Required keys within a credentials file section.
const (
	fileKeyAccessKeyID = "aws_access_key_id"
	fileKeySecretKey   = "aws_secret_access_key"
)

// MetadataClient is the subset of the imds client the resolver needs.
// Satisfied by *imds.Client; faked in tests.
type MetadataClient interface {
	// Available reports whether the process runs on a genuine EC2 instance
	// with a reachable metadata endpoint. Checked before any fetch.
	Available(ctx context.Context) bool
	// Fetch returns the raw body for a meta-data key.
	Fetch(ctx context.Context, key string) (string, error)
}

// Resolver tries the credential sources in priority order: environment,
// credentials file, instance metadata. The first source whose trigger fires
// wins; a triggered source that then fails aborts resolution rather than
// falling through.
type Resolver struct {
	meta    MetadataClient
	logger  *slog.Logger
	homeDir string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMetadataClient sets the instance metadata client. Without one the
// metadata source is never triggered.
func WithMetadataClient(m MetadataClient) ResolverOption {
	return func(r *Resolver) { r.meta = m }
}

// WithLogger sets the logger for resolution diagnostics. Secret values are
// redacted regardless of handler.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// WithHomeDir overrides the home directory used for the default credentials
// file path.
func WithHomeDir(dir string) ResolverOption {
	return func(r *Resolver) { r.homeDir = dir }
}

// NewResolver returns a Resolver. By default it logs nowhere and has no
// metadata client.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks the source chain and returns the first match.
func (r *Resolver) Resolve(ctx context.Context) (*Credentials, error) {
	if os.Getenv(EnvAccessKeyID) != "" {
		return r.fromEnv()
	}

	path := r.credentialsFilePath()
	if _, err := os.Stat(path); err == nil {
		return r.fromFile(path)
	}

	if r.meta != nil && r.meta.Available(ctx) {
		return r.fromMetadata(ctx)
	}

	return nil, ErrNotFound
}

// fromEnv reads credentials from the environment. The access key id presence
// was the trigger; a missing secret key is a configuration error, not a
// reason to try the next source.
func (r *Resolver) fromEnv() (*Credentials, error) {
	accessKey := os.Getenv(EnvAccessKeyID)
	secretKey := os.Getenv(EnvSecretAccessKey)
	if secretKey == "" {
		return nil, fmt.Errorf("%s is set but %s is missing", EnvAccessKeyID, EnvSecretAccessKey)
	}

	c := New(accessKey, secretKey, os.Getenv(EnvSessionToken))
	c.arn = os.Getenv(EnvUserARN)

	r.logger.Debug("resolved credentials from environment", "credentials", c)
	return c, nil
}

// fromFile reads the selected profile from an INI credentials file.
func (r *Resolver) fromFile(path string) (*Credentials, error) {
	profile := profileName()

	f, err := ini.Load(path)
	if err != nil {
		return nil, &FileError{Path: path, Profile: profile, Cause: err}
	}

	section, err := f.GetSection(profile)
	if err != nil {
		return nil, &FileError{Path: path, Profile: profile, Cause: fmt.Errorf("profile not found")}
	}

	accessKey, err := section.GetKey(fileKeyAccessKeyID)
	if err != nil {
		return nil, &FileError{Path: path, Profile: profile, Cause: fmt.Errorf("missing %s", fileKeyAccessKeyID)}
	}
	secretKey, err := section.GetKey(fileKeySecretKey)
	if err != nil {
		return nil, &FileError{Path: path, Profile: profile, Cause: fmt.Errorf("missing %s", fileKeySecretKey)}
	}

	c := New(accessKey.String(), secretKey.String(), "")
	r.logger.Debug("resolved credentials from file", "path", path, "profile", profile, "credentials", c)
	return c, nil
}

// instanceProfileInfo is the iam/info metadata document.
type instanceProfileInfo struct {
	InstanceProfileArn string
}

// securityCredentials is the iam/security-credentials/<name> document.
type securityCredentials struct {
	AccessKeyId     string
	SecretAccessKey string
	Token           string
}

// fromMetadata fetches temporary credentials for the attached instance
// profile from the metadata endpoint.
func (r *Resolver) fromMetadata(ctx context.Context) (*Credentials, error) {
	rawInfo, err := r.meta.Fetch(ctx, "iam/info")
	if err != nil {
		return nil, fmt.Errorf("fetching instance profile info: %w", err)
	}
	var info instanceProfileInfo
	if err := json.Unmarshal([]byte(rawInfo), &info); err != nil {
		return nil, fmt.Errorf("parsing instance profile info: %w", err)
	}

	names, err := r.meta.Fetch(ctx, "iam/security-credentials/")
	if err != nil {
		return nil, fmt.Errorf("fetching instance profile name: %w", err)
	}
	name, _, _ := strings.Cut(strings.TrimSpace(names), "\n")
	if name == "" {
		return nil, fmt.Errorf("no instance profile attached")
	}

	rawCreds, err := r.meta.Fetch(ctx, "iam/security-credentials/"+name)
	if err != nil {
		return nil, fmt.Errorf("fetching credentials for profile %s: %w", name, err)
	}
	var sc securityCredentials
	if err := json.Unmarshal([]byte(rawCreds), &sc); err != nil {
		return nil, fmt.Errorf("parsing credentials for profile %s: %w", name, err)
	}

	c := New(sc.AccessKeyId, sc.SecretAccessKey, sc.Token)
	c.arn = info.InstanceProfileArn

	r.logger.Debug("resolved credentials from instance metadata", "profile", name, "credentials", c)
	return c, nil
}

// credentialsFilePath returns the override path or the per-user default.
func (r *Resolver) credentialsFilePath() string {
	if path := os.Getenv(EnvCredentialsFile); path != "" {
		return path
	}
	home := r.homeDir
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".aws", "credentials")
}

// profileName resolves the credentials file section to read.
func profileName() string {
	if p := os.Getenv(EnvDefaultProfile); p != "" {
		return p
	}
	if p := os.Getenv(EnvProfile); p != "" {
		return p
	}
	return DefaultProfile
}

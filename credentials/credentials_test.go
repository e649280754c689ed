package credentials

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

// mockIdentityProvider fakes the STS lookup with an injectable fn.
type mockIdentityProvider struct {
	calls      atomic.Int64
	identityFn func(ctx context.Context) (*Identity, error)
}

func (m *mockIdentityProvider) CallerIdentity(ctx context.Context) (*Identity, error) {
	m.calls.Add(1)
	if m.identityFn != nil {
		return m.identityFn(ctx)
	}
	return &Identity{
		ARN:     "arn:aws:iam::123456789012:user/alice",
		Account: "123456789012",
	}, nil
}

func TestCredentials_UserARN_LazyFill(t *testing.T) {
	c := New("AKIDEXAMPLE", "secret", "")
	p := &mockIdentityProvider{}

	arn, err := c.UserARN(context.Background(), p)
	if err != nil {
		t.Fatalf("UserARN() error = %v", err)
	}
	if want := "arn:aws:iam::123456789012:user/alice"; arn != want {
		t.Errorf("UserARN() = %q, want %q", arn, want)
	}

	// Second call must come from the cache.
	if _, err := c.UserARN(context.Background(), p); err != nil {
		t.Fatalf("UserARN() second call error = %v", err)
	}
	if got := p.calls.Load(); got != 1 {
		t.Errorf("identity provider called %d times, want 1", got)
	}
}

func TestCredentials_OneFetchFillsBothFields(t *testing.T) {
	c := New("AKIDEXAMPLE", "secret", "")
	p := &mockIdentityProvider{}

	if _, err := c.UserARN(context.Background(), p); err != nil {
		t.Fatalf("UserARN() error = %v", err)
	}
	account, err := c.AccountNumber(context.Background(), p)
	if err != nil {
		t.Fatalf("AccountNumber() error = %v", err)
	}
	if want := "123456789012"; account != want {
		t.Errorf("AccountNumber() = %q, want %q", account, want)
	}
	if got := p.calls.Load(); got != 1 {
		t.Errorf("identity provider called %d times, want 1", got)
	}
}

func TestCredentials_PreseededARNSkipsLookup(t *testing.T) {
	c := New("AKIDEXAMPLE", "secret", "")
	c.arn = "arn:aws:iam::999999999999:user/preset"
	p := &mockIdentityProvider{}

	arn, err := c.UserARN(context.Background(), p)
	if err != nil {
		t.Fatalf("UserARN() error = %v", err)
	}
	if want := "arn:aws:iam::999999999999:user/preset"; arn != want {
		t.Errorf("UserARN() = %q, want %q", arn, want)
	}
	if got := p.calls.Load(); got != 0 {
		t.Errorf("identity provider called %d times, want 0", got)
	}

	// The account number is not derivable from the preset ARN record and
	// still requires one lookup.
	account, err := c.AccountNumber(context.Background(), p)
	if err != nil {
		t.Fatalf("AccountNumber() error = %v", err)
	}
	if want := "123456789012"; account != want {
		t.Errorf("AccountNumber() = %q, want %q", account, want)
	}
	if got := p.calls.Load(); got != 1 {
		t.Errorf("identity provider called %d times after AccountNumber, want 1", got)
	}
	// The preset ARN must survive the fill.
	if arn, _ := c.UserARN(context.Background(), p); arn != "arn:aws:iam::999999999999:user/preset" {
		t.Errorf("UserARN() after fill = %q, want preset value", arn)
	}
}

func TestCredentials_LookupErrorNotCached(t *testing.T) {
	c := New("AKIDEXAMPLE", "secret", "")
	fail := true
	p := &mockIdentityProvider{
		identityFn: func(ctx context.Context) (*Identity, error) {
			if fail {
				return nil, fmt.Errorf("sts unreachable")
			}
			return &Identity{ARN: "arn:aws:iam::123456789012:user/alice", Account: "123456789012"}, nil
		},
	}

	if _, err := c.UserARN(context.Background(), p); err == nil {
		t.Fatal("UserARN() error = nil, want error")
	}

	fail = false
	arn, err := c.UserARN(context.Background(), p)
	if err != nil {
		t.Fatalf("UserARN() after recovery error = %v", err)
	}
	if want := "arn:aws:iam::123456789012:user/alice"; arn != want {
		t.Errorf("UserARN() = %q, want %q", arn, want)
	}
}

func TestCredentials_ConcurrentFillIsSingleFetch(t *testing.T) {
	c := New("AKIDEXAMPLE", "secret", "")
	p := &mockIdentityProvider{}

	var g errgroup.Group
	for range 16 {
		g.Go(func() error {
			_, err := c.UserARN(context.Background(), p)
			return err
		})
		g.Go(func() error {
			_, err := c.AccountNumber(context.Background(), p)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent fill error = %v", err)
	}
	if got := p.calls.Load(); got != 1 {
		t.Errorf("identity provider called %d times, want 1", got)
	}
}

func TestCredentials_StringRedactsSecrets(t *testing.T) {
	c := New("AKIDEXAMPLE", "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY", "FwoGZXIvYXdzEBYaDK")
	s := c.String()

	if strings.Contains(s, "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY") {
		t.Errorf("String() contains full secret key: %s", s)
	}
	if strings.Contains(s, "FwoGZXIvYXdzEBYaDK") {
		t.Errorf("String() contains full session token: %s", s)
	}
	if !strings.Contains(s, "wJal") {
		t.Errorf("String() missing secret key prefix: %s", s)
	}
	if !strings.Contains(s, "AKIDEXAMPLE") {
		t.Errorf("String() missing access key id: %s", s)
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "****"},
		{"abcd", "****"},
		{"abcdefgh", "abcd****"},
	}
	for _, tt := range tests {
		if got := redact(tt.in); got != tt.want {
			t.Errorf("redact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

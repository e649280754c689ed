package imds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a client pointed at an httptest server with the
// platform probe forced to report EC2.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(WithEndpoint(srv.URL))
	c.probe = func() bool { return true }
	return c
}

func TestFetch(t *testing.T) {
	t.Setenv(EnvLambdaTaskRoot, "")
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/meta-data/iam/security-credentials/", r.URL.Path)
		w.Write([]byte("web-profile\n"))
	}))

	got, err := c.Fetch(context.Background(), "iam/security-credentials/")
	require.NoError(t, err)
	assert.Equal(t, "web-profile\n", got)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	t.Setenv(EnvLambdaTaskRoot, "")
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))

	_, err := c.Fetch(context.Background(), "iam/info")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetch_OffInstance(t *testing.T) {
	t.Setenv(EnvLambdaTaskRoot, "")
	requests := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	c.probe = func() bool { return false }

	_, err := c.Fetch(context.Background(), "iam/info")
	assert.ErrorIs(t, err, ErrUnavailable)
	// Off-instance failure is a precondition, never a network timeout.
	assert.Zero(t, requests)
}

func TestAvailable_LambdaSandbox(t *testing.T) {
	c := New()
	c.probe = func() bool { return true }

	t.Setenv(EnvLambdaTaskRoot, "/var/task")
	assert.False(t, c.Available(context.Background()))

	t.Setenv(EnvLambdaTaskRoot, "")
	assert.True(t, c.Available(context.Background()))
}

func TestAvailable_CanceledContext(t *testing.T) {
	t.Setenv(EnvLambdaTaskRoot, "")
	c := New()
	c.probe = func() bool { return true }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, c.Available(ctx))
}

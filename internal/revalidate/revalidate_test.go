package revalidate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"studioapi/internal/config"
)

func TestNewWithoutURLIsNoop(t *testing.T) {
	n := New(config.RevalidateConfig{}, nil)
	assert.IsType(t, Noop{}, n)
	assert.NotPanics(t, func() { n.Notify(context.Background(), "hero") })
}

func TestNewWithURL(t *testing.T) {
	n := New(config.RevalidateConfig{URL: "http://site.test/api/revalidate"}, zap.NewNop())
	assert.IsType(t, &HTTPNotifier{}, n)
}

func TestHTTPNotifierSends(t *testing.T) {
	var got payload
	var secret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		secret = r.Header.Get(SecretHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	n := NewHTTP(srv.URL, "s3cret", srv.Client(), zap.New(core))
	n.Notify(context.Background(), "hero", "stories")

	assert.Equal(t, []string{"hero", "stories"}, got.Tags)
	assert.Equal(t, "s3cret", secret)
	assert.Equal(t, 1, logs.FilterMessage("revalidate_sent").Len())
}

func TestHTTPNotifierLogsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	n := NewHTTP(srv.URL, "", srv.Client(), zap.New(core))
	n.Notify(context.Background(), "reels")

	entries := logs.FilterMessage("revalidate_failed").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "401")
}

func TestHTTPNotifierSkipsEmpty(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	NewHTTP(srv.URL, "", srv.Client(), nil).Notify(context.Background())
	assert.False(t, called)
}

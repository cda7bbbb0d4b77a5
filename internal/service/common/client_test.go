//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/gitea-spk/internal/version"
)

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestNewClient_Options applies options and ignores zero values.
func TestNewClient_Options(t *testing.T) {
	t.Parallel()

	hc := &http.Client{}
	c := NewClient(WithCallTimeout(time.Second), WithUserAgent("agent/1"), WithHTTPClient(hc))
	require.Equal(t, time.Second, c.callTimeout)
	require.Equal(t, "agent/1", c.userAgent)
	require.Same(t, hc, c.httpClient)

	c = NewClient(WithCallTimeout(0), WithUserAgent(""), WithHTTPClient(nil))
	require.Equal(t, version.UserAgent(), c.userAgent)
	require.NotNil(t, c.httpClient)
	require.Positive(t, c.callTimeout)
}

// TestClient_GetJSON decodes a 200 body and sends the expected headers.
func TestClient_GetJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "agent/1" || r.Header.Get("Accept") != "application/vnd.github+json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		_, _ = io.WriteString(w, `{"tag_name":"v1.2.3"}`)
	}))
	defer srv.Close()

	var payload struct {
		TagName string `json:"tag_name"`
	}

	c := NewClient(WithUserAgent("agent/1"))
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &payload))
	require.Equal(t, "v1.2.3", payload.TagName)
}

// TestClient_StatusError reports non-200 replies with their code.
func TestClient_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient()

	_, err := c.Open(context.Background(), srv.URL+"/gitea")
	require.ErrorIs(t, err, errBadHTTPStatus)

	code, ok := StatusCode(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, code)
	require.Contains(t, err.Error(), "404 Not Found")

	var dst map[string]any
	require.Error(t, c.GetJSON(context.Background(), srv.URL, &dst))

	_, ok = StatusCode(io.EOF)
	require.False(t, ok)
}

// TestClient_GetJSON_BadBody reports undecodable bodies.
func TestClient_GetJSON_BadBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	}))
	defer srv.Close()

	var dst map[string]any

	err := NewClient().GetJSON(context.Background(), srv.URL, &dst)
	require.Error(t, err)

	_, ok := StatusCode(err)
	require.False(t, ok)
}

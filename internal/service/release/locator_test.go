package release

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	releasedomain "github.com/oshokin/gitea-spk/internal/domain/release"
	"github.com/oshokin/gitea-spk/internal/service/common"
	"github.com/oshokin/gitea-spk/internal/spkerr"
)

// apiServer answers the given paths with fixed JSON bodies and 404 otherwise.
func apiServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}

		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

// TestLocator_Latest maps tag_name and body onto a version and changelog.
func TestLocator_Latest(t *testing.T) {
	t.Parallel()

	srv := apiServer(t, map[string]string{
		"/releases/latest": `{"tag_name":"v1.21.0","body":"* fixes"}`,
	})

	version, changelog, err := NewLocator(common.NewClient(), srv.URL+"/releases/").Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, releasedomain.Version{Tag: "v1.21.0", Number: "1.21.0"}, version)
	require.Equal(t, "* fixes", changelog)
}

// TestLocator_Latest_NoBody yields an empty changelog.
func TestLocator_Latest_NoBody(t *testing.T) {
	t.Parallel()

	srv := apiServer(t, map[string]string{
		"/releases/latest": `{"tag_name":"v1.21.0"}`,
	})

	_, changelog, err := NewLocator(nil, srv.URL+"/releases").Latest(context.Background())
	require.NoError(t, err)
	require.Empty(t, changelog)
}

// TestLocator_Latest_Errors covers non-200 replies and missing tags.
func TestLocator_Latest_Errors(t *testing.T) {
	t.Parallel()

	srv := apiServer(t, nil)

	_, _, err := NewLocator(nil, srv.URL+"/releases").Latest(context.Background())
	require.True(t, spkerr.Is(err, spkerr.KindNetwork))

	srv = apiServer(t, map[string]string{"/releases/latest": `{"body":"x"}`})

	_, _, err = NewLocator(nil, srv.URL+"/releases").Latest(context.Background())
	require.True(t, spkerr.Is(err, spkerr.KindParse))

	srv = apiServer(t, map[string]string{"/releases/latest": `not json`})

	_, _, err = NewLocator(nil, srv.URL+"/releases").Latest(context.Background())
	require.True(t, spkerr.Is(err, spkerr.KindNetwork))
}

// TestLocator_Changelog queries the tag endpoint and falls back to NOT FOUND.
func TestLocator_Changelog(t *testing.T) {
	t.Parallel()

	srv := apiServer(t, map[string]string{
		"/releases/tags/v1.2.3":     `{"tag_name":"v1.2.3","body":"notes"}`,
		"/releases/tags/v1.2.4-rc1": `{"tag_name":"v1.2.4-rc1","body":null}`,
	})

	locator := NewLocator(nil, srv.URL+"/releases")

	changelog, err := locator.Changelog(context.Background(), releasedomain.FromTag("v1.2.3"))
	require.NoError(t, err)
	require.Equal(t, "notes", changelog)

	version, err := releasedomain.ParseVersion("gitea-1.2.4-rc1-linux-amd64")
	require.NoError(t, err)

	changelog, err = locator.Changelog(context.Background(), version)
	require.NoError(t, err)
	require.Equal(t, ChangelogNotFound, changelog)

	_, err = locator.Changelog(context.Background(), releasedomain.FromTag("v9.9.9"))
	require.True(t, spkerr.Is(err, spkerr.KindNetwork))
}

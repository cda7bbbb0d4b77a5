package release

import (
	"context"
	"errors"
	"net/url"
	"strings"

	releasedomain "github.com/oshokin/gitea-spk/internal/domain/release"
	"github.com/oshokin/gitea-spk/internal/logger"
	"github.com/oshokin/gitea-spk/internal/service/common"
	"github.com/oshokin/gitea-spk/internal/spkerr"
)

// ChangelogNotFound is used when a tagged release carries no body.
const ChangelogNotFound = "NOT FOUND"

var errNoTag = errors.New("release has no tag_name")

// payload is the subset of a GitHub release object the packager reads.
type payload struct {
	// TagName is the git tag of the release.
	TagName string `json:"tag_name"`
	// Body is the release notes; nil when absent or null.
	Body *string `json:"body"`
}

// Locator queries release metadata.
type Locator struct {
	// client performs the API calls.
	client *common.Client
	// api is the releases endpoint without a trailing slash.
	api string
}

// NewLocator creates a Locator for the given releases endpoint.
func NewLocator(client *common.Client, api string) *Locator {
	if client == nil {
		client = common.NewClient()
	}

	return &Locator{
		client: client,
		api:    strings.TrimRight(api, "/"),
	}
}

// Latest returns the newest published release and its changelog.
// A release without notes yields an empty changelog.
func (l *Locator) Latest(ctx context.Context) (releasedomain.Version, string, error) {
	logger.InfoKV(ctx, "Looking up latest release", "api", l.api)

	release, err := l.fetch(ctx, "latest", l.api+"/latest")
	if err != nil {
		return releasedomain.Version{}, "", err
	}

	if release.TagName == "" {
		return releasedomain.Version{}, "", spkerr.New(spkerr.KindParse, "latest", errNoTag)
	}

	version := releasedomain.FromTag(release.TagName)

	logger.InfoKV(ctx, "Found latest release", "version", version.Number)

	return version, bodyOr(release, ""), nil
}

// Changelog returns the release notes of version, or ChangelogNotFound.
func (l *Locator) Changelog(ctx context.Context, version releasedomain.Version) (string, error) {
	logger.DebugKV(ctx, "Looking up changelog", "tag", version.Tag)

	release, err := l.fetch(ctx, "changelog", l.api+"/tags/"+url.PathEscape(version.Tag))
	if err != nil {
		return "", err
	}

	return bodyOr(release, ChangelogNotFound), nil
}

func (l *Locator) fetch(ctx context.Context, op, endpoint string) (*payload, error) {
	var release payload

	if err := l.client.GetJSON(ctx, endpoint, &release); err != nil {
		return nil, spkerr.New(spkerr.KindNetwork, op, err)
	}

	return &release, nil
}

func bodyOr(release *payload, fallback string) string {
	if release.Body == nil {
		return fallback
	}

	return *release.Body
}

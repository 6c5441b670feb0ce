package clips

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const replaySlugPrefix = "replays:"

// ErrInvalidReplayID is returned when a replay id or slug cannot be parsed.
var ErrInvalidReplayID = errors.New("invalid replay id")

// DeepLink points into the full replay viewer, seeked to the clip start.
type DeepLink struct {
	Path  string
	Query url.Values
}

// String renders the link as path?query. Query keys are sorted, so equal
// inputs always produce the same string.
func (l DeepLink) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// LinkParams carries the caller context a deep link is built from.
type LinkParams struct {
	OrgSlug  string
	ReplayID ReplayID
	// Routes is the route path stack of the page hosting the preview.
	Routes []string
	// OriginTag is passed through as t_main when non-empty.
	OriginTag string
}

// BuildDeepLink returns the link to the full replay viewer for the clip.
// It never fails: missing route context yields an empty referrer.
func BuildDeepLink(p LinkParams, w ClipWindow) DeepLink {
	q := url.Values{}
	q.Set("referrer", RouteString(p.Routes))
	q.Set("t", strconv.FormatInt(w.StartOffsetMs/1000, 10))
	if p.OriginTag != "" {
		q.Set("t_main", p.OriginTag)
	}
	return DeepLink{
		Path:  fmt.Sprintf("/organizations/%s/replays/%s/", url.PathEscape(p.OrgSlug), url.PathEscape(string(p.ReplayID))),
		Query: q,
	}
}

// RouteString joins a route path stack into the path pattern of the current
// page, starting from the last absolute path. Empty entries are skipped.
func RouteString(routes []string) string {
	paths := make([]string, 0, len(routes))
	for _, r := range routes {
		if r != "" {
			paths = append(paths, r)
		}
	}

	last := 0
	for i, p := range paths {
		if strings.HasPrefix(p, "/") {
			last = i
		}
	}
	if len(paths) == 0 {
		return ""
	}
	return strings.Join(paths[last:], "")
}

// ParseReplaySlug accepts "replays:<id>" or a bare id, and returns the id
// normalized to 32 lowercase hex characters.
func ParseReplaySlug(slug string) (ReplayID, error) {
	raw := strings.TrimPrefix(slug, replaySlugPrefix)
	u, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidReplayID, slug)
	}
	return ReplayID(strings.ReplaceAll(u.String(), "-", "")), nil
}

// Package version compares the running build against the latest published
// snip release.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RequestTimeout bounds a single release lookup.
const RequestTimeout = 10 * time.Second

// ReleasesURL answers with the latest release in the GitHub API format.
var ReleasesURL = "https://api.github.com/repos/snip-links/snip/releases/latest"

// Release describes the newest published build.
type Release struct {
	Current   string
	Latest    string
	URL       string
	Available bool
}

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckForUpdate looks up the latest release. Development builds are never
// checked and return nil, nil.
func CheckForUpdate(ctx context.Context, current string) (*Release, error) {
	if current == "" || current == "dev" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ReleasesURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "snip-update-check")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release lookup failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release lookup failed: %s", resp.Status)
	}

	var gh githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, fmt.Errorf("invalid release payload: %w", err)
	}

	return &Release{
		Current:   current,
		Latest:    gh.TagName,
		URL:       gh.HTMLURL,
		Available: Compare(gh.TagName, current) > 0,
	}, nil
}

// Compare orders two MAJOR.MINOR.PATCH versions, ignoring a leading "v" and
// any pre-release or build suffix. Missing or malformed parts count as zero.
func Compare(a, b string) int {
	pa, pb := parse(a), parse(b)
	for i := range pa {
		switch {
		case pa[i] > pb[i]:
			return 1
		case pa[i] < pb[i]:
			return -1
		}
	}
	return 0
}

func parse(v string) [3]int {
	var parts [3]int
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	for i, seg := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(seg)
		if err == nil {
			parts[i] = n
		}
	}
	return parts
}

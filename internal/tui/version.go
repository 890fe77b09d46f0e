package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/homedash/pkg/client"
)

const (
	releasesAPI  = "https://api.github.com"
	releasesPath = "/repos/naveenspark/homedash/releases/latest"
)

// releaseMsg names a newer published release, or is empty.
type releaseMsg struct {
	tag string
}

// checkVersion looks for a newer release in the background. Dev builds
// never check.
func checkVersion(current string) tea.Cmd {
	if current == "" || current == "dev" {
		return nil
	}
	return latestRelease(releasesAPI, current)
}

// latestRelease asks apiURL for the latest release tag. Failures are silent:
// the header just shows no update.
func latestRelease(apiURL, current string) tea.Cmd {
	return func() tea.Msg {
		c, err := client.New(apiURL, client.Options{Timeout: 5 * time.Second, UserAgent: "homedash/" + current})
		if err != nil {
			return releaseMsg{}
		}
		var release struct {
			TagName string `json:"tag_name"`
		}
		if err := c.Get(context.Background(), releasesPath, &release); err != nil {
			return releaseMsg{}
		}
		if !isNewerVersion(release.TagName, current) {
			return releaseMsg{}
		}
		return releaseMsg{tag: "v" + strings.TrimPrefix(release.TagName, "v")}
	}
}

// isNewerVersion compares major.minor.patch. Pre-release suffixes such as
// "-rc1" are ignored.
func isNewerVersion(latest, current string) bool {
	l, c := semver(latest), semver(current)
	for i := range l {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func semver(v string) [3]int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	var out [3]int
	for i, part := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		out[i] = n
	}
	return out
}

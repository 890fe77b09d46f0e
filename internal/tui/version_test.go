package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		latest  string
		current string
		want    bool
	}{
		{"1.0.1", "1.0.0", true},
		{"1.1.0", "1.0.9", true},
		{"v2.0.0", "1.9.9", true},
		{"1.0.0", "1.0.0", false},
		{"1.0.0", "1.0.1", false},
		{"v0.5.0-rc1", "0.4.2", true},
		{"0.5.0", "0.5.0-rc1", false},
		{"dev", "dev", false},
	}
	for _, tc := range tests {
		t.Run(tc.latest+"_vs_"+tc.current, func(t *testing.T) {
			if got := isNewerVersion(tc.latest, tc.current); got != tc.want {
				t.Errorf("isNewerVersion(%q, %q) = %v, want %v", tc.latest, tc.current, got, tc.want)
			}
		})
	}
}

func TestCheckVersionSkipsDevBuilds(t *testing.T) {
	for _, v := range []string{"", "dev"} {
		if cmd := checkVersion(v); cmd != nil {
			t.Errorf("checkVersion(%q) returned a command, want nil", v)
		}
	}
}

func TestLatestRelease(t *testing.T) {
	tests := []struct {
		name   string
		status int
		tag    string
		want   releaseMsg
	}{
		{"newer", http.StatusOK, "v0.5.0", releaseMsg{tag: "v0.5.0"}},
		{"newer without prefix", http.StatusOK, "0.5.0", releaseMsg{tag: "v0.5.0"}},
		{"same", http.StatusOK, "v0.4.0", releaseMsg{}},
		{"not found", http.StatusNotFound, "", releaseMsg{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != releasesPath {
					t.Errorf("path = %s", r.URL.Path)
				}
				if tc.status != http.StatusOK {
					w.WriteHeader(tc.status)
					return
				}
				json.NewEncoder(w).Encode(map[string]string{"tag_name": tc.tag}) //nolint:errcheck
			}))
			defer srv.Close()

			msg := latestRelease(srv.URL, "0.4.0")().(releaseMsg)
			if msg != tc.want {
				t.Errorf("latestRelease() = %+v, want %+v", msg, tc.want)
			}
		})
	}
}

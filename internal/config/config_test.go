package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Gammanik/media-edge/internal/group"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
	if !cfg.Upstream.ForwardRange {
		t.Error("forward_range should default to true")
	}
	if cfg.UpstreamTimeout() != 30*time.Second {
		t.Errorf("upstream timeout = %v", cfg.UpstreamTimeout())
	}
	if len(cfg.Groups) != 0 {
		t.Errorf("groups should be empty without a file, got %d", len(cfg.Groups))
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeFile(t, "edge.toml", `
[server]
listen = ":9000"
public_base_url = "https://edge.example.com/"

[upstream]
base_url = "https://origin.example.com/bucket/"
timeout_seconds = 5
forward_range = false

[logging]
level = "DEBUG"
format = "json"

[[groups]]
id = 1
start = 1
end = 10

[[groups]]
id = 2
start = 20
end = 30
`)

	t.Setenv("MEDIA_EDGE_SERVER_LISTEN", ":9100")
	t.Setenv("MEDIA_EDGE_UPSTREAM_TIMEOUT_SECONDS", "7")
	t.Setenv("MEDIA_EDGE_CORS_ALLOW_ORIGIN", "https://player.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Listen != ":9100" {
		t.Errorf("env should override listen, got %q", cfg.Server.Listen)
	}
	if cfg.Server.PublicBaseURL != "https://edge.example.com" {
		t.Errorf("public base url = %q", cfg.Server.PublicBaseURL)
	}
	if cfg.Upstream.BaseURL != "https://origin.example.com/bucket" {
		t.Errorf("upstream base url = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.TimeoutSeconds != 7 {
		t.Errorf("timeout = %d, want 7", cfg.Upstream.TimeoutSeconds)
	}
	if cfg.Upstream.ForwardRange {
		t.Error("forward_range from file should be false")
	}
	if cfg.CORS.AllowOrigin != "https://player.example.com" {
		t.Errorf("allow origin = %q", cfg.CORS.AllowOrigin)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	want := []group.Range{{GroupID: 1, StartID: 1, EndID: 10}, {GroupID: 2, StartID: 20, EndID: 30}}
	if len(cfg.Groups) != 2 || cfg.Groups[0] != want[0] || cfg.Groups[1] != want[1] {
		t.Errorf("groups = %+v", cfg.Groups)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "relative upstream", content: "[upstream]\nbase_url = \"origin\"\n", wantErr: "upstream.base_url"},
		{name: "bad format", content: "[logging]\nformat = \"xml\"\n", wantErr: "logging.format"},
		{name: "bad level", content: "[logging]\nlevel = \"loud\"\n", wantErr: "logging.level"},
		{name: "negative timeout", content: "[upstream]\ntimeout_seconds = -1\n", wantErr: "timeout_seconds"},
		{name: "overlapping groups", content: "[[groups]]\nid = 1\nstart = 1\nend = 5\n[[groups]]\nid = 2\nstart = 5\nend = 9\n", wantErr: "groups"},
		{name: "syntax", content: "[server\n", wantErr: "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "edge.toml", tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestDefaultGroups(t *testing.T) {
	ranges := DefaultGroups()
	if len(ranges) != 17 {
		t.Fatalf("default table has %d groups, want 17", len(ranges))
	}
	table, err := group.NewTable(ranges)
	if err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
	if table.MaxID() != 471 {
		t.Errorf("MaxID = %d, want 471", table.MaxID())
	}
	if g, err := table.Resolve(400); err != nil || g != 17 {
		t.Errorf("Resolve(400) = %d, %v", g, err)
	}
}

func TestLoadGroupsFile(t *testing.T) {
	path := writeFile(t, "groups.toml", "[[groups]]\nid = 4\nstart = 7\nend = 9\n")
	ranges, err := LoadGroupsFile(path)
	if err != nil {
		t.Fatalf("LoadGroupsFile: %v", err)
	}
	if len(ranges) != 1 || ranges[0] != (group.Range{GroupID: 4, StartID: 7, EndID: 9}) {
		t.Errorf("ranges = %+v", ranges)
	}

	if _, err := LoadGroupsFile(writeFile(t, "empty.toml", "")); err == nil {
		t.Error("expected error for file without groups")
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
}

package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/vaultedit/internal/complete"
	pkgconfig "github.com/starford/vaultedit/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no scanner command", func(c *Config) { c.Scanner.Command = nil }, "scanner"},
		{"zero timeout", func(c *Config) { c.Scanner.Timeout = 0 }, "scanner"},
		{"too many workers", func(c *Config) { c.Scanner.Workers = 500 }, "scanner"},
		{"long leader", func(c *Config) { c.Editor.Leader = "ab" }, "editor"},
		{"bad keymap", func(c *Config) { c.Keymap = map[string]string{"<ctrl+x": "undo"} }, "keymap"},
		{"no candidates", func(c *Config) { c.Complete.MaxCandidates = 0 }, "complete"},
		{"empty snippet", func(c *Config) { c.Complete.Snippets = []complete.Snippet{{Name: "todo"}} }, "snippet"},
		{"undated layout", func(c *Config) { c.Daily.Layout = "journal/today.md" }, "daily"},
		{"no index file", func(c *Config) { c.Vault.IndexFile = "" }, "vault"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("VAULTEDIT_TEST_SCANNER", "/opt/bin/scan")
	data := `
app:
  log_level: debug
scanner:
  command: ["${VAULTEDIT_TEST_SCANNER}", "--json"]
  timeout: 2s
editor:
  leader: ","
keymap:
  "<leader>x": search-panel
complete:
  snippets:
    - name: todo
      body: "- [ ] "
daily:
  layout: "journal/2006/01-02.md"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatal(err)
	}
	if got := cfg.Scanner.Command; len(got) != 2 || got[0] != "/opt/bin/scan" {
		t.Errorf("command = %q", got)
	}
	if cfg.Scanner.Timeout != 2*time.Second {
		t.Errorf("timeout = %v", cfg.Scanner.Timeout)
	}
	if cfg.Scanner.Workers != 4 {
		t.Errorf("workers default lost: %d", cfg.Scanner.Workers)
	}
	if cfg.Editor.Leader != "," || cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("editor/app = %+v %+v", cfg.Editor, cfg.App)
	}
	if len(cfg.Complete.Snippets) != 1 || cfg.Complete.Snippets[0].Body != "- [ ] " {
		t.Errorf("snippets = %+v", cfg.Complete.Snippets)
	}
	if cfg.Vault.IndexFile != "markdown_data.db" {
		t.Errorf("index file = %q", cfg.Vault.IndexFile)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("editor:\n  leader: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := pkgconfig.Load(path, NewDefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("err = %v", err)
	}
}

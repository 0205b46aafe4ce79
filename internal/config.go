package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultedit/internal/complete"
	"github.com/starford/vaultedit/internal/keymap"
	"github.com/starford/vaultedit/internal/vault"
)

// DefaultBaseDirEnv names the environment variable holding the vault path.
const DefaultBaseDirEnv = "OBSIDIAN_VAULT_MAIN_PATH"

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	Scanner  ScannerConfig     `yaml:"scanner"`
	Editor   EditorConfig      `yaml:"editor"`
	Keymap   map[string]string `yaml:"keymap"`
	Complete CompleteConfig    `yaml:"complete"`
	Daily    DailyConfig       `yaml:"daily"`
	Watch    WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Scanner.Validate(); err != nil {
		return fmt.Errorf("scanner: %w", err)
	}
	if err := c.Editor.Validate(); err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	if _, err := keymap.Build(c.Editor.Leader, c.Keymap); err != nil {
		return err
	}
	if err := c.Complete.Validate(); err != nil {
		return fmt.Errorf("complete: %w", err)
	}
	if err := c.Daily.Validate(); err != nil {
		return fmt.Errorf("daily: %w", err)
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// LogFile is where the editor logs while the terminal is in use.
	// Relative paths are resolved against the vault.
	LogFile string `yaml:"log_file"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFile, validation.Required),
	)
}

// VaultConfig locates the vault and its index.
type VaultConfig struct {
	// BaseDirEnv is consulted when no base directory is given on the
	// command line.
	BaseDirEnv string `yaml:"base_dir_env"`
	// IndexFile is the SQLite file name inside the vault.
	IndexFile string `yaml:"index_file"`
	// SlugNames turns new and renamed note names into slugs.
	SlugNames bool `yaml:"slug_names"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseDirEnv, validation.Required),
		validation.Field(&c.IndexFile, validation.Required),
	)
}

// ScannerConfig describes the external scanner process.
type ScannerConfig struct {
	// Command is the scanner argv; the file path and base directory are
	// appended.
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
	// Workers bounds concurrent scans in the background worker and
	// during reindex.
	Workers int `yaml:"workers"`
}

// Validate validates the scanner configuration.
func (c *ScannerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Command, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(10*time.Millisecond)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// EditorConfig holds modal editing settings.
type EditorConfig struct {
	Leader          string        `yaml:"leader"`
	SequenceTimeout time.Duration `yaml:"sequence_timeout"`
	UndoLimit       int           `yaml:"undo_limit"`
	// Clipboard backs the '+' register with the system clipboard.
	Clipboard bool `yaml:"clipboard"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Leader, validation.Required, validation.RuneLength(1, 1)),
		validation.Field(&c.SequenceTimeout, validation.Required, validation.Min(10*time.Millisecond)),
		validation.Field(&c.UndoLimit, validation.Min(0)),
	)
}

// CompleteConfig holds autocomplete settings.
type CompleteConfig struct {
	MaxCandidates int                `yaml:"max_candidates"`
	Snippets      []complete.Snippet `yaml:"snippets"`
	TemplatesDir  string             `yaml:"templates_dir"`
}

// Validate validates the autocomplete configuration.
func (c *CompleteConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MaxCandidates, validation.Required, validation.Min(1)),
		validation.Field(&c.TemplatesDir, validation.Required),
	); err != nil {
		return err
	}
	for i := range c.Snippets {
		s := &c.Snippets[i]
		if err := validation.ValidateStruct(s,
			validation.Field(&s.Name, validation.Required),
			validation.Field(&s.Body, validation.Required),
		); err != nil {
			return fmt.Errorf("snippet %d: %w", i, err)
		}
	}
	return nil
}

// DailyConfig holds the dated note layout, a Go time format.
type DailyConfig struct {
	Layout string `yaml:"layout"`
}

// Validate validates the daily note configuration.
func (c *DailyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Layout, validation.Required, validation.By(func(any) error {
			day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
			if vault.DailyPath(c.Layout, day, 0) == vault.DailyPath(c.Layout, day, 1) {
				return fmt.Errorf("layout has no day field")
			}
			return nil
		})),
	)
}

// WatchConfig controls the vault watcher.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watcher configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			LogFile:  ".vaultedit/editor.log",
		},
		Vault: VaultConfig{
			BaseDirEnv: DefaultBaseDirEnv,
			IndexFile:  "markdown_data.db",
		},
		Scanner: ScannerConfig{
			Command: []string{"markdown-scanner"},
			Timeout: 5 * time.Second,
			Workers: 4,
		},
		Editor: EditorConfig{
			Leader:          keymap.DefaultLeader,
			SequenceTimeout: time.Second,
			UndoLimit:       1000,
			Clipboard:       true,
		},
		Complete: CompleteConfig{
			MaxCandidates: complete.DefaultMaxCandidates,
			TemplatesDir:  vault.DefaultTemplatesDir,
		},
		Daily: DailyConfig{
			Layout: vault.DefaultDailyLayout,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 200 * time.Millisecond,
		},
	}
}

// Package testutil provides shared test helpers for setting up vaults, index
// stores and a stand-in scanner process.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/vaultedit/internal/index"
	"github.com/starford/vaultedit/internal/models"
	"github.com/starford/vaultedit/internal/parser"
	"github.com/starford/vaultedit/internal/scanner"
	"github.com/starford/vaultedit/internal/storage"
)

// Environment switches for the re-executed test binary.
const (
	HelperEnv     = "GO_WANT_HELPER_PROCESS"
	HelperModeEnv = "VAULTEDIT_SCANNER_HELPER"
)

// Scanner helper modes.
const (
	ModeOK      = "ok"
	ModeFail    = "fail"
	ModeGarbage = "garbage"
	ModePartial = "partial"
	ModeSleep   = "sleep"
)

// TestStore opens an index store in a temporary directory.
func TestStore(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteFiles writes path → content pairs into the vault.
func WriteFiles(t *testing.T, store storage.Provider, files map[string]string) {
	t.Helper()
	for p, content := range files {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// ParseScanner returns an in-process ScanFunc that runs the Markdown parser
// on files under root.
func ParseScanner(root string) index.ScanFunc {
	return func(_ context.Context, p string) (*models.ScanResult, error) {
		res, err := parser.ParseFile(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			return nil, err
		}
		return &models.ScanResult{Path: p, Tags: res.Tags, Links: res.Links}, nil
	}
}

// ScannerRunner returns a runner that re-executes the current test binary
// as the scanner in the given mode. The package under test must call
// RunScannerHelper from TestMain.
func ScannerRunner(baseDir, mode string, timeout time.Duration) *scanner.Runner {
	return &scanner.Runner{
		Command: []string{os.Args[0], "-test.run=^$", "--"},
		BaseDir: baseDir,
		Timeout: timeout,
		Env:     []string{HelperEnv + "=1", HelperModeEnv + "=" + mode},
	}
}

// RunScannerHelper turns the process into a scanner when it was started by
// ScannerRunner and exits. Otherwise it returns immediately.
func RunScannerHelper() {
	if os.Getenv(HelperEnv) != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: scanner <file> <base_dir>")
		os.Exit(2)
	}
	os.Exit(helperScan(os.Getenv(HelperModeEnv), args[0], args[1]))
}

func helperScan(mode, abs, baseDir string) int {
	switch mode {
	case ModeFail:
		fmt.Fprintln(os.Stderr, "scanner exploded")
		return 3
	case ModeGarbage:
		fmt.Println("this is not json")
		return 0
	case ModePartial:
		fmt.Println(`{"path": "x.md", "tags": ["a"]}`)
		return 0
	case ModeSleep:
		time.Sleep(30 * time.Second)
		return 0
	}

	res, err := parser.ParseFile(abs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	rel, err := filepath.Rel(baseDir, abs)
	if err != nil {
		rel = abs
	}
	out := map[string]any{
		"path":  filepath.ToSlash(rel),
		"tags":  append([]string{}, res.Tags...),
		"links": append([]string{}, res.Links...),
	}
	if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
		return 1
	}
	return 0
}

// Package scanner bridges the external Markdown scanner process and the
// metadata store. The Runner invokes the process, the Bridge applies its
// output and the Worker keeps scans off the session loop.
package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/vaultedit/internal/apperr"
	"github.com/starford/vaultedit/internal/models"
)

// DefaultTimeout bounds one scanner invocation.
const DefaultTimeout = 5 * time.Second

// maxStderr caps how much scanner stderr ends up in an error message.
const maxStderr = 512

// Runner invokes the scanner as `<Command...> <abs file path> <BaseDir>` and
// decodes the JSON document it prints on stdout.
type Runner struct {
	Command []string
	BaseDir string
	Timeout time.Duration
	// Env is appended to the current process environment.
	Env []string
}

type output struct {
	Path  string    `json:"path"`
	Tags  *[]string `json:"tags"`
	Links *[]string `json:"links"`
}

// Scan runs the scanner on the vault-relative path. Every failure mode is
// returned as an *apperr.ScanError.
func (r *Runner) Scan(ctx context.Context, path string) (*models.ScanResult, error) {
	if len(r.Command) == 0 {
		return nil, &apperr.ScanError{Path: path, Reason: "no scanner command configured"}
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	abs := filepath.Join(r.BaseDir, filepath.FromSlash(path))
	args := append(append([]string{}, r.Command[1:]...), abs, r.BaseDir)
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	cmd.Dir = r.BaseDir
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		se := &apperr.ScanError{Path: path, Reason: "scanner failed", Stderr: trimStderr(stderr.String()), Err: err}
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			se.Reason = fmt.Sprintf("timed out after %s", timeout)
		case ctx.Err() != nil:
			se.Reason = "cancelled"
			se.Err = ctx.Err()
		case errors.As(err, &exitErr):
			se.Reason = "non-zero exit"
			se.ExitCode = exitErr.ExitCode()
		}
		return nil, se
	}

	var out output
	dec := json.NewDecoder(&stdout)
	if err := dec.Decode(&out); err != nil {
		return nil, &apperr.ScanError{Path: path, Reason: "malformed output", Err: err}
	}
	if out.Tags == nil || out.Links == nil {
		return nil, &apperr.ScanError{Path: path, Reason: "malformed output: tags and links are required"}
	}
	return &models.ScanResult{Path: path, Tags: *out.Tags, Links: *out.Links}, nil
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = s[:maxStderr] + "..."
	}
	return s
}

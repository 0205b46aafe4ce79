// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultedit/internal/editor"
	"github.com/starford/vaultedit/internal/index"
	"github.com/starford/vaultedit/internal/keymap"
	"github.com/starford/vaultedit/internal/mcpserver"
	"github.com/starford/vaultedit/internal/scanner"
	"github.com/starford/vaultedit/internal/session"
	"github.com/starford/vaultedit/internal/storage"
	"github.com/starford/vaultedit/internal/ui"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	abs, err := filepath.Abs(app.baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	app.baseDir = abs
	return app, nil
}

// logger builds the JSON logger. Without an explicit writer, logs go to the
// configured file so that the terminal stays free for the editor.
func (a *application) logger() (*slog.Logger, io.Closer, error) {
	out, closer := a.logOut, io.Closer(nil)
	if out == nil {
		p := a.config.App.LogFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(a.baseDir, p)
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger, closer, nil
}

// openVault opens the vault storage and its index.
func (a *application) openVault(logger *slog.Logger) (*storage.FS, *index.DB, error) {
	files, err := storage.NewFS(a.baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	dbPath := filepath.Join(a.baseDir, a.config.Vault.IndexFile)
	db, err := index.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if db.Created() {
		logger.Info("Index created", slog.String("path", dbPath))
	}
	return files, db, nil
}

func (a *application) runner() *scanner.Runner {
	return &scanner.Runner{
		Command: a.config.Scanner.Command,
		BaseDir: a.baseDir,
		Timeout: a.config.Scanner.Timeout,
	}
}

// Run starts an editing session on the configured file.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.file == "" {
		return fmt.Errorf("file path is required")
	}
	cfg := app.config

	logger, closer, err := app.logger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	logger.Info("Configuration loaded",
		slog.String("base_dir", app.baseDir),
		slog.String("file", app.file),
		slog.Any("scanner", cfg.Scanner.Command),
		slog.String("log_level", cfg.App.LogLevel.String()))

	files, db, err := app.openVault(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	keys, err := keymap.Build(cfg.Editor.Leader, cfg.Keymap)
	if err != nil {
		return err
	}

	runner := app.runner()
	bridge := scanner.NewBridge(db, files, runner.Scan, logger)
	worker := scanner.NewWorker(runner.Scan, cfg.Scanner.Workers, logger)
	defer worker.Close()

	sessOpts := []session.Option{
		session.WithScheduler(worker),
		session.WithKeymap(keys),
		session.WithSequenceTimeout(cfg.Editor.SequenceTimeout),
		session.WithUndoLimit(cfg.Editor.UndoLimit),
		session.WithDailyLayout(cfg.Daily.Layout),
		session.WithTemplatesDir(cfg.Complete.TemplatesDir),
		session.WithSnippets(cfg.Complete.Snippets),
		session.WithMaxCandidates(cfg.Complete.MaxCandidates),
		session.WithSlugNames(cfg.Vault.SlugNames),
		session.WithLogger(logger),
	}
	if cfg.Editor.Clipboard {
		sessOpts = append(sessOpts, session.WithClipboard(editor.SystemClipboard()))
	}
	sess, err := session.New(files, bridge, sessOpts...)
	if err != nil {
		return fmt.Errorf("init session: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sess.Open(ctx, app.file); err != nil {
		return fmt.Errorf("open %s: %w", app.file, err)
	}

	events := make(chan ui.VaultEvent, 64)
	program := tea.NewProgram(
		ui.New(ctx, sess, ui.WithResults(worker.Results()), ui.WithVaultEvents(events)),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	if cfg.Watch.Enabled {
		g.Go(func() error {
			return index.Watch(gCtx, app.baseDir, cfg.Watch.Debounce, logger, func(kind, path string) {
				select {
				case events <- ui.VaultEvent{Kind: kind, Path: path}:
				case <-gCtx.Done():
				}
			})
		})
	}

	// Handle termination signals; the terminal delivers Ctrl-C as a key.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			program.Quit()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Session closed", slog.String("file", sess.Path()))
	return nil
}

// RunReindex scans every Markdown file in the vault whose content changed
// since the last scan and forgets files that no longer exist.
func RunReindex(ctx context.Context, opts ...Option) (index.SyncStats, error) {
	app, err := newApplication(opts)
	if err != nil {
		return index.SyncStats{}, err
	}
	logger, closer, err := app.logger()
	if err != nil {
		return index.SyncStats{}, err
	}
	if closer != nil {
		defer closer.Close()
	}

	files, db, err := app.openVault(logger)
	if err != nil {
		return index.SyncStats{}, err
	}
	defer db.Close()

	bridge := scanner.NewBridge(db, files, app.runner().Scan, logger)
	stats, err := bridge.Reindex(ctx, app.config.Scanner.Workers)
	if err != nil {
		return stats, err
	}
	logger.Info("Reindex finished",
		slog.Int("scanned", stats.Scanned),
		slog.Int("skipped", stats.Skipped),
		slog.Int("removed", stats.Removed),
		slog.Int("failed", stats.Failed))
	return stats, nil
}

// RunMCP serves the read-only index tools over stdio until the client
// disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger, closer, err := app.logger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	_, db, err := app.openVault(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("MCP server starting", slog.String("base_dir", app.baseDir))
	srv := mcpserver.New(db, app.version)
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

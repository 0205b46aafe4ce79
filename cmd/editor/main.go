package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultedit/internal"
	pkgconfig "github.com/starford/vaultedit/pkg/config"
)

var version = "dev"

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vaultedit.yaml"
	}
	return filepath.Join(dir, "vaultedit", "config.yaml")
}

// loadConfig reads the config file over the defaults. A missing file is
// only an error when it was asked for explicitly.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		return cfg, nil
	}
	if _, err := pkgconfig.LoadOptional(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// baseDir resolves the vault root: argument, then the configured
// environment variable, then the working directory.
func baseDir(arg string, cfg *internal.Config) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if env := os.Getenv(cfg.Vault.BaseDirEnv); env != "" {
		return env, nil
	}
	return os.Getwd()
}

func commonOptions(cmd *cli.Command, dirArg string) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dir, err := baseDir(dirArg, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithBaseDir(dir),
		internal.WithVersion(version),
	}, nil
}

func edit(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 || cmd.Args().Len() > 2 {
		return cli.Exit("usage: editor <file_path> [base_dir]", 2)
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("editor needs an interactive terminal")
	}
	file, err := filepath.Abs(cmd.Args().Get(0))
	if err != nil {
		return fmt.Errorf("resolve file path: %w", err)
	}
	opts, err := commonOptions(cmd, cmd.Args().Get(1))
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithFile(file))
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func reindex(ctx context.Context, cmd *cli.Command) error {
	opts, err := commonOptions(cmd, cmd.Args().Get(0))
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithLogWriter(os.Stderr))
	stats, err := internal.RunReindex(ctx, opts...)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	fmt.Printf("scanned %d, unchanged %d, removed %d, failed %d\n",
		stats.Scanned, stats.Skipped, stats.Removed, stats.Failed)
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := commonOptions(cmd, cmd.Args().Get(0))
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithLogWriter(os.Stderr))
	return internal.RunMCP(ctx, opts...)
}

const description = `Opens <file_path> for editing. The ".md" extension may be omitted.

A file named like a subcommand ("reindex", "mcp") must be given with its
extension or a path prefix, e.g. "editor mcp.md" or "editor ./mcp".`

func newCommand() *cli.Command {
	return &cli.Command{
		Name:        "editor",
		Usage:       "Modal Markdown editor with a tag and backlink index",
		ArgsUsage:   "<file_path> [base_dir]",
		Description: description,
		Version:     version,
		Action:      edit,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   defaultConfigPath(),
				Sources: cli.EnvVars("VAULTEDIT_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "reindex",
				Usage:     "Scan changed Markdown files and drop deleted ones from the index",
				ArgsUsage: "[base_dir]",
				Action:    reindex,
			},
			{
				Name:      "mcp",
				Usage:     "Serve read-only index tools to MCP clients over stdio",
				ArgsUsage: "[base_dir]",
				Action:    serveMCP,
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

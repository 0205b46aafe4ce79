// Command markdown-scanner extracts the tags and wikilinks of one Markdown
// file and prints them as JSON for the editor's index.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/starford/vaultedit/internal/models"
	"github.com/starford/vaultedit/internal/parser"
)

func scan(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return cli.Exit("usage: markdown-scanner <file_path> <base_dir>", 2)
	}
	file, base := cmd.Args().Get(0), cmd.Args().Get(1)

	res, err := parser.ParseFile(file)
	if err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	rel, err := filepath.Rel(base, file)
	if err != nil {
		rel = file
	}
	out := models.ScanResult{
		Path:  filepath.ToSlash(rel),
		Tags:  append([]string{}, res.Tags...),
		Links: append([]string{}, res.Links...),
	}
	enc := json.NewEncoder(os.Stdout)
	if cmd.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

func main() {
	cmd := &cli.Command{
		Name:      "markdown-scanner",
		Usage:     "Print the tags and [[links]] of a Markdown file as JSON",
		ArgsUsage: "<file_path> <base_dir>",
		Action:    scan,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Indent the JSON output",
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("scan failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	baseDir string
	file    string
	version string
	logOut  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithBaseDir sets the vault root.
func WithBaseDir(dir string) Option {
	return func(a *application) {
		a.baseDir = dir
	}
}

// WithFile sets the file opened at startup.
func WithFile(path string) Option {
	return func(a *application) {
		a.file = path
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithLogWriter sends logs to w instead of the configured log file.
func WithLogWriter(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}

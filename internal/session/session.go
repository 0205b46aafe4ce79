// Package session is the session controller: it owns the open buffer and
// its file identity, routes keys to the interpreter, panels and completion
// popup, and keeps the index in step with saves and vault changes.
//
// A Session is not safe for concurrent use. The UI event loop is its only
// caller; scan results and watcher events reach it as messages on that loop.
package session

import (
	"log/slog"
	"time"

	"github.com/starford/vaultedit/internal/buffer"
	"github.com/starford/vaultedit/internal/complete"
	"github.com/starford/vaultedit/internal/editor"
	"github.com/starford/vaultedit/internal/index"
	"github.com/starford/vaultedit/internal/keymap"
	"github.com/starford/vaultedit/internal/scanner"
	"github.com/starford/vaultedit/internal/storage"
	"github.com/starford/vaultedit/internal/vault"
)

// Scheduler runs scans in the background. *scanner.Worker implements it.
type Scheduler interface {
	Submit(job scanner.Job)
	Cancel(path string)
}

// Session is one editing session over a vault.
type Session struct {
	files     *storage.FS
	bridge    *scanner.Bridge
	store     index.Store
	scheduler Scheduler
	engine    *complete.Engine
	templates *vault.TemplateStore
	tree      *vault.Tree
	keys      *keymap.Set
	treeKeys  *keymap.Matcher
	in        *editor.Interpreter
	clip      editor.Clipboard
	logger    *slog.Logger
	now       func() time.Time

	dailyLayout string
	timeout     time.Duration
	undoLimit   int
	slugNames   bool
	snippets    []complete.Snippet
	maxCands    int

	path     string
	savedSum string
	cleanVer uint64
	dirtyVer uint64
	dirty    bool
	// gen is the scan generation per path; results of older generations
	// are dropped.
	gen       map[string]uint64
	submitted map[string]string
	history   []string
	histPos   int

	panel    *Panel
	treeOpen bool
	popup    *Popup

	status    string
	statusErr bool
	quit      bool
}

// Option configures a Session.
type Option func(*Session)

// WithScheduler runs scans in the background. Without one, scans run
// synchronously inside the calling operation.
func WithScheduler(s Scheduler) Option {
	return func(se *Session) { se.scheduler = s }
}

// WithKeymap sets the key bindings.
func WithKeymap(keys *keymap.Set) Option {
	return func(s *Session) { s.keys = keys }
}

// WithSequenceTimeout sets how long an ambiguous key prefix waits.
func WithSequenceTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithUndoLimit caps undo history per buffer.
func WithUndoLimit(n int) Option {
	return func(s *Session) { s.undoLimit = n }
}

// WithDailyLayout sets the time layout of dated note paths.
func WithDailyLayout(layout string) Option {
	return func(s *Session) { s.dailyLayout = layout }
}

// WithTemplatesDir sets the vault directory holding templates.
func WithTemplatesDir(dir string) Option {
	return func(s *Session) { s.templates = vault.NewTemplateStore(s.files, dir) }
}

// WithSnippets sets the '@' completion snippets.
func WithSnippets(snippets []complete.Snippet) Option {
	return func(s *Session) { s.snippets = snippets }
}

// WithMaxCandidates caps the completion popup.
func WithMaxCandidates(n int) Option {
	return func(s *Session) { s.maxCands = n }
}

// WithSlugNames makes new and renamed notes use slug file names.
func WithSlugNames(on bool) Option {
	return func(s *Session) { s.slugNames = on }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClipboard sets the clipboard behind the '+' register.
func WithClipboard(c editor.Clipboard) Option {
	return func(s *Session) { s.clip = c }
}

// New creates a session. Call Open before handling keys.
func New(files *storage.FS, bridge *scanner.Bridge, opts ...Option) (*Session, error) {
	s := &Session{
		files:     files,
		bridge:    bridge,
		store:     bridge.Store(),
		logger:    slog.Default(),
		now:       time.Now,
		timeout:   keymap.DefaultTimeout,
		gen:       make(map[string]uint64),
		submitted: make(map[string]string),
		histPos:   -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.keys == nil {
		keys, err := keymap.Build(keymap.DefaultLeader, nil)
		if err != nil {
			return nil, err
		}
		s.keys = keys
	}
	if s.templates == nil {
		s.templates = vault.NewTemplateStore(files, "")
	}
	s.engine = complete.New(s.store,
		complete.WithSnippets(s.snippets),
		complete.WithTemplates(s.templates),
		complete.WithMaxCandidates(s.maxCands))
	s.tree = vault.NewTree(files, vault.WithSlugNames(s.slugNames))
	s.treeKeys = keymap.NewMatcher(s.keys.Tree, s.timeout)
	s.in = editor.New(s.newBuffer(""), s.keys, s.timeout,
		editor.WithClock(s.clock),
		editor.WithRegisters(editor.NewRegisters(s.clip)))
	return s, nil
}

func (s *Session) clock() time.Time { return s.now() }

func (s *Session) newBuffer(text string) *buffer.Buffer {
	var opts []buffer.Option
	if s.undoLimit > 0 {
		opts = append(opts, buffer.WithUndoLimit(s.undoLimit))
	}
	return buffer.New(text, opts...)
}

// Path returns the vault-relative path of the open file.
func (s *Session) Path() string { return s.path }

// Buffer returns the open buffer.
func (s *Session) Buffer() *buffer.Buffer { return s.in.Buffer() }

// Mode returns the interpreter mode.
func (s *Session) Mode() editor.Mode { return s.in.Mode() }

// CommandLine returns the text typed in Command mode.
func (s *Session) CommandLine() string { return s.in.CommandLine() }

// PendingKeys returns the unresolved key prefix.
func (s *Session) PendingKeys() string {
	if s.treeFocused() {
		return s.treeKeys.Pending()
	}
	return s.in.PendingKeys()
}

// Deadline returns when the pending key prefix times out.
func (s *Session) Deadline() (time.Time, bool) {
	if s.treeFocused() {
		return s.treeKeys.Deadline()
	}
	return s.in.Deadline()
}

// Panel returns the open list panel, or nil.
func (s *Session) Panel() *Panel { return s.panel }

// Popup returns the completion popup, or nil.
func (s *Session) Popup() *Popup { return s.popup }

// Tree returns the file tree and whether its panel is open.
func (s *Session) Tree() (*vault.Tree, bool) { return s.tree, s.treeOpen }

// Status returns the status message and whether it reports an error.
func (s *Session) Status() (string, bool) { return s.status, s.statusErr }

// Quit reports whether the session was closed.
func (s *Session) Quit() bool { return s.quit }

func (s *Session) setStatus(msg string) {
	s.status, s.statusErr = msg, false
}

func (s *Session) setError(err error) {
	s.status, s.statusErr = err.Error(), true
	s.logger.Warn("session: error", slog.String("path", s.path), slog.String("error", err.Error()))
}

package vault

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/starford/vaultedit/internal/apperr"
	"github.com/starford/vaultedit/internal/storage"
)

// DefaultTemplatesDir holds note templates, relative to the vault root.
const DefaultTemplatesDir = "templates"

// TemplateStore serves the .md files of one vault directory as templates.
// A template's name is its path inside the directory without .md.
type TemplateStore struct {
	files storage.Provider
	dir   string
}

// NewTemplateStore creates a template store for dir.
func NewTemplateStore(files storage.Provider, dir string) *TemplateStore {
	if dir == "" {
		dir = DefaultTemplatesDir
	}
	return &TemplateStore{files: files, dir: strings.Trim(dir, "/")}
}

// TemplateNames lists template names alphabetically. A missing directory
// means no templates.
func (s *TemplateStore) TemplateNames() ([]string, error) {
	if _, err := s.files.Stat(s.dir); errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	metas, err := s.files.List(s.dir)
	if err != nil {
		return nil, fmt.Errorf("vault: templates: %w", err)
	}
	names := make([]string, 0, len(metas))
	for _, m := range metas {
		rel := strings.TrimPrefix(m.Path, s.dir+"/")
		names = append(names, strings.TrimSuffix(rel, path.Ext(rel)))
	}
	sort.Strings(names)
	return names, nil
}

// TemplateBody returns the content of the named template.
func (s *TemplateStore) TemplateBody(name string) (string, error) {
	data, err := s.files.Read(path.Join(s.dir, name+".md"))
	if err != nil {
		return "", fmt.Errorf("vault: template %s: %w", name, err)
	}
	return string(data), nil
}

// IsTemplate reports whether p lives in the templates directory.
func (s *TemplateStore) IsTemplate(p string) bool {
	return strings.HasPrefix(p, s.dir+"/")
}

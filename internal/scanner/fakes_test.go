package scanner_test

import (
	"fmt"

	"github.com/starford/vaultedit/internal/apperr"
	"github.com/starford/vaultedit/internal/index"
)

// flakyStore fails the first few ApplyScan calls with a write conflict.
type flakyStore struct {
	*index.DB
	failures int
	calls    int
}

func (s *flakyStore) ApplyScan(path, sum string, tags, links []string) (int64, error) {
	s.calls++
	if s.calls <= s.failures {
		return 0, fmt.Errorf("index: apply scan: %w", apperr.ErrStoreConflict)
	}
	return s.DB.ApplyScan(path, sum, tags, links)
}

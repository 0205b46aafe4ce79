package index

import "github.com/starford/vaultedit/internal/models"

// Store is the metadata store contract. Consumers should depend on this
// interface rather than the concrete *DB type.
type Store interface {
	UpsertFile(path string) (int64, error)
	ReplaceFileTags(fileID int64, names []string) error
	ReplaceFileBacklinks(fileID int64, targets []string) error
	ApplyScan(path, checksum string, tags, links []string) (int64, error)
	DeleteFile(path string) error

	FileByPath(path string) (models.File, error)
	FileByName(target string) (models.File, error)
	ListFiles() ([]models.File, error)
	AllChecksums() (map[string]string, error)
	GetChecksum(path string) (string, error)
	QueryTags(prefix string) ([]string, error)
	AllTags() ([]models.Candidate, error)
	TagsOfFile(fileID int64) ([]string, error)
	FilesWithTag(tag string) ([]models.File, error)
	QueryBacklinksTo(fileID int64) ([]models.File, error)
	BacklinksToPath(path string) ([]models.File, error)
	OutgoingLinks(fileID int64) ([]models.Backlink, error)
	QueryAutocompleteCandidates(kind Kind, prefix string, limit int) ([]models.Candidate, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

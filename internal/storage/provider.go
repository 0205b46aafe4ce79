// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/vaultedit/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List returns every .md file under dir, skipping hidden directories.
	List(dir string) ([]models.FileMeta, error)
	// ReadDir returns the direct children of dir: subdirectories and .md files.
	ReadDir(dir string) ([]models.FileMeta, error)
	// Stat returns metadata for one path.
	Stat(path string) (models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Copy duplicates src to dst.
	Copy(src, dst string) error
}

// Package models defines the rows and records shared by the index, the
// scanner bridge and the session.
package models

import "time"

// File is an indexed Markdown file. Path is relative to the vault root with
// forward slashes.
type File struct {
	ID          int64     `json:"id"`
	Path        string    `json:"path"`
	DisplayName string    `json:"display_name"`
	Checksum    string    `json:"checksum,omitempty"`
	ScannedAt   time.Time `json:"scanned_at"`
}

// Tag is a case-normalized tag name.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Backlink is one [[target]] reference from a source file. ResolvedFileID is
// nil while no file with a matching name exists.
type Backlink struct {
	SourceFileID   int64  `json:"source_file_id"`
	SourcePath     string `json:"source_path,omitempty"`
	TargetName     string `json:"target_name"`
	ResolvedFileID *int64 `json:"resolved_file_id,omitempty"`
}

// Dangling reports whether the link has no target file yet.
func (b Backlink) Dangling() bool {
	return b.ResolvedFileID == nil
}

// ScanResult is what the external scanner reports for one file.
type ScanResult struct {
	Path  string   `json:"path"`
	Tags  []string `json:"tags"`
	Links []string `json:"links"`
}

// FileMeta is a directory entry in the vault tree.
type FileMeta struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Candidate is one autocomplete suggestion.
type Candidate struct {
	Text   string `json:"text"`
	Detail string `json:"detail,omitempty"`
	Uses   int    `json:"uses,omitempty"`
}

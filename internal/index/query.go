package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/vaultedit/internal/apperr"
	"github.com/starford/vaultedit/internal/models"
)

// Kind selects an autocomplete source in the store.
type Kind string

const (
	KindTag  Kind = "tag"
	KindFile Kind = "file"
)

const fileColumns = `f.id, f.path, f.display_name, f.checksum, f.scanned_at`

func scanFile(row interface{ Scan(...any) error }) (models.File, error) {
	var (
		f         models.File
		scannedAt sql.NullTime
	)
	if err := row.Scan(&f.ID, &f.Path, &f.DisplayName, &f.Checksum, &scannedAt); err != nil {
		return models.File{}, err
	}
	if scannedAt.Valid {
		f.ScannedAt = scannedAt.Time
	}
	return f, nil
}

func (db *DB) queryFiles(op, query string, args ...any) ([]models.File, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: %s: %w", op, err)
	}
	defer rows.Close()
	var out []models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("index: %s: %w", op, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (db *DB) queryStrings(op, query string, args ...any) ([]string, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: %s: %w", op, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("index: %s: %w", op, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FileByPath returns the file row for path or apperr.ErrNotFound.
func (db *DB) FileByPath(path string) (models.File, error) {
	f, err := scanFile(db.conn.QueryRow(`SELECT `+fileColumns+` FROM files f WHERE f.path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return models.File{}, fmt.Errorf("index: file %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return models.File{}, fmt.Errorf("index: file %s: %w", path, err)
	}
	return f, nil
}

// FileByName resolves a link target to a file the way backlinks are
// resolved, or apperr.ErrNotFound.
func (db *DB) FileByName(target string) (models.File, error) {
	key := NameKey(target)
	f, err := scanFile(db.conn.QueryRow(
		`SELECT `+fileColumns+` FROM files f WHERE f.name_key = ? ORDER BY f.id LIMIT 1`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return models.File{}, fmt.Errorf("index: file named %q: %w", target, apperr.ErrNotFound)
	}
	if err != nil {
		return models.File{}, fmt.Errorf("index: file named %q: %w", target, err)
	}
	return f, nil
}

// ListFiles returns every indexed file ordered by path.
func (db *DB) ListFiles() ([]models.File, error) {
	return db.queryFiles("list files", `SELECT `+fileColumns+` FROM files f ORDER BY f.path`)
}

// AllChecksums maps every indexed path to its last scanned checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, fmt.Errorf("index: all checksums: %w", err)
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// GetChecksum returns the stored checksum for path, or "" if not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum %s: %w", path, err)
	}
	return cs, nil
}

// QueryTags returns tag names starting with prefix (case-insensitive),
// alphabetically.
func (db *DB) QueryTags(prefix string) ([]string, error) {
	p := NormalizeTag(prefix)
	return db.queryStrings("query tags", `
		SELECT name FROM tags
		WHERE substr(name, 1, length(?)) = ?
		ORDER BY name`, p, p)
}

// AllTags returns every tag with the number of files carrying it.
func (db *DB) AllTags() ([]models.Candidate, error) {
	return db.QueryAutocompleteCandidates(KindTag, "", 0)
}

// TagsOfFile returns the tags of one file, alphabetically.
func (db *DB) TagsOfFile(fileID int64) ([]string, error) {
	return db.queryStrings("tags of file", `
		SELECT t.name FROM file_tags ft JOIN tags t ON t.id = ft.tag_id
		WHERE ft.file_id = ? ORDER BY t.name`, fileID)
}

// FilesWithTag returns the files carrying tag, by path.
func (db *DB) FilesWithTag(tag string) ([]models.File, error) {
	return db.queryFiles("files with tag", `
		SELECT `+fileColumns+` FROM files f
		JOIN file_tags ft ON ft.file_id = f.id
		JOIN tags t ON t.id = ft.tag_id
		WHERE t.name = ?
		ORDER BY f.path`, NormalizeTag(tag))
}

// QueryBacklinksTo returns the files that link to fileID.
func (db *DB) QueryBacklinksTo(fileID int64) ([]models.File, error) {
	return db.queryFiles("backlinks to", `
		SELECT DISTINCT `+fileColumns+` FROM backlinks b
		JOIN files f ON f.id = b.source_file_id
		WHERE b.resolved_file_id = ?
		ORDER BY f.path`, fileID)
}

// BacklinksToPath is QueryBacklinksTo addressed by path.
func (db *DB) BacklinksToPath(path string) ([]models.File, error) {
	id, err := db.fileIDByPath(path)
	if err != nil {
		return nil, err
	}
	return db.QueryBacklinksTo(id)
}

// OutgoingLinks returns the backlink rows whose source is fileID.
func (db *DB) OutgoingLinks(fileID int64) ([]models.Backlink, error) {
	rows, err := db.conn.Query(`
		SELECT b.source_file_id, f.path, b.target_name, b.resolved_file_id
		FROM backlinks b JOIN files f ON f.id = b.source_file_id
		WHERE b.source_file_id = ?
		ORDER BY b.target_name`, fileID)
	if err != nil {
		return nil, fmt.Errorf("index: outgoing links: %w", err)
	}
	defer rows.Close()
	var out []models.Backlink
	for rows.Next() {
		var (
			b        models.Backlink
			resolved sql.NullInt64
		)
		if err := rows.Scan(&b.SourceFileID, &b.SourcePath, &b.TargetName, &resolved); err != nil {
			return nil, fmt.Errorf("index: outgoing links: %w", err)
		}
		if resolved.Valid {
			id := resolved.Int64
			b.ResolvedFileID = &id
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// QueryAutocompleteCandidates returns names of the given kind containing
// prefix (case-insensitive). Names starting with prefix come first, then
// by usage (files per tag, or links per file name) descending, then
// alphabetically. limit <= 0 means no limit.
//
// File candidates include dangling link targets so that notes that are
// linked but not yet written can be completed too.
func (db *DB) QueryAutocompleteCandidates(kind Kind, prefix string, limit int) ([]models.Candidate, error) {
	var query string
	var p string
	switch kind {
	case KindTag:
		p = NormalizeTag(prefix)
		query = `
			SELECT t.name, '' AS detail, COUNT(ft.file_id) AS uses,
				substr(t.name, 1, length(?1)) = ?1 AS is_prefix
			FROM tags t LEFT JOIN file_tags ft ON ft.tag_id = t.id
			WHERE instr(t.name, ?1) > 0
			GROUP BY t.id`
	case KindFile:
		p = strings.ToLower(strings.TrimSpace(prefix))
		query = `
			SELECT name, MIN(detail) AS detail, SUM(uses) AS uses,
				substr(lower(name), 1, length(?1)) = ?1 AS is_prefix
			FROM (
				SELECT f.display_name AS name, f.path AS detail,
					(SELECT COUNT(*) FROM backlinks b WHERE b.resolved_file_id = f.id) AS uses
				FROM files f
				WHERE instr(f.name_key, ?1) > 0
				UNION ALL
				SELECT b.target_name AS name, '' AS detail, COUNT(*) AS uses
				FROM backlinks b
				WHERE b.resolved_file_id IS NULL AND instr(b.target_key, ?1) > 0
				GROUP BY b.target_name
			)
			GROUP BY name`
	default:
		return nil, fmt.Errorf("index: unknown candidate kind %q", kind)
	}
	query += ` ORDER BY is_prefix DESC, uses DESC, name`
	args := []any{p}
	if limit > 0 {
		query += ` LIMIT ?2`
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: autocomplete %s: %w", kind, err)
	}
	defer rows.Close()
	var out []models.Candidate
	for rows.Next() {
		var (
			c        models.Candidate
			isPrefix bool
		)
		if err := rows.Scan(&c.Text, &c.Detail, &c.Uses, &isPrefix); err != nil {
			return nil, fmt.Errorf("index: autocomplete %s: %w", kind, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

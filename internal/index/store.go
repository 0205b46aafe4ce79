package index

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/starford/vaultedit/internal/apperr"
)

// UpsertFile ensures a row for path and returns its id. Dangling backlinks
// anywhere in the store that name this file become resolved.
func (db *DB) UpsertFile(path string) (int64, error) {
	var id int64
	err := db.withTx("upsert file", func(tx *sql.Tx) error {
		var err error
		id, err = upsertFile(tx, path)
		return err
	})
	return id, err
}

// ReplaceFileTags makes the file's tag set equal to names. Tags no longer
// referenced by any file are removed.
func (db *DB) ReplaceFileTags(fileID int64, names []string) error {
	return db.withTx("replace file tags", func(tx *sql.Tx) error {
		return replaceFileTags(tx, fileID, names)
	})
}

// ReplaceFileBacklinks makes the file's outgoing link set equal to targets
// and resolves each against existing files.
func (db *DB) ReplaceFileBacklinks(fileID int64, targets []string) error {
	return db.withTx("replace file backlinks", func(tx *sql.Tx) error {
		return replaceFileBacklinks(tx, fileID, targets)
	})
}

// ApplyScan records one scan of path in a single transaction: the file row,
// its tags, its links and its checksum. Either all of it lands or none.
func (db *DB) ApplyScan(path, checksum string, tags, links []string) (int64, error) {
	var id int64
	err := db.withTx("apply scan", func(tx *sql.Tx) error {
		var err error
		if id, err = upsertFile(tx, path); err != nil {
			return err
		}
		if err := replaceFileTags(tx, id, tags); err != nil {
			return err
		}
		if err := replaceFileBacklinks(tx, id, links); err != nil {
			return err
		}
		_, err = tx.Exec(`UPDATE files SET checksum = ?, scanned_at = ? WHERE id = ?`,
			checksum, time.Now().UTC(), id)
		return err
	})
	return id, err
}

// DeleteFile forgets path. Its tags and outgoing links go with it; links
// from other files that pointed at it become dangling again.
func (db *DB) DeleteFile(path string) error {
	return db.withTx("delete file", func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRow(`SELECT id FROM files WHERE path = ?`, path).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE backlinks SET resolved_file_id = NULL WHERE resolved_file_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM files WHERE id = ?`, id); err != nil {
			return err
		}
		if err := gcTags(tx); err != nil {
			return err
		}
		// Another file with the same name may now be the best match.
		return resolveKey(tx, FileKey(path))
	})
}

func upsertFile(tx *sql.Tx, path string) (int64, error) {
	name := DisplayName(path)
	key := FileKey(path)
	_, err := tx.Exec(`
		INSERT INTO files (path, display_name, name_key) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			display_name = excluded.display_name,
			name_key     = excluded.name_key
	`, path, name, key)
	if err != nil {
		return 0, fmt.Errorf("upsert %s: %w", path, err)
	}
	var id int64
	if err := tx.QueryRow(`SELECT id FROM files WHERE path = ?`, path).Scan(&id); err != nil {
		return 0, err
	}
	if err := resolveKey(tx, key); err != nil {
		return 0, err
	}
	return id, nil
}

// resolveKey points every backlink whose target matches key at the oldest
// file with that name, or NULL when there is none.
func resolveKey(tx *sql.Tx, key string) error {
	if key == "" {
		return nil
	}
	_, err := tx.Exec(`
		UPDATE backlinks SET resolved_file_id = (
			SELECT id FROM files WHERE name_key = backlinks.target_key ORDER BY id LIMIT 1
		)
		WHERE target_key = ?
	`, key)
	return err
}

func dedupe(in []string, norm func(string) string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = norm(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func replaceFileTags(tx *sql.Tx, fileID int64, names []string) error {
	want := dedupe(names, NormalizeTag)

	rows, err := tx.Query(`
		SELECT t.id, t.name FROM file_tags ft JOIN tags t ON t.id = ft.tag_id
		WHERE ft.file_id = ?`, fileID)
	if err != nil {
		return err
	}
	have := make(map[string]int64)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return err
		}
		have[name] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	wantSet := make(map[string]struct{}, len(want))
	for _, name := range want {
		wantSet[name] = struct{}{}
		if _, ok := have[name]; ok {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO file_tags (file_id, tag_id)
			SELECT ?, id FROM tags WHERE name = ?`, fileID, name); err != nil {
			return err
		}
	}
	removed := false
	for name, tagID := range have {
		if _, ok := wantSet[name]; ok {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM file_tags WHERE file_id = ? AND tag_id = ?`, fileID, tagID); err != nil {
			return err
		}
		removed = true
	}
	if removed {
		return gcTags(tx)
	}
	return nil
}

// gcTags deletes tags no file references.
func gcTags(tx *sql.Tx) error {
	_, err := tx.Exec(`DELETE FROM tags WHERE NOT EXISTS (SELECT 1 FROM file_tags WHERE tag_id = tags.id)`)
	return err
}

func replaceFileBacklinks(tx *sql.Tx, fileID int64, targets []string) error {
	want := dedupe(targets, func(s string) string {
		if NameKey(s) == "" {
			return ""
		}
		return s
	})

	rows, err := tx.Query(`SELECT target_name FROM backlinks WHERE source_file_id = ?`, fileID)
	if err != nil {
		return err
	}
	have := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		have[name] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	wantSet := make(map[string]struct{}, len(want))
	for _, name := range want {
		wantSet[name] = struct{}{}
		if _, ok := have[name]; ok {
			continue
		}
		key := NameKey(name)
		if _, err := tx.Exec(`
			INSERT INTO backlinks (source_file_id, target_name, target_key, resolved_file_id)
			VALUES (?, ?, ?, (SELECT id FROM files WHERE name_key = ? ORDER BY id LIMIT 1))`,
			fileID, name, key, key); err != nil {
			return err
		}
	}
	for name := range have {
		if _, ok := wantSet[name]; ok {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM backlinks WHERE source_file_id = ? AND target_name = ?`, fileID, name); err != nil {
			return err
		}
	}
	return nil
}

// fileIDByPath returns the id for path or apperr.ErrNotFound.
func (db *DB) fileIDByPath(path string) (int64, error) {
	var id int64
	err := db.conn.QueryRow(`SELECT id FROM files WHERE path = ?`, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("index: file %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("index: file %s: %w", path, err)
	}
	return id, nil
}

// Package journal keeps the on-disk content of files as it was before each
// save, so a save can be reverted after the editor has exited.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // register sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS saves (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path   TEXT NOT NULL,
	op          TEXT NOT NULL,
	old_content BLOB,
	created     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saves_path ON saves(file_path, id);
`

// Op is the kind of change a save made to a file.
type Op string

const (
	// OpModify means the file existed and its old content is kept.
	OpModify Op = "modify"
	// OpCreate means the save created the file.
	OpCreate Op = "create"
)

// ErrNoEntry is returned by Revert when nothing is journaled for a path.
var ErrNoEntry = errors.New("no journal entry")

// Entry describes one journaled save.
type Entry struct {
	ID      int64
	Path    string
	Op      Op
	Size    int
	Created time.Time
}

// Journal is a SQLite-backed save journal.
type Journal struct {
	mu   sync.Mutex
	db   *sql.DB
	keep int
}

// Open creates or opens a journal database at dbPath. At most keep entries
// are retained per file.
func Open(dbPath string, keep int) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if keep < 1 {
		keep = 1
	}
	return &Journal{db: db, keep: keep}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// RecordModify stores the content filePath had before a save overwrote it.
// Failures are logged; a save never fails because the journal did.
func (j *Journal) RecordModify(filePath string, oldContent []byte) {
	j.record(filePath, OpModify, oldContent)
}

// RecordCreate records that a save created filePath.
func (j *Journal) RecordCreate(filePath string) {
	j.record(filePath, OpCreate, nil)
}

func (j *Journal) record(filePath string, op Op, content []byte) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	filePath = absPath(filePath)
	if op == OpModify && content == nil {
		content = []byte{}
	}
	_, err := j.db.Exec(
		`INSERT INTO saves (file_path, op, old_content, created) VALUES (?, ?, ?, ?)`,
		filePath, string(op), content, time.Now().Unix(),
	)
	if err != nil {
		log.Warn().Err(err).Str("file", filePath).Str("op", string(op)).Msg("journal: failed to record save")
		return
	}
	j.prune(filePath)
}

// prune drops all but the newest keep entries of filePath. Must be called
// with j.mu held.
func (j *Journal) prune(filePath string) {
	res, err := j.db.Exec(
		`DELETE FROM saves WHERE file_path = ? AND id NOT IN (
			SELECT id FROM saves WHERE file_path = ? ORDER BY id DESC LIMIT ?
		)`,
		filePath, filePath, j.keep,
	)
	if err != nil {
		log.Warn().Err(err).Str("file", filePath).Msg("journal: failed to prune")
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Debug().Int64("deleted", n).Str("file", filePath).Msg("journal: pruned old saves")
	}
}

// Entries lists the journaled saves of filePath, newest first.
func (j *Journal) Entries(filePath string) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	filePath = absPath(filePath)
	rows, err := j.db.Query(
		`SELECT id, op, length(old_content), created FROM saves
		 WHERE file_path = ? ORDER BY id DESC`,
		filePath,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var op string
		var size sql.NullInt64
		var created int64
		if err := rows.Scan(&e.ID, &op, &size, &created); err != nil {
			return nil, err
		}
		e.Path = filePath
		e.Op = Op(op)
		e.Size = int(size.Int64)
		e.Created = time.Unix(created, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Revert undoes the newest journaled save of filePath: modified files get
// their old content back and created files are removed. The entry is
// consumed, so repeated calls walk further back.
func (j *Journal) Revert(filePath string) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	filePath = absPath(filePath)
	var e Entry
	var op string
	var content []byte
	var created int64
	err := j.db.QueryRow(
		`SELECT id, op, old_content, created FROM saves
		 WHERE file_path = ? ORDER BY id DESC LIMIT 1`,
		filePath,
	).Scan(&e.ID, &op, &content, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%s: %w", filePath, ErrNoEntry)
	}
	if err != nil {
		return Entry{}, err
	}
	e.Path = filePath
	e.Op = Op(op)
	e.Size = len(content)
	e.Created = time.Unix(created, 0)

	switch e.Op {
	case OpModify:
		if err := os.WriteFile(filePath, content, 0644); err != nil {
			return Entry{}, fmt.Errorf("restore %s: %w", filePath, err)
		}
	case OpCreate:
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			return Entry{}, fmt.Errorf("remove %s: %w", filePath, err)
		}
	}

	if _, err := j.db.Exec(`DELETE FROM saves WHERE id = ?`, e.ID); err != nil {
		log.Warn().Err(err).Int64("id", e.ID).Msg("journal: failed to consume entry")
	}
	return e, nil
}

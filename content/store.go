package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DefaultPageSize is used when a query does not set one.
const DefaultPageSize = 20

// Store wraps a SQLite database of CMS documents.
type Store struct {
	db *sql.DB
}

var _ Querier = (*Store)(nil)

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the site read while an admin save is in progress; writers wait
	// on the busy timeout instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	if path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    uid TEXT NOT NULL,
    type TEXT NOT NULL,
    date TEXT NOT NULL,
    tags TEXT NOT NULL,
    data TEXT NOT NULL,
    slices TEXT NOT NULL,
    UNIQUE (type, uid)
);
CREATE INDEX IF NOT EXISTS idx_documents_type_date ON documents(type, date);

CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

const documentColumns = `id, uid, type, date, tags, data, slices`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var d Document
	var tags, data, slices string
	if err := row.Scan(&d.ID, &d.UID, &d.Type, &d.Date, &tags, &data, &slices); err != nil {
		return Document{}, err
	}
	d.Tags = ParseTags(tags)
	if err := json.Unmarshal([]byte(data), &d.Data); err != nil {
		return Document{}, fmt.Errorf("decode data of %s/%s: %w", d.Type, d.UID, err)
	}
	if err := json.Unmarshal([]byte(slices), &d.Slices); err != nil {
		return Document{}, fmt.Errorf("decode slices of %s/%s: %w", d.Type, d.UID, err)
	}
	return d, nil
}

// QueryByType returns one page of documents of docType. Pages are 1-based and
// ordered by date, ties broken by uid so paging is deterministic. When q.Tags
// is set, documents carrying any of them match.
func (s *Store) QueryByType(ctx context.Context, docType string, q Query) (Response, error) {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	where := `type = ?`
	args := []any{docType}
	if tags := normalizeTags(q.Tags); len(tags) > 0 {
		clauses := make([]string, len(tags))
		for i, t := range tags {
			clauses[i] = `instr(tags, ',' || ? || ',') > 0`
			args = append(args, t)
		}
		where += ` AND (` + strings.Join(clauses, ` OR `) + `)`
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&total); err != nil {
		return Response{}, err
	}

	resp := Response{
		Results:        []Document{},
		Page:           q.Page,
		ResultsPerPage: q.PageSize,
		TotalResults:   total,
		TotalPages:     (total + q.PageSize - 1) / q.PageSize,
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return resp, nil
	}

	order := `date DESC, uid ASC`
	if q.Ordering == DateAsc {
		order = `date ASC, uid ASC`
	}
	pageArgs := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE `+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		pageArgs...)
	if err != nil {
		return Response{}, err
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return Response{}, err
		}
		resp.Results = append(resp.Results, d)
	}
	return resp, rows.Err()
}

// GetByUID returns the document of docType with the given uid.
func (s *Store) GetByUID(ctx context.Context, docType, uid string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE type = ? AND uid = ?`, docType, uid)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return d, err
}

// GetSingle returns the most recent document of a singleton type such as
// the home page or the footer.
func (s *Store) GetSingle(ctx context.Context, docType string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE type = ? ORDER BY date DESC LIMIT 1`, docType)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return d, err
}

// SaveDocument upserts a document keyed by (type, uid). A missing ID is
// generated; an existing document keeps its ID.
func (s *Store) SaveDocument(ctx context.Context, d Document) (Document, error) {
	if d.Type == "" || d.UID == "" {
		return Document{}, fmt.Errorf("content: document type and uid are required")
	}
	if d.ID == "" {
		var existing string
		err := s.db.QueryRowContext(ctx, `SELECT id FROM documents WHERE type = ? AND uid = ?`, d.Type, d.UID).Scan(&existing)
		switch {
		case err == nil:
			d.ID = existing
		case errors.Is(err, sql.ErrNoRows):
			d.ID = uuid.NewString()
		default:
			return Document{}, err
		}
	}
	if d.Data == nil {
		d.Data = map[string]any{}
	}
	if d.Slices == nil {
		d.Slices = []Block{}
	}
	data, err := json.Marshal(d.Data)
	if err != nil {
		return Document{}, fmt.Errorf("encode data: %w", err)
	}
	slices, err := json.Marshal(d.Slices)
	if err != nil {
		return Document{}, fmt.Errorf("encode slices: %w", err)
	}
	d.Tags = normalizeTags(d.Tags)
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UID, d.Type, d.Date, joinTags(d.Tags), string(data), string(slices))
	if err != nil {
		return Document{}, err
	}
	return d, nil
}

// DeleteDocument removes a document. Deleting a missing document is not an error.
func (s *Store) DeleteDocument(ctx context.Context, docType, uid string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE type = ? AND uid = ?`, docType, uid)
	return err
}

// ListAll returns every document of docType, newest first.
func (s *Store) ListAll(ctx context.Context, docType string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE type = ? ORDER BY date DESC, uid ASC`, docType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Image is the metadata of an uploaded image.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}

// SaveImage records an uploaded image.
func (s *Store) SaveImage(ctx context.Context, img Image) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO images (filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// ListImages returns uploaded images, newest first.
func (s *Store) ListImages(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename, original_name, width, height, size, uploaded_at FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ImageExists reports whether filename is already recorded.
func (s *Store) ImageExists(ctx context.Context, filename string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images WHERE filename = ?`, filename).Scan(&n)
	return n > 0, err
}

// DeleteImage removes an image record.
func (s *Store) DeleteImage(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE filename = ?`, filename)
	return err
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ","
	}
	return "," + strings.Join(tags, ",") + ","
}

// normalizeTags lowercases, trims and drops empty tags.
func normalizeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !strings.Contains(t, ",") {
			out = append(out, t)
		}
	}
	return out
}

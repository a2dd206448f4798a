// Package sqlite provides a SQLite-backed record store using the pure-Go
// modernc.org/sqlite driver. Field values are stored as a JSON document
// per record; counters rely on the conditional-save path, which compares
// the stored value inside the UPDATE itself.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/arthur-debert/automat/pkg/errors"
	"github.com/arthur-debert/automat/pkg/record"
	"github.com/arthur-debert/automat/pkg/storage"
	"github.com/arthur-debert/automat/pkg/storage/filter"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT    NOT NULL,
	kind       TEXT    NOT NULL,
	namespace  TEXT    NOT NULL,
	vals       TEXT    NOT NULL,
	created_by TEXT    NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE (kind, id)
);
CREATE INDEX IF NOT EXISTS idx_records_kind ON records (kind);
`

// Store is a SQLite implementation of storage.Store
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)
var _ storage.ConditionalSaver = (*Store)(nil)

// Open opens (or creates) a record store at the given path. WAL mode and
// a busy timeout are enforced so concurrent dispatches don't trip over
// SQLite's default locking.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrStorage, "failed to open sqlite store %s", path)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, errors.ErrStorage, "failed to ping sqlite store %s", path)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to set WAL mode")
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to set busy timeout")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to create schema")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// FindByID returns the record with the given ID and kind
func (s *Store) FindByID(ctx context.Context, id, kind string) (*record.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, namespace, vals, created_by, created_at, updated_at
		 FROM records WHERE kind = ? AND id = ?`, kind, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "no %s record with ID %s", kind, id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to read record")
	}
	return rec, nil
}

// FindMany returns all records of the kind matching the filter
// expression, in insertion order
func (s *Store) FindMany(ctx context.Context, expr, kind string) ([]*record.Record, error) {
	f, err := filter.Parse(expr)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, namespace, vals, created_by, created_at, updated_at
		 FROM records WHERE kind = ? ORDER BY rowid`, kind)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to query records")
	}
	defer func() { _ = rows.Close() }()

	var out []*record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrStorage, "failed to scan record")
		}
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to iterate records")
	}
	return out, nil
}

// FindLast returns the most recently inserted record of the kind
func (s *Store) FindLast(ctx context.Context, kind string) (*record.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, namespace, vals, created_by, created_at, updated_at
		 FROM records WHERE kind = ? ORDER BY rowid DESC LIMIT 1`, kind)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "no %s records", kind)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to read record")
	}
	return rec, nil
}

// Save inserts the record when its ID is unset, updates it otherwise
func (s *Store) Save(ctx context.Context, rec *record.Record) (*record.Record, error) {
	vals, err := json.Marshal(rec.Values)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to encode record values")
	}
	now := time.Now().UTC()

	if rec.IsNew() {
		stored := rec.Clone()
		stored.ID = uuid.NewString()
		stored.CreatedAt = now
		stored.UpdatedAt = now
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO records (id, kind, namespace, vals, created_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			stored.ID, stored.Kind, stored.Namespace, string(vals),
			stored.CreatedBy, toMillis(stored.CreatedAt), toMillis(stored.UpdatedAt))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrStorage, "failed to insert record")
		}
		return stored, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET vals = ?, updated_at = ? WHERE kind = ? AND id = ?`,
		string(vals), toMillis(now), rec.Kind, rec.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to update record")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to read update result")
	}
	if affected == 0 {
		return nil, errors.Newf(errors.ErrNotFound, "no %s record with ID %s to update", rec.Kind, rec.ID)
	}
	return s.FindByID(ctx, rec.ID, rec.Kind)
}

// SaveIf persists the record only if the stored record's field still
// holds the previously observed value. The comparison happens inside the
// UPDATE, so the check-and-write is atomic at the storage level.
func (s *Store) SaveIf(ctx context.Context, rec *record.Record, field string, previous interface{}) (*record.Record, error) {
	if rec.IsNew() {
		return nil, errors.New(errors.ErrInvalidInput, "conditional save requires a persisted record")
	}
	vals, err := json.Marshal(rec.Values)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to encode record values")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET vals = ?, updated_at = ?
		 WHERE kind = ? AND id = ?
		   AND CAST(json_extract(vals, '$.' || ?) AS TEXT) = ?`,
		string(vals), toMillis(time.Now().UTC()), rec.Kind, rec.ID,
		field, stringify(previous))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to update record")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorage, "failed to read update result")
	}
	if affected == 0 {
		if _, err := s.FindByID(ctx, rec.ID, rec.Kind); err != nil {
			return nil, err
		}
		return nil, errors.Newf(errors.ErrSequenceConflict, "%s.%s changed concurrently", rec.Kind, field)
	}
	return s.FindByID(ctx, rec.ID, rec.Kind)
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*record.Record, error) {
	var rec record.Record
	var vals string
	var createdAt, updatedAt int64

	err := row.Scan(&rec.ID, &rec.Kind, &rec.Namespace, &vals,
		&rec.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(vals), &rec.Values); err != nil {
		return nil, err
	}
	if rec.Values == nil {
		rec.Values = make(record.Values)
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return &rec, nil
}

func stringify(v interface{}) string {
	probe := record.New("", "").Set("v", v)
	return probe.String("v")
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"modernc.org/sqlite"

	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/record"
)

// Dialect selects SQL syntax for a SQLStore.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// sqliteConstraint is the primary result code for constraint violations.
const sqliteConstraint = 19

// pqUniqueViolation is the Postgres SQLSTATE for a duplicate key.
const pqUniqueViolation = "23505"

// SQLStore keeps every collection in one documents table with the record as JSON.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return NewSQLStore(ctx, db, DialectSQLite)
}

// OpenPostgres connects to Postgres with a lib/pq connection string.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return NewSQLStore(ctx, db, DialectPostgres)
}

// NewSQLStore wraps db and creates the schema if missing.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	textKey := "TEXT"
	if s.dialect == DialectPostgres {
		// Byte order, to match cursor comparisons.
		textKey = `TEXT COLLATE "C"`
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id ` + textKey + ` NOT NULL,
			created_at ` + textKey + `,
			data TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS documents_created_idx ON documents (collection, created_at, id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating %s schema: %w", s.dialect, err)
		}
	}
	return nil
}

// Capabilities implements Store. SQL backends always serve compound queries.
func (s *SQLStore) Capabilities() Capabilities {
	return Capabilities{CompoundQueries: true}
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Create implements Store.
func (s *SQLStore) Create(ctx context.Context, collection string, rec record.Record) (record.Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	stored := prepareCreate(rec, s.now(), func() string { return ulid.Make().String() })
	data, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}

	b := s.builder()
	query := "INSERT INTO documents (collection, id, created_at, data) VALUES (" +
		strings.Join([]string{
			b.arg(collection), b.arg(stored.ID()), b.arg(createdAtColumn(stored)), b.arg(string(data)),
		}, ", ") + ")"

	if _, err := s.db.ExecContext(ctx, query, b.args...); err != nil {
		if s.isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrAlreadyExists, collection, stored.ID())
		}
		return nil, fmt.Errorf("inserting record: %w", err)
	}
	return stored, nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, collection, id string) (record.Record, error) {
	return s.get(ctx, s.db, collection, id, false)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) get(ctx context.Context, q queryRower, collection, id string, forUpdate bool) (record.Record, error) {
	b := s.builder()
	query := "SELECT data FROM documents WHERE collection = " + b.arg(collection) + " AND id = " + b.arg(id)
	if forUpdate && s.dialect == DialectPostgres {
		query += " FOR UPDATE"
	}

	var data string
	if err := q.QueryRowContext(ctx, query, b.args...).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
		}
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return decodeRecord(data)
}

// Update implements Store.
func (s *SQLStore) Update(ctx context.Context, collection, id string, patch record.Record) (record.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.get(ctx, tx, collection, id, true)
	if err != nil {
		return nil, err
	}
	updated := current.Merge(preparePatch(patch, s.now())).Normalize()
	data, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}

	b := s.builder()
	query := "UPDATE documents SET data = " + b.arg(string(data)) +
		" WHERE collection = " + b.arg(collection) + " AND id = " + b.arg(id)
	if _, err := tx.ExecContext(ctx, query, b.args...); err != nil {
		return nil, fmt.Errorf("updating record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update: %w", err)
	}
	return updated, nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	b := s.builder()
	query := "DELETE FROM documents WHERE collection = " + b.arg(collection) + " AND id = " + b.arg(id)
	res, err := s.db.ExecContext(ctx, query, b.args...)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}

// Query implements Store.
func (s *SQLStore) Query(ctx context.Context, q Query) (Result, error) {
	if err := ValidateQuery(q); err != nil {
		return Result{}, err
	}

	query, args, err := s.buildQuery(q)
	if err != nil {
		return Result{}, err
	}

	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "store").
		Str("operation", "query").
		Str("dialect", string(s.dialect)).
		Str("sql", query).
		Msg("running query")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("querying %s: %w", q.Collection, err)
	}
	defer rows.Close()

	result := Result{Records: []record.Record{}}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return Result{}, fmt.Errorf("scanning %s: %w", q.Collection, err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return Result{}, err
		}
		result.Records = append(result.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterating %s: %w", q.Collection, err)
	}

	if n := len(result.Records); n > 0 {
		result.Next = encodeCursor(keyOf(result.Records[n-1]))
	}
	return result, nil
}

func (s *SQLStore) buildQuery(q Query) (string, []any, error) {
	b := s.builder()
	where := []string{"collection = " + b.arg(q.Collection)}
	for _, f := range q.Where {
		where = append(where, s.fieldText(f.Field)+" = "+b.arg(f.Value))
	}

	ordered := q.OrderBy != ""
	dir, op := "ASC", ">"
	if ordered && q.Descending {
		dir, op = "DESC", "<"
	}

	if q.StartAfter != "" {
		after, err := decodeCursor(q.StartAfter)
		if err != nil {
			return "", nil, err
		}
		switch {
		case !ordered:
			where = append(where, "id > "+b.arg(after.ID))
		case after.CreatedAt == "":
			where = append(where, "(created_at IS NULL AND id "+op+" "+b.arg(after.ID)+")")
		default:
			where = append(where, fmt.Sprintf(
				"(created_at %[1]s %[2]s OR (created_at = %[3]s AND id %[1]s %[4]s) OR created_at IS NULL)",
				op, b.arg(after.CreatedAt), b.arg(after.CreatedAt), b.arg(after.ID)))
		}
	}

	query := "SELECT data FROM documents WHERE " + strings.Join(where, " AND ")
	if ordered {
		query += " ORDER BY created_at " + dir + " NULLS LAST, id " + dir
	} else {
		query += " ORDER BY id ASC"
	}
	if q.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(q.Limit)
	}
	return query, b.args, nil
}

// fieldText extracts a JSON field as text. field has already been validated as an
// identifier, so it is safe to inline.
func (s *SQLStore) fieldText(field string) string {
	if s.dialect == DialectPostgres {
		return "((data::jsonb) ->> '" + field + "')"
	}
	path := "'$." + field + "'"
	return "(CASE json_type(data, " + path + ") WHEN 'true' THEN 'true' WHEN 'false' THEN 'false' " +
		"ELSE CAST(json_extract(data, " + path + ") AS TEXT) END)"
}

func (s *SQLStore) isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqliteConstraint
	}
	return false
}

func (s *SQLStore) builder() *argBuilder {
	return &argBuilder{dialect: s.dialect}
}

// argBuilder collects positional arguments and renders their placeholders.
type argBuilder struct {
	dialect Dialect
	args    []any
}

func (b *argBuilder) arg(v any) string {
	b.args = append(b.args, v)
	if b.dialect == DialectPostgres {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

func createdAtColumn(rec record.Record) any {
	if t, ok := rec.CreatedAt(); ok {
		return timeKey(t)
	}
	return nil
}

func decodeRecord(data string) (record.Record, error) {
	var rec record.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreCorrupted, err)
	}
	return rec, nil
}

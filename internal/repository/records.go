package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"challengr-backend/internal/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document is one record in a collection. CreatedAt is assigned by the
// database server at insert time.
type Document struct {
	ID        string
	Data      map[string]any
	CreatedAt time.Time
}

// RecordStore is a document store over a single Postgres JSONB table.
// Records are addressed by collection + id and queried by field equality
// or array membership.
type RecordStore struct {
	db *pgxpool.Pool
}

// NewRecordStore creates a new record store
func NewRecordStore(db *pgxpool.Pool) *RecordStore {
	return &RecordStore{db: db}
}

// Create inserts a new document with a generated id and returns it with the
// server-assigned creation timestamp
func (s *RecordStore) Create(ctx context.Context, collection string, data map[string]any) (*Document, error) {
	doc := &Document{
		ID:   uuid.New().String(),
		Data: data,
	}
	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	err := s.db.QueryRow(ctx, query, collection, doc.ID, data).Scan(&doc.CreatedAt)
	if err != nil {
		return nil, apperr.Store(fmt.Sprintf("create %s", collection), err)
	}
	return doc, nil
}

// Get retrieves a document by collection and id. A miss is reported as a
// StoreError wrapping apperr.ErrNotFound.
func (s *RecordStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	query := `
		SELECT id, data, created_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`
	var doc Document
	err := s.db.QueryRow(ctx, query, collection, id).Scan(&doc.ID, &doc.Data, &doc.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.Store(fmt.Sprintf("get %s/%s", collection, id), apperr.ErrNotFound)
		}
		return nil, apperr.Store(fmt.Sprintf("get %s/%s", collection, id), err)
	}
	return &doc, nil
}

// Set writes a document under a caller-chosen id, creating it if absent.
// With merge true the given fields are folded into the existing data;
// otherwise the data is replaced wholesale.
func (s *RecordStore) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data
	`
	if merge {
		query = `
			INSERT INTO documents (collection, id, data)
			VALUES ($1, $2, $3)
			ON CONFLICT (collection, id) DO UPDATE SET data = documents.data || EXCLUDED.data
		`
	}
	if _, err := s.db.Exec(ctx, query, collection, id, fields); err != nil {
		return apperr.Store(fmt.Sprintf("set %s/%s", collection, id), err)
	}
	return nil
}

// Query retrieves documents matching every field equality in eq, optionally
// bounded by a closed created-at interval. A limit of 0 means no limit.
// Results come back in creation order, so a re-run restarts the same
// sequence.
func (s *RecordStore) Query(ctx context.Context, collection string, eq map[string]string, from, to *time.Time, limit int) ([]Document, error) {
	query := `SELECT id, data, created_at FROM documents WHERE collection = $1`
	args := []any{collection}

	fields := make([]string, 0, len(eq))
	for f := range eq {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		args = append(args, f, eq[f])
		query += fmt.Sprintf(" AND data->>$%d = $%d", len(args)-1, len(args))
	}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	query += " ORDER BY created_at"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store(fmt.Sprintf("query %s", collection), err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Data, &doc.CreatedAt); err != nil {
			return nil, apperr.Store(fmt.Sprintf("query %s", collection), err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(fmt.Sprintf("query %s", collection), err)
	}
	return docs, nil
}

// QueryEquals retrieves documents whose field equals value
func (s *RecordStore) QueryEquals(ctx context.Context, collection, field, value string, limit int) ([]Document, error) {
	return s.Query(ctx, collection, map[string]string{field: value}, nil, nil, limit)
}

// QueryArrayContains retrieves documents whose array field contains value
func (s *RecordStore) QueryArrayContains(ctx context.Context, collection, field, value string) ([]Document, error) {
	query := `
		SELECT id, data, created_at
		FROM documents
		WHERE collection = $1 AND coalesce(data->$2, '[]'::jsonb) ? $3
		ORDER BY created_at
	`
	rows, err := s.db.Query(ctx, query, collection, field, value)
	if err != nil {
		return nil, apperr.Store(fmt.Sprintf("query %s by %s", collection, field), err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Data, &doc.CreatedAt); err != nil {
			return nil, apperr.Store(fmt.Sprintf("query %s by %s", collection, field), err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(fmt.Sprintf("query %s by %s", collection, field), err)
	}
	return docs, nil
}

// ArrayUnion appends value to an array field with set semantics: the value
// ends up in the array exactly once regardless of how many times this is
// called, and concurrent unions on the same document are safe. The statement
// is atomic at the database.
func (s *RecordStore) ArrayUnion(ctx context.Context, collection, id, field, value string) error {
	query := `
		UPDATE documents
		SET data = jsonb_set(data, ARRAY[$3],
			CASE WHEN coalesce(data->$3, '[]'::jsonb) ? $4
			     THEN coalesce(data->$3, '[]'::jsonb)
			     ELSE coalesce(data->$3, '[]'::jsonb) || to_jsonb($4::text)
			END)
		WHERE collection = $1 AND id = $2
	`
	result, err := s.db.Exec(ctx, query, collection, id, field, value)
	if err != nil {
		return apperr.Store(fmt.Sprintf("array-union %s/%s", collection, id), err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Store(fmt.Sprintf("array-union %s/%s", collection, id), apperr.ErrNotFound)
	}
	return nil
}

// Delete removes a document. Deleting an absent document is not an error.
func (s *RecordStore) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := s.db.Exec(ctx, query, collection, id); err != nil {
		return apperr.Store(fmt.Sprintf("delete %s/%s", collection, id), err)
	}
	return nil
}

// Package postgres implements the remote store contract on a jsonb
// document table. It exists for self-hosted deployments; the engine only
// ever sees the remote.Store interface.
//
// Expected schema:
//
//	CREATE TABLE documents (
//	    id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
//	    owner_id   text NOT NULL,
//	    collection text NOT NULL,
//	    data       jsonb NOT NULL,
//	    created_at timestamptz NOT NULL DEFAULT now(),
//	    updated_at timestamptz NOT NULL DEFAULT now()
//	);
//	CREATE INDEX documents_scope_idx ON documents (owner_id, collection);
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jvilaplana/cartera/internal/remote"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, owner, collection, id string) (remote.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE owner_id = $1 AND collection = $2 AND id = $3
	`, owner, collection, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return remote.Document{}, fmt.Errorf("%s/%s: %w", collection, id, remote.ErrNotFound)
		}

		return remote.Document{}, classify("getting document", err)
	}

	return doc, nil
}

func (s *Store) Query(ctx context.Context, owner, collection string, q remote.Query) ([]remote.Document, error) {
	query, args := buildQuery(owner, collection, q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("querying documents", err)
	}
	defer rows.Close()

	var docs []remote.Document

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, classify("scanning document", err)
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterating documents", err)
	}

	return docs, nil
}

func (s *Store) Create(ctx context.Context, owner, collection string, fields map[string]any) (remote.Document, error) {
	return create(ctx, s.db, owner, collection, fields)
}

func (s *Store) Update(ctx context.Context, owner, collection, id string, fields map[string]any) error {
	return update(ctx, s.db, owner, collection, id, fields)
}

func (s *Store) Delete(ctx context.Context, owner, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE owner_id = $1 AND collection = $2 AND id = $3
	`, owner, collection, id)
	if err != nil {
		return classify("deleting document", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, remote.ErrNotFound)
	}

	return nil
}

// BatchWrite runs all writes inside one database transaction; any failure
// rolls the whole batch back.
func (s *Store) BatchWrite(ctx context.Context, owner string, writes []remote.Write) ([]remote.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("beginning batch", err)
	}
	defer tx.Rollback()

	var created []remote.Document

	for _, w := range writes {
		switch w.Kind {
		case remote.WriteCreate:
			doc, err := create(ctx, tx, owner, w.Collection, w.Fields)
			if err != nil {
				return nil, err
			}

			created = append(created, doc)
		case remote.WriteUpdate:
			if err := update(ctx, tx, owner, w.Collection, w.ID, w.Fields); err != nil {
				return nil, err
			}
		case remote.WriteDelete:
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM documents
				WHERE owner_id = $1 AND collection = $2 AND id = $3
			`, owner, w.Collection, w.ID); err != nil {
				return nil, classify("batch delete", err)
			}
		default:
			return nil, fmt.Errorf("batch: unknown write kind %q: %w", w.Kind, remote.ErrRejected)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, classify("committing batch", err)
	}

	return created, nil
}

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func create(ctx context.Context, db executor, owner, collection string, fields map[string]any) (remote.Document, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return remote.Document{}, fmt.Errorf("encoding document: %w", err)
	}

	row := db.QueryRowContext(ctx, `
		INSERT INTO documents (owner_id, collection, data)
		VALUES ($1, $2, $3)
		RETURNING id, data, created_at, updated_at
	`, owner, collection, data)

	doc, err := scanDocument(row)
	if err != nil {
		return remote.Document{}, classify("creating document", err)
	}

	return doc, nil
}

func update(ctx context.Context, db executor, owner, collection, id string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding patch: %w", err)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE documents
		SET data = data || $4, updated_at = now()
		WHERE owner_id = $1 AND collection = $2 AND id = $3
	`, owner, collection, id, data)
	if err != nil {
		return classify("updating document", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, remote.ErrNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (remote.Document, error) {
	var (
		id, data             string
		createdAt, updatedAt time.Time
	)

	if err := s.Scan(&id, &data, &createdAt, &updatedAt); err != nil {
		return remote.Document{}, err
	}

	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return remote.Document{}, fmt.Errorf("decoding document %s: %w", id, err)
	}

	fields["createdAt"] = createdAt.UTC().Format(time.RFC3339)
	fields["updatedAt"] = updatedAt.UTC().Format(time.RFC3339)

	return remote.Document{ID: id, Fields: fields}, nil
}

// buildQuery renders a remote query into SQL. Timestamps live in their own
// columns; every other field is read out of the jsonb payload, cast to
// numeric when the predicate value is numeric.
func buildQuery(owner, collection string, q remote.Query) (string, []any) {
	var b strings.Builder

	b.WriteString(`
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE owner_id = $1 AND collection = $2`)

	args := []any{owner, collection}

	for _, p := range q.Where {
		op := map[remote.Op]string{remote.OpEqual: "=", remote.OpGte: ">=", remote.OpLte: "<="}[p.Op]
		args = append(args, predicateArg(p.Value))
		fmt.Fprintf(&b, " AND %s %s $%d", fieldExpr(p.Field, p.Value), op, len(args))
	}

	orderExpr := fieldExpr(q.OrderBy, "")

	if q.StartAfter != nil {
		cmp := ">"
		if q.Descending {
			cmp = "<"
		}

		args = append(args, predicateArg(q.StartAfter.OrderValue))
		orderArg := len(args)
		args = append(args, q.StartAfter.DocID)
		fmt.Fprintf(&b, " AND (%s, id::text) %s ($%d, $%d)", orderExpr, cmp, orderArg, len(args))
	}

	if q.OrderBy != "" {
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}

		fmt.Fprintf(&b, " ORDER BY %s %s, id::text %s", orderExpr, dir, dir)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	return b.String(), args
}

func fieldExpr(field string, value any) string {
	switch field {
	case "createdAt":
		return "to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD\"T\"HH24:MI:SS\"Z\"')"
	case "updatedAt":
		return "to_char(updated_at AT TIME ZONE 'UTC', 'YYYY-MM-DD\"T\"HH24:MI:SS\"Z\"')"
	}

	expr := fmt.Sprintf("data->>'%s'", strings.ReplaceAll(field, "'", ""))
	if _, ok := value.(float64); ok {
		expr = "(" + expr + ")::numeric"
	}

	return expr
}

func predicateArg(v any) any {
	if b, ok := v.(bool); ok {
		// jsonb booleans read back as "true"/"false" text.
		return fmt.Sprint(b)
	}

	return v
}

// classify maps driver errors onto the remote taxonomy: server-side
// rejections are permanent, everything else is treated as transient.
func classify(doing string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %s: %w", doing, pgErr.Message, remote.ErrRejected)
	}

	return fmt.Errorf("%s: %v: %w", doing, err, remote.ErrUnavailable)
}

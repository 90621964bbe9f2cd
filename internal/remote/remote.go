// Package remote defines the contract against the remote document store.
// Documents live in per-owner collections and are queried with conjunctive
// equality/range predicates, a single sort key and cursor-based continuation.
package remote

import (
	"context"
)

// Document is a single stored document. Field values are limited to the
// JSON-compatible set produced by the codecs: string, float64, bool,
// []string and map[string]any. Timestamps are server-assigned at write time
// and surface as RFC 3339 strings in the fields.
type Document struct {
	ID     string
	Fields map[string]any
}

// Op is a predicate operator.
type Op string

const (
	OpEqual Op = "=="
	OpGte   Op = ">="
	OpLte   Op = "<="
)

// Predicate constrains a single field. Predicates in a query are AND-combined.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Cursor points after the last returned document of an ordered query.
// Callers treat it as opaque; only the store interprets it.
type Cursor struct {
	OrderValue any
	DocID      string
}

// Query is an ordered, filtered, limited read against one collection.
// Equality predicates must precede range predicates so that backends with
// composite-index rules can serve the query.
type Query struct {
	Where      []Predicate
	OrderBy    string
	Descending bool
	Limit      int
	StartAfter *Cursor
}

// WriteKind discriminates entries of a batch write.
type WriteKind string

const (
	WriteCreate WriteKind = "create"
	WriteUpdate WriteKind = "update"
	WriteDelete WriteKind = "delete"
)

// Write is one entry of an atomic batch. ID is empty for creates; the store
// assigns one.
type Write struct {
	Kind       WriteKind
	Collection string
	ID         string
	Fields     map[string]any
}

//go:generate mockgen -source=remote.go -destination=mock_store.go -package=remote

// Store is the remote document store. All operations are scoped to an owner
// (the authenticated user id). Create and BatchWrite stamp server timestamps
// into the document fields.
type Store interface {
	Get(ctx context.Context, owner, collection, id string) (Document, error)
	Query(ctx context.Context, owner, collection string, q Query) ([]Document, error)
	Create(ctx context.Context, owner, collection string, fields map[string]any) (Document, error)
	Update(ctx context.Context, owner, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, owner, collection, id string) error

	// BatchWrite applies all writes atomically: either every write commits
	// or none does. Created documents are returned in write order.
	BatchWrite(ctx context.Context, owner string, writes []Write) ([]Document, error)
}

// CursorAfter builds the continuation cursor for the last document of a page
// ordered by orderBy. Returns nil for an empty page.
func CursorAfter(docs []Document, orderBy string) *Cursor {
	if len(docs) == 0 {
		return nil
	}

	last := docs[len(docs)-1]

	return &Cursor{OrderValue: last.Fields[orderBy], DocID: last.ID}
}

package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvilaplana/cartera/internal/remote"
	"github.com/jvilaplana/cartera/internal/remote/memory"
)

const (
	owner      = "user-1"
	collection = "transactions"
)

func create(t *testing.T, s *memory.Store, fields map[string]any) remote.Document {
	t.Helper()

	doc, err := s.Create(context.Background(), owner, collection, fields)
	require.NoError(t, err)

	return doc
}

func TestStore_CreateAndGet(t *testing.T) {
	s := memory.New()

	doc := create(t, s, map[string]any{"description": "Coffee", "amount": -3.5})

	require.NotEmpty(t, doc.ID)
	assert.NotEmpty(t, doc.Fields["createdAt"], "server stamps creation time")
	assert.NotEmpty(t, doc.Fields["updatedAt"])

	got, err := s.Get(context.Background(), owner, collection, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", got.Fields["description"])

	_, err = s.Get(context.Background(), owner, collection, "missing")
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestStore_OwnersAreIsolated(t *testing.T) {
	s := memory.New()

	doc := create(t, s, map[string]any{"description": "Mine"})

	_, err := s.Get(context.Background(), "someone-else", collection, doc.ID)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestStore_Update(t *testing.T) {
	s := memory.New()

	doc := create(t, s, map[string]any{"description": "Old", "amount": -10.0})

	err := s.Update(context.Background(), owner, collection, doc.ID, map[string]any{"description": "New"})
	require.NoError(t, err)

	got, err := s.Get(context.Background(), owner, collection, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Fields["description"])
	assert.Equal(t, -10.0, got.Fields["amount"], "untouched fields survive the merge")

	err = s.Update(context.Background(), owner, collection, "missing", map[string]any{"x": 1})
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	s := memory.New()

	doc := create(t, s, map[string]any{"description": "Gone"})

	require.NoError(t, s.Delete(context.Background(), owner, collection, doc.ID))

	_, err := s.Get(context.Background(), owner, collection, doc.ID)
	assert.ErrorIs(t, err, remote.ErrNotFound)

	assert.ErrorIs(t, s.Delete(context.Background(), owner, collection, doc.ID), remote.ErrNotFound)
}

func seedDates(t *testing.T, s *memory.Store) map[string]remote.Document {
	t.Helper()

	docs := make(map[string]remote.Document)

	for _, d := range []struct {
		date   string
		typ    string
		amount float64
	}{
		{"2026-03-01", "expense", -10},
		{"2026-03-05", "income", 100},
		{"2026-03-10", "expense", -20},
		{"2026-04-01", "expense", -30},
	} {
		docs[d.date] = create(t, s, map[string]any{"date": d.date, "type": d.typ, "amount": d.amount})
	}

	return docs
}

func TestStore_Query(t *testing.T) {
	type testCase struct {
		name      string
		query     remote.Query
		wantDates []string
	}

	tests := []testCase{
		{
			name:      "OrderedDescending",
			query:     remote.Query{OrderBy: "date", Descending: true},
			wantDates: []string{"2026-04-01", "2026-03-10", "2026-03-05", "2026-03-01"},
		},
		{
			name: "EqualityPredicate",
			query: remote.Query{
				Where:   []remote.Predicate{{Field: "type", Op: remote.OpEqual, Value: "expense"}},
				OrderBy: "date",
			},
			wantDates: []string{"2026-03-01", "2026-03-10", "2026-04-01"},
		},
		{
			name: "RangePredicates",
			query: remote.Query{
				Where: []remote.Predicate{
					{Field: "date", Op: remote.OpGte, Value: "2026-03-05"},
					{Field: "date", Op: remote.OpLte, Value: "2026-03-31"},
				},
				OrderBy: "date",
			},
			wantDates: []string{"2026-03-05", "2026-03-10"},
		},
		{
			name:      "Limit",
			query:     remote.Query{OrderBy: "date", Descending: true, Limit: 2},
			wantDates: []string{"2026-04-01", "2026-03-10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			seedDates(t, s)

			docs, err := s.Query(context.Background(), owner, collection, tt.query)
			require.NoError(t, err)

			got := make([]string, len(docs))
			for i, d := range docs {
				got[i] = d.Fields["date"].(string)
			}

			assert.Equal(t, tt.wantDates, got)
		})
	}
}

func TestStore_QueryCursorContinuation(t *testing.T) {
	s := memory.New()
	seedDates(t, s)

	q := remote.Query{OrderBy: "date", Descending: true, Limit: 2}

	page1, err := s.Query(context.Background(), owner, collection, q)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	q.StartAfter = remote.CursorAfter(page1, "date")

	page2, err := s.Query(context.Background(), owner, collection, q)
	require.NoError(t, err)
	require.Len(t, page2, 2)

	seen := make(map[string]bool)
	for _, d := range append(page1, page2...) {
		assert.False(t, seen[d.ID], "pages must not overlap")
		seen[d.ID] = true
	}

	assert.Equal(t, "2026-03-05", page2[0].Fields["date"])
	assert.Equal(t, "2026-03-01", page2[1].Fields["date"])
}

func TestStore_BatchWrite(t *testing.T) {
	t.Run("AppliesAllKinds", func(t *testing.T) {
		s := memory.New()

		existing := create(t, s, map[string]any{"description": "Victim"})
		target := create(t, s, map[string]any{"description": "Before"})

		created, err := s.BatchWrite(context.Background(), owner, []remote.Write{
			{Kind: remote.WriteCreate, Collection: collection, Fields: map[string]any{"description": "Fresh"}},
			{Kind: remote.WriteUpdate, Collection: collection, ID: target.ID, Fields: map[string]any{"description": "After"}},
			{Kind: remote.WriteDelete, Collection: collection, ID: existing.ID},
		})

		require.NoError(t, err)
		require.Len(t, created, 1)
		assert.Equal(t, "Fresh", created[0].Fields["description"])

		got, err := s.Get(context.Background(), owner, collection, target.ID)
		require.NoError(t, err)
		assert.Equal(t, "After", got.Fields["description"])

		_, err = s.Get(context.Background(), owner, collection, existing.ID)
		assert.ErrorIs(t, err, remote.ErrNotFound)
	})

	t.Run("RejectedEntryLeavesStoreUntouched", func(t *testing.T) {
		s := memory.New()

		target := create(t, s, map[string]any{"description": "Before"})

		_, err := s.BatchWrite(context.Background(), owner, []remote.Write{
			{Kind: remote.WriteCreate, Collection: collection, Fields: map[string]any{"description": "Fresh"}},
			{Kind: remote.WriteUpdate, Collection: collection, ID: target.ID, Fields: map[string]any{"description": "After"}},
			{Kind: remote.WriteUpdate, Collection: collection, ID: "missing", Fields: map[string]any{"x": 1}},
		})

		assert.ErrorIs(t, err, remote.ErrRejected)

		got, err := s.Get(context.Background(), owner, collection, target.ID)
		require.NoError(t, err)
		assert.Equal(t, "Before", got.Fields["description"], "no entry of a rejected batch applies")

		docs, err := s.Query(context.Background(), owner, collection, remote.Query{})
		require.NoError(t, err)
		assert.Len(t, docs, 1, "the batch's create never landed")
	})
}

func TestStore_DocumentsAreCopied(t *testing.T) {
	s := memory.New()

	fields := map[string]any{"tags": []string{"a"}}
	doc := create(t, s, fields)

	doc.Fields["tags"].([]string)[0] = "mutated"
	fields["tags"].([]string)[0] = "also-mutated"

	got, err := s.Get(context.Background(), owner, collection, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Fields["tags"], "callers cannot mutate stored state")
}

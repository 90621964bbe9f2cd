// Package memory is an in-memory implementation of the remote store
// contract. It backs tests and the local (no database) mode; data is lost
// on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jvilaplana/cartera/internal/remote"
)

type collectionKey struct {
	Owner      string
	Collection string
}

type Store struct {
	mu   sync.RWMutex
	data map[collectionKey]map[string]map[string]any

	// now is swappable so tests get deterministic server timestamps.
	now func() time.Time
}

func New() *Store {
	return &Store{
		data: make(map[collectionKey]map[string]map[string]any),
		now:  time.Now,
	}
}

func (s *Store) Get(ctx context.Context, owner, collection, id string) (remote.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.data[collectionKey{owner, collection}][id]
	if !ok {
		return remote.Document{}, fmt.Errorf("%s/%s: %w", collection, id, remote.ErrNotFound)
	}

	return remote.Document{ID: id, Fields: copyFields(fields)}, nil
}

func (s *Store) Query(ctx context.Context, owner, collection string, q remote.Query) ([]remote.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []remote.Document

	for id, fields := range s.data[collectionKey{owner, collection}] {
		if !matches(fields, q.Where) {
			continue
		}

		docs = append(docs, remote.Document{ID: id, Fields: copyFields(fields)})
	}

	if q.OrderBy != "" {
		sort.Slice(docs, func(i, j int) bool {
			c := compare(docs[i].Fields[q.OrderBy], docs[j].Fields[q.OrderBy])
			if c == 0 {
				// Stable tiebreak so cursors are unambiguous.
				c = strings.Compare(docs[i].ID, docs[j].ID)
			}

			if q.Descending {
				return c > 0
			}

			return c < 0
		})
	}

	if q.StartAfter != nil {
		docs = after(docs, q.StartAfter.DocID)
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	return docs, nil
}

func (s *Store) Create(ctx context.Context, owner, collection string, fields map[string]any) (remote.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.create(owner, collection, fields), nil
}

func (s *Store) Update(ctx context.Context, owner, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(owner, collection, id, fields)
}

func (s *Store) Delete(ctx context.Context, owner, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := collectionKey{owner, collection}
	if _, ok := s.data[key][id]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, remote.ErrNotFound)
	}

	delete(s.data[key], id)

	return nil
}

// BatchWrite validates every write before applying any, so a rejected entry
// leaves the store untouched.
func (s *Store) BatchWrite(ctx context.Context, owner string, writes []remote.Write) ([]remote.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range writes {
		switch w.Kind {
		case remote.WriteCreate:
		case remote.WriteUpdate, remote.WriteDelete:
			if _, ok := s.data[collectionKey{owner, w.Collection}][w.ID]; !ok {
				return nil, fmt.Errorf("batch %s %s/%s: %w", w.Kind, w.Collection, w.ID, remote.ErrRejected)
			}
		default:
			return nil, fmt.Errorf("batch: unknown write kind %q: %w", w.Kind, remote.ErrRejected)
		}
	}

	var created []remote.Document

	for _, w := range writes {
		switch w.Kind {
		case remote.WriteCreate:
			created = append(created, s.create(owner, w.Collection, w.Fields))
		case remote.WriteUpdate:
			_ = s.update(owner, w.Collection, w.ID, w.Fields)
		case remote.WriteDelete:
			delete(s.data[collectionKey{owner, w.Collection}], w.ID)
		}
	}

	return created, nil
}

func (s *Store) create(owner, collection string, fields map[string]any) remote.Document {
	key := collectionKey{owner, collection}
	if s.data[key] == nil {
		s.data[key] = make(map[string]map[string]any)
	}

	stored := copyFields(fields)
	now := s.now().UTC().Format(time.RFC3339)
	stored["createdAt"] = now
	stored["updatedAt"] = now

	id := uuid.NewString()
	s.data[key][id] = stored

	return remote.Document{ID: id, Fields: copyFields(stored)}
}

func (s *Store) update(owner, collection, id string, fields map[string]any) error {
	stored, ok := s.data[collectionKey{owner, collection}][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, remote.ErrNotFound)
	}

	for k, v := range copyFields(fields) {
		stored[k] = v
	}

	stored["updatedAt"] = s.now().UTC().Format(time.RFC3339)

	return nil
}

func matches(fields map[string]any, where []remote.Predicate) bool {
	for _, p := range where {
		v, ok := fields[p.Field]
		if !ok {
			return false
		}

		c := compare(v, p.Value)

		switch p.Op {
		case remote.OpEqual:
			if c != 0 {
				return false
			}
		case remote.OpGte:
			if c < 0 {
				return false
			}
		case remote.OpLte:
			if c > 0 {
				return false
			}
		default:
			return false
		}
	}

	return true
}

// compare orders the field value types the codecs produce. Mixed types sort
// by their printed form, which only matters for malformed data.
func compare(a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func after(docs []remote.Document, docID string) []remote.Document {
	for i, d := range docs {
		if d.ID == docID {
			return docs[i+1:]
		}
	}

	return docs
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))

	for k, v := range fields {
		switch vv := v.(type) {
		case []string:
			out[k] = append([]string(nil), vv...)
		case map[string]any:
			out[k] = copyFields(vv)
		default:
			out[k] = v
		}
	}

	return out
}

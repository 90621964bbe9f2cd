package transaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jvilaplana/cartera/internal/auth"
	"github.com/jvilaplana/cartera/internal/cache"
	"github.com/jvilaplana/cartera/internal/journal"
	"github.com/jvilaplana/cartera/internal/notify"
	"github.com/jvilaplana/cartera/internal/remote"
)

// NameResolver supplies authoritative display names for the denormalized
// name fields. A miss falls back to the stored copy.
type NameResolver interface {
	WalletName(id string) (string, bool)
	CategoryName(id string) (string, bool)
}

// Service mirrors the owner's transaction feed. Mutations hit the cache
// synchronously and the remote store asynchronously; failed writes restore
// the pre-mutation state, and completions that arrive after a newer
// mutation on the same id are discarded.
type Service struct {
	store    remote.Store
	gate     *auth.Gate
	notifier notify.Notifier
	resolver NameResolver
	cache    *cache.Cache[*Transaction]
	journal  *journal.Journal
	pager    *pager

	// mu serializes the synchronous local phase of each mutation.
	mu sync.Mutex

	filterMu sync.RWMutex
	filter   Filter
}

func NewService(store remote.Store, gate *auth.Gate, notifier notify.Notifier, resolver NameResolver) *Service {
	return &Service{
		store:    store,
		gate:     gate,
		notifier: notifier,
		resolver: resolver,
		cache:    cache.New[*Transaction](),
		journal:  journal.New(),
		pager:    newPager(),
	}
}

// SetFilter installs a new filter set. The current cursor is discarded and
// hasMore resets; continuing pagination across a filter change is a
// correctness error, not an optimization concern.
func (s *Service) SetFilter(filter Filter) {
	s.filterMu.Lock()
	s.filter = filter
	s.filterMu.Unlock()

	s.pager.invalidate()
}

func (s *Service) Filter() Filter {
	s.filterMu.RLock()
	defer s.filterMu.RUnlock()

	return s.filter
}

// FetchFirstPage runs the planned query for the given filter, replaces the
// cached feed with the first page and primes the cursor. hasMore is
// sentinel-based: a full page means there may be more.
func (s *Service) FetchFirstPage(ctx context.Context, filter Filter, pageSize int) ([]*Transaction, bool, error) {
	owner, err := s.gate.UserID()
	if err != nil {
		return nil, false, err
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	s.filterMu.Lock()
	s.filter = filter
	s.filterMu.Unlock()

	docs, err := s.store.Query(ctx, owner, Collection, filter.Plan(pageSize, nil))
	if err != nil {
		s.pager.invalidate()
		return nil, false, fmt.Errorf("fetching transactions: %w", err)
	}

	txs := s.refreshAll(decodeAll(docs))
	hasMore := len(docs) == pageSize

	s.cache.Replace(txs)
	s.pager.prime(filter.fingerprint(), remote.CursorAfter(docs, "date"), hasMore)

	return txs, hasMore, nil
}

// FetchNextPage continues the current query after the last returned
// document and appends the page to the cached feed. It fails with
// ErrStaleCursor if the filter changed since the cursor was issued.
func (s *Service) FetchNextPage(ctx context.Context, pageSize int) ([]*Transaction, bool, error) {
	owner, err := s.gate.UserID()
	if err != nil {
		return nil, false, err
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	filter := s.Filter()

	cursor, err := s.pager.next(filter.fingerprint())
	if err != nil {
		return nil, false, err
	}

	docs, err := s.store.Query(ctx, owner, Collection, filter.Plan(pageSize, cursor))
	if err != nil {
		return nil, s.pager.more(), fmt.Errorf("fetching next page: %w", err)
	}

	txs := s.refreshAll(decodeAll(docs))
	hasMore := len(docs) == pageSize

	s.cache.Append(txs)
	s.pager.advance(remote.CursorAfter(docs, "date"), hasMore)

	return txs, hasMore, nil
}

// FetchRecent refreshes the bounded recent view (creation-time feed).
func (s *Service) FetchRecent(ctx context.Context) ([]*Transaction, error) {
	owner, err := s.gate.UserID()
	if err != nil {
		return nil, err
	}

	docs, err := s.store.Query(ctx, owner, Collection, remote.Query{
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      cache.DefaultRecentLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching recent transactions: %w", err)
	}

	txs := s.refreshAll(decodeAll(docs))
	s.cache.SetRecent(txs)

	return txs, nil
}

// Create inserts a provisional record synchronously, issues the remote
// create and reconciles the provisional id to the server-assigned one. On
// failure the provisional record is removed.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	return s.create(ctx, params, SourceManual)
}

func (s *Service) create(ctx context.Context, params CreateParams, source Source) (*Transaction, error) {
	owner, err := s.gate.UserID()
	if err != nil {
		return nil, err
	}

	if err := validateEndpoints(params.Type, params.SourceWalletID, params.DestinationWalletID); err != nil {
		return nil, err
	}

	prov := s.provisional(owner, params, source)

	seq := s.journal.Begin(prov.ID)
	s.cache.Prepend(prov)

	doc, err := s.store.Create(ctx, owner, Collection, encode(prov))
	if err != nil {
		if s.journal.Settle(prov.ID, seq) {
			s.cache.Remove(prov.ID)
		}

		s.notify(notify.LevelError, "transaction.create", prov.ID, err)

		return nil, fmt.Errorf("creating transaction: %w", err)
	}

	confirmed := s.refresh(decode(doc))

	if s.journal.Settle(prov.ID, seq) {
		s.cache.ReplaceID(prov.ID, confirmed)
		s.journal.Rename(prov.ID, confirmed.ID)
	}

	s.notify(notify.LevelSuccess, "transaction.create", confirmed.ID, nil)

	return confirmed, nil
}

// CreateBatch queues the whole batch under one atomic remote write. The
// optimistic insertion covers the full batch, and so does the rollback: a
// failed batch removes every provisional record, never a subset.
func (s *Service) CreateBatch(ctx context.Context, params []CreateParams, source Source) ([]*Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	owner, err := s.gate.UserID()
	if err != nil {
		return nil, err
	}

	for i, p := range params {
		if err := validateEndpoints(p.Type, p.SourceWalletID, p.DestinationWalletID); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	provs := make([]*Transaction, len(params))
	seqs := make([]uint64, len(params))
	writes := make([]remote.Write, len(params))

	for i, p := range params {
		provs[i] = s.provisional(owner, p, source)
		seqs[i] = s.journal.Begin(provs[i].ID)
		writes[i] = remote.Write{Kind: remote.WriteCreate, Collection: Collection, Fields: encode(provs[i])}
	}

	s.cache.PrependMany(provs)

	docs, err := s.store.BatchWrite(ctx, owner, writes)
	if err != nil {
		for i, prov := range provs {
			if s.journal.Settle(prov.ID, seqs[i]) {
				s.cache.Remove(prov.ID)
			}
		}

		s.notify(notify.LevelError, "transaction.import", "", err)

		return nil, fmt.Errorf("creating transaction batch: %w", err)
	}

	confirmed := make([]*Transaction, len(docs))

	for i, doc := range docs {
		confirmed[i] = s.refresh(decode(doc))

		if s.journal.Settle(provs[i].ID, seqs[i]) {
			s.cache.ReplaceID(provs[i].ID, confirmed[i])
			s.journal.Rename(provs[i].ID, confirmed[i].ID)
		}
	}

	s.notify(notify.LevelSuccess, "transaction.import", "", nil)

	return confirmed, nil
}

// Update patches the cached record in place (shallow merge) before the
// remote write resolves; the pre-patch snapshot is restored on failure.
func (s *Service) Update(ctx context.Context, params UpdateParams) (*Transaction, error) {
	owner, err := s.gate.UserID()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()

	prev, ok := s.cache.Get(params.ID)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", params.ID, ErrNotFound)
	}

	snapshot := *prev
	next := *prev
	fields := make(map[string]any)

	if params.Date != nil {
		next.Date = *params.Date
		fields["date"] = params.Date.Format(time.DateOnly)
	}

	if params.Amount != nil {
		next.Amount = *params.Amount
		fields["amount"] = *params.Amount
	}

	if params.Type != nil {
		next.Type = *params.Type
		fields["type"] = string(*params.Type)
	}

	if params.Description != nil {
		next.Description = *params.Description
		fields["description"] = *params.Description
	}

	if params.CategoryID != nil {
		next.CategoryID = *params.CategoryID
		fields["categoryId"] = *params.CategoryID
	}

	if params.SourceWalletID != nil {
		next.SourceWalletID = *params.SourceWalletID
		fields["sourceWalletId"] = *params.SourceWalletID
	}

	if params.DestinationWalletID != nil {
		next.DestinationWalletID = *params.DestinationWalletID
		fields["destinationWalletId"] = *params.DestinationWalletID
	}

	if params.Tags != nil {
		next.Tags = append([]string(nil), params.Tags...)
		fields["tags"] = append([]string(nil), params.Tags...)
	}

	if params.Notes != nil {
		next.Notes = *params.Notes
		fields["notes"] = *params.Notes
	}

	if err := validateEndpoints(next.Type, next.SourceWalletID, next.DestinationWalletID); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	next.UpdatedAt = time.Now().UTC()

	seq := s.journal.Begin(params.ID)
	s.cache.Upsert(&next)
	s.mu.Unlock()

	if err := s.store.Update(ctx, owner, Collection, params.ID, fields); err != nil {
		if s.journal.Settle(params.ID, seq) {
			s.cache.Upsert(&snapshot)
		}

		s.notify(notify.LevelError, "transaction.update", params.ID, err)

		return nil, fmt.Errorf("updating transaction: %w", err)
	}

	s.journal.Settle(params.ID, seq)
	s.notify(notify.LevelSuccess, "transaction.update", params.ID, nil)

	return &next, nil
}

// Delete removes the record synchronously (transactions hard-delete) and
// restores the snapshot if the remote delete fails.
func (s *Service) Delete(ctx context.Context, id string) error {
	owner, err := s.gate.UserID()
	if err != nil {
		return err
	}

	s.mu.Lock()

	prev, ok := s.cache.Get(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	snapshot := *prev
	seq := s.journal.Begin(id)
	s.cache.Remove(id)
	s.mu.Unlock()

	if err := s.store.Delete(ctx, owner, Collection, id); err != nil {
		if s.journal.Settle(id, seq) {
			s.cache.Upsert(&snapshot)
		}

		s.notify(notify.LevelError, "transaction.delete", id, err)

		return fmt.Errorf("deleting transaction: %w", err)
	}

	s.journal.Settle(id, seq)
	s.notify(notify.LevelSuccess, "transaction.delete", id, nil)

	return nil
}

func (s *Service) Get(id string) (*Transaction, error) {
	t, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	cp := *t

	return s.refresh(&cp), nil
}

// List returns the cached feed in feed order, with display names
// refreshed from authoritative data where available.
func (s *Service) List() []*Transaction {
	return s.refreshCopies(s.cache.List())
}

// Recent returns the bounded recent view, newest first.
func (s *Service) Recent() []*Transaction {
	return s.refreshCopies(s.cache.Recent())
}

// Filtered re-derives the filtered view from the current snapshot and the
// current filter. Pure function of both; no fetch.
func (s *Service) Filtered() []*Transaction {
	filter := s.Filter()

	var out []*Transaction

	for _, t := range s.List() {
		if filter.Match(t) {
			out = append(out, t)
		}
	}

	return out
}

// HasMore reports the sentinel-based continuation flag of the active query.
func (s *Service) HasMore() bool { return s.pager.more() }

// Reset drops all cached state (logout).
func (s *Service) Reset() {
	s.cache.Clear()
	s.journal.Reset()
	s.pager.invalidate()

	s.filterMu.Lock()
	s.filter = Filter{}
	s.filterMu.Unlock()
}

func (s *Service) provisional(owner string, params CreateParams, source Source) *Transaction {
	now := time.Now().UTC()

	t := &Transaction{
		ID:                  uuid.NewString(),
		Date:                params.Date,
		Amount:              params.Amount,
		Type:                params.Type,
		Description:         params.Description,
		CategoryID:          params.CategoryID,
		CategoryName:        params.CategoryName,
		SourceWalletID:      params.SourceWalletID,
		DestinationWalletID: params.DestinationWalletID,
		CreatedFrom:         source,
		Tags:                append([]string(nil), params.Tags...),
		Notes:               params.Notes,
		Recurring:           params.Recurring,
		OwnerID:             owner,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	return s.refresh(t)
}

// refresh recomputes the denormalized display names from authoritative
// cached data, keeping the stored copy when the resolver misses.
func (s *Service) refresh(t *Transaction) *Transaction {
	if s.resolver == nil {
		return t
	}

	if t.SourceWalletID != "" {
		if name, ok := s.resolver.WalletName(t.SourceWalletID); ok {
			t.SourceWalletName = name
		}
	}

	if t.DestinationWalletID != "" {
		if name, ok := s.resolver.WalletName(t.DestinationWalletID); ok {
			t.DestinationWalletName = name
		}
	}

	if t.CategoryID != "" {
		if name, ok := s.resolver.CategoryName(t.CategoryID); ok {
			t.CategoryName = name
		}
	}

	return t
}

func (s *Service) refreshAll(txs []*Transaction) []*Transaction {
	for _, t := range txs {
		s.refresh(t)
	}

	return txs
}

func (s *Service) refreshCopies(txs []*Transaction) []*Transaction {
	out := make([]*Transaction, len(txs))

	for i, t := range txs {
		cp := *t
		out[i] = s.refresh(&cp)
	}

	return out
}

func (s *Service) notify(level notify.Level, op, id string, err error) {
	n := notify.Notification{Level: level, Op: op, EntityID: id}

	if err != nil {
		n.Message = err.Error()
	} else {
		n.Message = op + " ok"
	}

	s.notifier.Publish(n)
}

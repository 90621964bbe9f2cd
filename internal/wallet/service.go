package wallet

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

// Service mirrors the owner's wallets and applies mutations optimistically:
// the cache changes synchronously, the remote write follows, and a failed
// write restores the pre-mutation record. Completions that resolve after a
// newer mutation on the same wallet are discarded.
type Service struct {
	store    remote.Store
	gate     *auth.Gate
	notifier notify.Notifier
	cache    *cache.Cache[*Wallet]
	journal  *journal.Journal

	// mu serializes the synchronous local phase of each mutation so a
	// snapshot and its patch are taken against the same record. Remote
	// calls happen outside of it.
	mu sync.Mutex

	totalMu  sync.RWMutex
	total    float64
	lastSync time.Time
}

func NewService(store remote.Store, gate *auth.Gate, notifier notify.Notifier) *Service {
	s := &Service{
		store:    store,
		gate:     gate,
		notifier: notifier,
		cache:    cache.New[*Wallet](),
		journal:  journal.New(),
	}

	s.cache.OnChange(func(snapshot []*Wallet) {
		var total float64

		for _, w := range snapshot {
			if w.IsActive {
				total += w.CurrentBalance
			}
		}

		s.totalMu.Lock()
		s.total = total
		s.totalMu.Unlock()
	})

	return s
}

// Refresh replaces the cached set with the remote one, newest first.
func (s *Service) Refresh(ctx context.Context) ([]*Wallet, error) {
	owner, err := s.gate.UserID()
	if err != nil {
		return nil, err
	}

	docs, err := s.store.Query(ctx, owner, Collection, remote.Query{
		OrderBy:    "createdAt",
		Descending: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching wallets: %w", err)
	}

	wallets := decodeAll(docs)
	s.cache.Replace(wallets)
	s.setLastSync(time.Now())

	return wallets, nil
}

// Create inserts a provisional wallet synchronously and reconciles it to
// the server-assigned document on success. On failure the provisional
// record is removed.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Wallet, error) {
	owner, err := s.gate.UserID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	prov := &Wallet{
		ID:             uuid.NewString(),
		Name:           params.Name,
		Type:           params.Type,
		Institution:    params.Institution,
		InitialBalance: params.InitialBalance,
		CurrentBalance: params.InitialBalance,
		Currency:       params.Currency,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	seq := s.journal.Begin(prov.ID)
	s.cache.Prepend(prov)

	doc, err := s.store.Create(ctx, owner, Collection, encode(prov))
	if err != nil {
		if s.journal.Settle(prov.ID, seq) {
			s.cache.Remove(prov.ID)
		}

		s.notify(notify.LevelError, "wallet.create", prov.ID, err)

		return nil, fmt.Errorf("creating wallet: %w", err)
	}

	confirmed := decode(doc)

	if s.journal.Settle(prov.ID, seq) {
		s.cache.ReplaceID(prov.ID, confirmed)
		s.journal.Rename(prov.ID, confirmed.ID)
	}

	s.notify(notify.LevelSuccess, "wallet.create", confirmed.ID, nil)

	return confirmed, nil
}

// Update patches the cached wallet in place before the remote write
// resolves; the pre-patch record is restored if the write fails.
func (s *Service) Update(ctx context.Context, params UpdateParams) (*Wallet, error) {
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

	if params.Name != nil {
		next.Name = *params.Name
		fields["name"] = *params.Name
	}

	if params.Type != nil {
		next.Type = *params.Type
		fields["type"] = string(*params.Type)
	}

	if params.Institution != nil {
		next.Institution = *params.Institution
		fields["institution"] = *params.Institution
	}

	if params.IsActive != nil {
		next.IsActive = *params.IsActive
		fields["isActive"] = *params.IsActive
	}

	next.UpdatedAt = time.Now().UTC()

	seq := s.journal.Begin(params.ID)
	s.cache.Upsert(&next)
	s.mu.Unlock()

	if err := s.store.Update(ctx, owner, Collection, params.ID, fields); err != nil {
		if s.journal.Settle(params.ID, seq) {
			s.cache.Upsert(&snapshot)
		}

		s.notify(notify.LevelError, "wallet.update", params.ID, err)

		return nil, fmt.Errorf("updating wallet: %w", err)
	}

	s.journal.Settle(params.ID, seq)
	s.notify(notify.LevelSuccess, "wallet.update", params.ID, nil)

	return &next, nil
}

// Delete soft-deletes: the wallet stays retrievable by id, drops out of the
// active set and its balance leaves the total immediately.
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
	next := *prev
	next.IsActive = false
	next.UpdatedAt = time.Now().UTC()

	seq := s.journal.Begin(id)
	s.cache.Upsert(&next)
	s.mu.Unlock()

	if err := s.store.Update(ctx, owner, Collection, id, map[string]any{"isActive": false}); err != nil {
		if s.journal.Settle(id, seq) {
			s.cache.Upsert(&snapshot)
		}

		s.notify(notify.LevelError, "wallet.delete", id, err)

		return fmt.Errorf("deleting wallet: %w", err)
	}

	s.journal.Settle(id, seq)
	s.notify(notify.LevelSuccess, "wallet.delete", id, nil)

	return nil
}

// AdjustBalance applies an explicit balance adjustment. This and
// ReconcileBalances are the only paths that move CurrentBalance.
func (s *Service) AdjustBalance(ctx context.Context, id string, amount float64, op BalanceOp) (*Wallet, error) {
	owner, err := s.gate.UserID()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()

	prev, ok := s.cache.Get(id)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	snapshot := *prev
	next := *prev

	switch op {
	case BalanceAdd:
		next.CurrentBalance += amount
	case BalanceSubtract:
		next.CurrentBalance -= amount
	case BalanceSet:
		next.CurrentBalance = amount
	default:
		s.mu.Unlock()
		return nil, fmt.Errorf("unknown balance operation %q", op)
	}

	next.UpdatedAt = time.Now().UTC()

	seq := s.journal.Begin(id)
	s.cache.Upsert(&next)
	s.mu.Unlock()

	err = s.store.Update(ctx, owner, Collection, id, map[string]any{"currentBalance": next.CurrentBalance})
	if err != nil {
		if s.journal.Settle(id, seq) {
			s.cache.Upsert(&snapshot)
		}

		s.notify(notify.LevelError, "wallet.balance", id, err)

		return nil, fmt.Errorf("adjusting balance: %w", err)
	}

	s.journal.Settle(id, seq)
	s.notify(notify.LevelSuccess, "wallet.balance", id, nil)

	return &next, nil
}

// ReconcileBalances sets every active wallet's running balance to
// initialBalance plus its signed transaction net, in one atomic remote
// batch. A failed batch restores every touched wallet, never a subset.
func (s *Service) ReconcileBalances(ctx context.Context, net map[string]float64) error {
	owner, err := s.gate.UserID()
	if err != nil {
		return err
	}

	type touched struct {
		snapshot Wallet
		seq      uint64
	}

	now := time.Now().UTC()

	s.mu.Lock()

	var (
		restores []touched
		writes   []remote.Write
	)

	for _, w := range s.cache.List() {
		if !w.IsActive {
			continue
		}

		target := w.InitialBalance + net[w.ID]
		if target == w.CurrentBalance {
			continue
		}

		next := *w
		next.CurrentBalance = target
		next.UpdatedAt = now

		restores = append(restores, touched{snapshot: *w, seq: s.journal.Begin(w.ID)})
		s.cache.Upsert(&next)
		writes = append(writes, remote.Write{
			Kind:       remote.WriteUpdate,
			Collection: Collection,
			ID:         w.ID,
			Fields:     map[string]any{"currentBalance": target},
		})
	}

	s.mu.Unlock()

	if len(writes) == 0 {
		s.setLastSync(time.Now())
		return nil
	}

	if _, err := s.store.BatchWrite(ctx, owner, writes); err != nil {
		for _, r := range restores {
			if s.journal.Settle(r.snapshot.ID, r.seq) {
				snap := r.snapshot
				s.cache.Upsert(&snap)
			}
		}

		s.notify(notify.LevelError, "wallet.reconcile", "", err)

		return fmt.Errorf("reconciling balances: %w", err)
	}

	for _, r := range restores {
		s.journal.Settle(r.snapshot.ID, r.seq)
	}

	s.setLastSync(time.Now())
	s.notify(notify.LevelSuccess, "wallet.reconcile", "", nil)

	return nil
}

// Get returns a cached wallet, soft-deleted ones included.
func (s *Service) Get(id string) (*Wallet, error) {
	w, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	return w, nil
}

func (s *Service) List() []*Wallet { return s.cache.List() }

func (s *Service) ListActive() []*Wallet { return s.cache.ListActive() }

// TotalBalance is the eagerly maintained sum over active wallets.
func (s *Service) TotalBalance() float64 {
	s.totalMu.RLock()
	defer s.totalMu.RUnlock()

	return s.total
}

func (s *Service) LastSync() time.Time {
	s.totalMu.RLock()
	defer s.totalMu.RUnlock()

	return s.lastSync
}

// Name resolves a wallet's display name from the cached set. Used to
// refresh denormalized names on transactions.
func (s *Service) Name(id string) (string, bool) {
	w, ok := s.cache.Get(id)
	if !ok {
		return "", false
	}

	return w.Name, true
}

// Reset drops all cached state (logout).
func (s *Service) Reset() {
	s.cache.Clear()
	s.journal.Reset()

	s.totalMu.Lock()
	s.lastSync = time.Time{}
	s.totalMu.Unlock()
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

func (s *Service) setLastSync(t time.Time) {
	s.totalMu.Lock()
	s.lastSync = t
	s.totalMu.Unlock()
}

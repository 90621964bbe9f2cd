package transaction

import (
	"sync"

	"github.com/jvilaplana/cartera/internal/remote"
)

// DefaultPageSize matches the main feed's page size.
const DefaultPageSize = 50

// pager tracks the continuation state of the active feed query: the cursor
// after the last returned document, the fingerprint of the filter the
// cursor was issued under, and the sentinel-based hasMore flag.
type pager struct {
	mu          sync.Mutex
	cursor      *remote.Cursor
	fingerprint string
	hasMore     bool
	primed      bool
}

func newPager() *pager {
	return &pager{hasMore: true}
}

// prime installs the cursor of a freshly fetched first page.
func (p *pager) prime(fingerprint string, cursor *remote.Cursor, hasMore bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cursor = cursor
	p.fingerprint = fingerprint
	p.hasMore = hasMore
	p.primed = true
}

// next hands out the cursor for a continuation fetch. It fails with
// ErrStaleCursor when the filter changed since the cursor was issued;
// continuing under a new filter would silently return wrongly filtered
// pages.
func (p *pager) next(fingerprint string) (*remote.Cursor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.primed || fingerprint != p.fingerprint {
		return nil, ErrStaleCursor
	}

	return p.cursor, nil
}

// advance installs the cursor after a continuation page.
func (p *pager) advance(cursor *remote.Cursor, hasMore bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cursor != nil {
		p.cursor = cursor
	}

	p.hasMore = hasMore
}

// invalidate discards the cursor on a filter change and resets hasMore.
func (p *pager) invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cursor = nil
	p.fingerprint = ""
	p.hasMore = true
	p.primed = false
}

func (p *pager) more() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.hasMore
}

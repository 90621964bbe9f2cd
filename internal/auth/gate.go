// Package auth is the boundary to the authentication collaborator. The
// sync engine never talks to an identity provider; it only needs a stable
// user id and a ready signal, which the Gate models.
package auth

import (
	"errors"
	"sync"
)

var (
	// ErrNotReady means the auth collaborator has not resolved yet.
	// Distinct from an anonymous session: no remote operation may be
	// issued until readiness.
	ErrNotReady = errors.New("authentication not resolved")

	// ErrAnonymous means auth resolved with no user. Remote operations
	// are owner-scoped and cannot be issued anonymously.
	ErrAnonymous = errors.New("no authenticated user")
)

// Gate holds the current session identity. Zero value is "not ready".
type Gate struct {
	mu     sync.RWMutex
	ready  bool
	userID string
}

func NewGate() *Gate {
	return &Gate{}
}

// Resolve marks the gate ready with the given user id. An empty id is a
// valid resolution (anonymous session).
func (g *Gate) Resolve(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ready = true
	g.userID = userID
}

// Clear returns the gate to the unresolved state (logout).
func (g *Gate) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ready = false
	g.userID = ""
}

func (g *Gate) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.ready
}

// UserID returns the owner id for remote operations. ErrNotReady before
// resolution, ErrAnonymous for a resolved session without a user.
func (g *Gate) UserID() (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.ready {
		return "", ErrNotReady
	}

	if g.userID == "" {
		return "", ErrAnonymous
	}

	return g.userID, nil
}

package telegram

import (
	"sync"

	"github.com/vadimtrunov/cinebrowse/internal/store"
)

// sessionManager keeps one store per user and enforces the allow-list.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[int64]*store.Store
	allowed  map[int64]bool // nil or empty = allow all
}

// newSessionManager creates a session manager.
// If allowedUserIDs is empty, all users are allowed.
func newSessionManager(allowedUserIDs []int64) *sessionManager {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &sessionManager{
		sessions: make(map[int64]*store.Store),
		allowed:  allowed,
	}
}

// isAllowed checks if a user is authorized to use the bot.
func (sm *sessionManager) isAllowed(userID int64) bool {
	if len(sm.allowed) == 0 {
		return true
	}
	return sm.allowed[userID]
}

// getOrCreate returns the user's store, creating it with factory on first use.
func (sm *sessionManager) getOrCreate(userID int64, factory StoreFactory) *store.Store {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if st, ok := sm.sessions[userID]; ok {
		return st
	}
	st := factory()
	sm.sessions[userID] = st
	return st
}

// reset drops a user's store; the next message starts from the initial state.
func (sm *sessionManager) reset(userID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, userID)
}

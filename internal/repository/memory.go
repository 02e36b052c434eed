package repository

import (
	"context"
	"sync"
	"time"

	"salonbook/internal/models"
)

type memoryEntry struct {
	state     *models.UserState
	expiresAt time.Time
}

type rateWindow struct {
	count     int
	expiresAt time.Time
}

// MemoryStateRepository is the in-process fallback for Redis. States expire
// after ttl like their Redis counterparts.
type MemoryStateRepository struct {
	mu     sync.Mutex
	states map[int64]memoryEntry
	rates  map[int64]*rateWindow
	ttl    time.Duration
	now    func() time.Time
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		states: make(map[int64]memoryEntry),
		rates:  make(map[int64]*rateWindow),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (r *MemoryStateRepository) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.states[userID]
	if !ok {
		return nil, nil
	}
	if r.ttl > 0 && r.now().After(e.expiresAt) {
		delete(r.states, userID)
		return nil, nil
	}
	return e.state, nil
}

func (r *MemoryStateRepository) SetState(ctx context.Context, state *models.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.UserID] = memoryEntry{state: state, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *MemoryStateRepository) ClearState(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, userID)
	return nil
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.rates[userID]
	if !ok || now.After(w.expiresAt) {
		w = &rateWindow{expiresAt: now.Add(window)}
		r.rates[userID] = w
	}
	w.count++
	return w.count <= limit, nil
}

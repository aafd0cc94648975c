package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"market-sim/internal/simulation"
)

// Entry is one stored simulation result
type Entry struct {
	ID        string
	Scenario  string
	Result    *simulation.Result
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Results keeps simulation results in memory so records can be fetched
// after the run. Entries expire after the configured TTL. A nil *Results
// stores nothing.
type Results struct {
	mu    sync.RWMutex
	store map[string]*Entry
	ttl   time.Duration
	now   func() time.Time

	onSizeChange func(n int)

	stop chan struct{}
	once sync.Once
}

// Option configures a Results store.
type Option func(*Results)

// WithSizeObserver registers fn to be called with the entry count after
// every insert or eviction.
func WithSizeObserver(fn func(n int)) Option {
	return func(r *Results) { r.onSizeChange = fn }
}

// New creates a store. If cleanupEvery > 0 a goroutine evicts expired
// entries on that interval until Close is called.
func New(ttl, cleanupEvery time.Duration, opts ...Option) *Results {
	r := &Results{
		store: make(map[string]*Entry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if cleanupEvery > 0 {
		go r.cleanup(cleanupEvery)
	}
	return r
}

// Put stores a result under a fresh id and returns it.
func (r *Results) Put(scenario string, res *simulation.Result) string {
	if r == nil {
		return ""
	}
	id := uuid.NewString()
	now := r.now()

	r.mu.Lock()
	r.store[id] = &Entry{
		ID:        id,
		Scenario:  scenario,
		Result:    res,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}
	n := len(r.store)
	r.mu.Unlock()

	r.notify(n)
	return id
}

// Get retrieves a stored result if available and not expired
func (r *Results) Get(id string) (*Entry, bool) {
	if r == nil {
		return nil, false
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.store[id]
	if !ok || r.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry, true
}

func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store)
}

// Evict removes expired entries and returns how many were dropped.
func (r *Results) Evict() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	now := r.now()
	dropped := 0
	for id, entry := range r.store {
		if now.After(entry.ExpiresAt) {
			delete(r.store, id)
			dropped++
		}
	}
	n := len(r.store)
	r.mu.Unlock()

	if dropped > 0 {
		r.notify(n)
	}
	return dropped
}

// Close stops the cleanup goroutine.
func (r *Results) Close() {
	if r == nil {
		return
	}
	r.once.Do(func() { close(r.stop) })
}

func (r *Results) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Evict()
		case <-r.stop:
			return
		}
	}
}

func (r *Results) notify(n int) {
	if r.onSizeChange != nil {
		r.onSizeChange(n)
	}
}

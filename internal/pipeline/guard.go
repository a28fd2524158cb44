package pipeline

import (
	"sync"
	"time"
)

// inflight tracks artworks with an unresolved analysis job. Entries older
// than ttl are treated as abandoned so a lost worker cannot pin an artwork.
type inflight struct {
	mu   sync.Mutex
	held map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func newInflight(ttl time.Duration) *inflight {
	return &inflight{held: map[string]time.Time{}, ttl: ttl, now: time.Now}
}

func (g *inflight) acquire(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if since, ok := g.held[id]; ok && now.Sub(since) < g.ttl {
		return false
	}
	g.held[id] = now
	return true
}

func (g *inflight) release(id string) {
	g.mu.Lock()
	delete(g.held, id)
	g.mu.Unlock()
}

func (g *inflight) busy(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	since, ok := g.held[id]
	return ok && g.now().Sub(since) < g.ttl
}

package services

import (
	"sync"
	"time"
)

// DefaultReplayTTL is how long a seen proof blocks resubmission. Long
// enough to absorb client retry storms, short enough that the map stays
// small.
const DefaultReplayTTL = 15 * time.Minute

// ReplayGuard remembers recently accepted proofs so a captured request
// cannot be replayed within the window.
type ReplayGuard interface {
	Seen(userID, proof string) bool
	Remember(userID, proof string)
}

// MemoryReplayGuard is the in-process ReplayGuard. Restarting the server
// clears it; the best-of merge still makes replays harmless, the guard
// only stops them from inflating counters.
type MemoryReplayGuard struct {
	ttl  time.Duration
	now  func() time.Time
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryReplayGuard(ttl time.Duration) *MemoryReplayGuard {
	if ttl <= 0 {
		ttl = DefaultReplayTTL
	}
	return &MemoryReplayGuard{
		ttl:  ttl,
		now:  time.Now,
		seen: make(map[string]time.Time),
	}
}

func (g *MemoryReplayGuard) key(userID, proof string) string {
	return userID + ":" + proof
}

func (g *MemoryReplayGuard) Seen(userID, proof string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, ok := g.seen[g.key(userID, proof)]
	if !ok {
		return false
	}
	if g.now().After(expiry) {
		delete(g.seen, g.key(userID, proof))
		return false
	}
	return true
}

func (g *MemoryReplayGuard) Remember(userID, proof string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen[g.key(userID, proof)] = g.now().Add(g.ttl)
}

// Expire drops entries past their TTL. Called by the cleanup service.
func (g *MemoryReplayGuard) Expire() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for key, expiry := range g.seen {
		if now.After(expiry) {
			delete(g.seen, key)
			removed++
		}
	}
	return removed
}

var replayGuard *MemoryReplayGuard

// InitReplayGuard initializes the singleton replay guard.
func InitReplayGuard(ttl time.Duration) {
	replayGuard = NewMemoryReplayGuard(ttl)
}

// GetReplayGuard returns the initialized replay guard.
func GetReplayGuard() *MemoryReplayGuard {
	if replayGuard == nil {
		InitReplayGuard(DefaultReplayTTL)
	}
	return replayGuard
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

// leaderboardTTL bounds staleness. The daily board only moves when a sync
// batch lands, so a minute of staleness is invisible to players.
const leaderboardTTL = 60 * time.Second

// LeaderboardCache is a best-effort read cache for daily leaderboards. It
// always answers from the local TTL map; when a REST Redis endpoint is
// configured it mirrors entries there so replicas share warm data. Cache
// failures never propagate, the handler falls through to the database.
type LeaderboardCache struct {
	restURL   string
	restToken string
	client    *http.Client

	mu      sync.Mutex
	entries map[string]cachedBoard
}

type cachedBoard struct {
	payload []byte
	expires time.Time
}

var leaderboardCache *LeaderboardCache

// InitLeaderboardCache initializes the singleton cache.
// LEADERBOARD_REDIS_URL and LEADERBOARD_REDIS_TOKEN enable the shared
// side-channel; without them the cache is purely local.
func InitLeaderboardCache() {
	leaderboardCache = &LeaderboardCache{
		restURL:   os.Getenv("LEADERBOARD_REDIS_URL"),
		restToken: os.Getenv("LEADERBOARD_REDIS_TOKEN"),
		client:    &http.Client{Timeout: 2 * time.Second},
		entries:   make(map[string]cachedBoard),
	}
}

// GetLeaderboardCache returns the initialized cache.
func GetLeaderboardCache() *LeaderboardCache {
	if leaderboardCache == nil {
		InitLeaderboardCache()
	}
	return leaderboardCache
}

// Get returns the cached JSON payload for a date, or nil on miss.
func (c *LeaderboardCache) Get(ctx context.Context, date string) []byte {
	c.mu.Lock()
	entry, ok := c.entries[date]
	if ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.payload
	}
	delete(c.entries, date)
	c.mu.Unlock()

	if payload := c.restGet(ctx, date); payload != nil {
		c.storeLocal(date, payload)
		return payload
	}
	return nil
}

// Set caches the JSON payload for a date.
func (c *LeaderboardCache) Set(ctx context.Context, date string, payload []byte) {
	c.storeLocal(date, payload)
	c.restSet(ctx, date, payload)
}

// Invalidate drops the cached board for a date, used when an ingested
// batch changes that day's scores.
func (c *LeaderboardCache) Invalidate(date string) {
	c.mu.Lock()
	delete(c.entries, date)
	c.mu.Unlock()
}

func (c *LeaderboardCache) storeLocal(date string, payload []byte) {
	c.mu.Lock()
	c.entries[date] = cachedBoard{payload: payload, expires: time.Now().Add(leaderboardTTL)}
	c.mu.Unlock()
}

func (c *LeaderboardCache) cacheKey(date string) string {
	return "leaderboard:daily:" + date
}

func (c *LeaderboardCache) restGet(ctx context.Context, date string) []byte {
	if c.restURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.restURL+"/get/"+url.PathEscape(c.cacheKey(date)), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+c.restToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var out struct {
		Result *string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Result == nil {
		return nil
	}
	return []byte(*out.Result)
}

func (c *LeaderboardCache) restSet(ctx context.Context, date string, payload []byte) {
	if c.restURL == "" {
		return
	}

	target := c.restURL + "/set/" + url.PathEscape(c.cacheKey(date)) +
		"?EX=" + "60"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.restToken)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("Leaderboard cache write failed: %v", err)
		return
	}
	resp.Body.Close()
}

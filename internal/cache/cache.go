// Package cache provides the category-keyed result cache for the MCP server.
//
// Each category holds results whose underlying chain data mutates at a
// different rate: finalized ledger data never changes, account balances churn
// with every block, network stats are volatile. Staleness is computed lazily
// at read time against the category TTL; eviction is plain LRU capacity
// pressure. There is no invalidation API and no background sweep.
package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Category names. Every Set/Get call names one of these.
const (
	CategoryLedger   = "ledger"   // immutable once finalized: blocks, receipts, transactions
	CategoryAccount  = "account"  // balances, nonces, tx counts
	CategoryContract = "contract" // contract source and metadata
	CategoryAuction  = "auction"  // auctions and bids
	CategoryNetwork  = "network"  // node/network stats
)

// NeverStale is the TTL sentinel for categories whose entries never expire.
const NeverStale time.Duration = 0

// CategoryConfig fixes the capacity and freshness policy for one category.
type CategoryConfig struct {
	MaxEntries int
	TTL        time.Duration // NeverStale means entries are always fresh
}

// DefaultCategories returns the category table with the given capacities.
func DefaultCategories(ledgerMax, accountMax, contractMax, auctionMax, networkMax int) map[string]CategoryConfig {
	return map[string]CategoryConfig{
		CategoryLedger:   {MaxEntries: ledgerMax, TTL: NeverStale},
		CategoryAccount:  {MaxEntries: accountMax, TTL: 30 * time.Second},
		CategoryContract: {MaxEntries: contractMax, TTL: 10 * time.Minute},
		CategoryAuction:  {MaxEntries: auctionMax, TTL: 60 * time.Second},
		CategoryNetwork:  {MaxEntries: networkMax, TTL: 10 * time.Second},
	}
}

type entry struct {
	value     any
	timestamp time.Time
}

// Stale is what GetStale returns: the value regardless of freshness,
// tagged with its age so callers can report how old a fallback is.
type Stale struct {
	Value   any
	Age     time.Duration
	IsStale bool
}

// Stats is a point-in-time snapshot of cache counters. Observability only.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	StaleHits uint64 `json:"stale_hits"`
	Entries   int    `json:"entries"`
}

// Manager is the category-keyed cache. Safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	caches map[string]*lru.Cache[string, entry]
	config map[string]CategoryConfig

	hits      uint64
	misses    uint64
	staleHits uint64

	now func() time.Time // overridable in tests
}

// NewManager creates a Manager with one LRU per configured category.
func NewManager(categories map[string]CategoryConfig) (*Manager, error) {
	m := &Manager{
		caches: make(map[string]*lru.Cache[string, entry], len(categories)),
		config: categories,
		now:    time.Now,
	}
	for name, cfg := range categories {
		c, err := lru.New[string, entry](cfg.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("creating %s cache: %w", name, err)
		}
		m.caches[name] = c
	}
	return m, nil
}

// Get returns the cached value only if it exists and is fresh per the
// category TTL. Stale entries are invisible to Get.
func (m *Manager) Get(category, key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.caches[category]
	if !ok {
		m.misses++
		return nil, false
	}
	e, ok := c.Get(key)
	if !ok {
		m.misses++
		return nil, false
	}
	if m.isStale(category, e) {
		m.misses++
		return nil, false
	}
	m.hits++
	return e.value, true
}

// GetStale returns the entry regardless of freshness, tagged with its age.
// Use it as a fallback when a live fetch fails.
func (m *Manager) GetStale(category, key string) (Stale, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.caches[category]
	if !ok {
		m.misses++
		return Stale{}, false
	}
	e, ok := c.Get(key)
	if !ok {
		m.misses++
		return Stale{}, false
	}
	stale := m.isStale(category, e)
	if stale {
		m.staleHits++
	} else {
		m.hits++
	}
	return Stale{
		Value:   e.value,
		Age:     m.now().Sub(e.timestamp),
		IsStale: stale,
	}, true
}

// Set stores the value with the current timestamp, overwriting any previous
// entry for the key. Unknown categories are dropped silently.
func (m *Manager) Set(category, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.caches[category]
	if !ok {
		return
	}
	c.Add(key, entry{value: value, timestamp: m.now()})
}

// Stats returns a snapshot of the counters and total entry count.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := 0
	for _, c := range m.caches {
		entries += c.Len()
	}
	return Stats{
		Hits:      m.hits,
		Misses:    m.misses,
		StaleHits: m.staleHits,
		Entries:   entries,
	}
}

func (m *Manager) isStale(category string, e entry) bool {
	ttl := m.config[category].TTL
	if ttl == NeverStale {
		return false
	}
	return m.now().Sub(e.timestamp) >= ttl
}

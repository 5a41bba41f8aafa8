package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *time.Time) {
	t.Helper()
	m, err := NewManager(DefaultCategories(8, 4, 4, 4, 4))
	require.NoError(t, err)

	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestGet_FreshHit(t *testing.T) {
	m, _ := newTestManager(t)
	m.Set(CategoryAccount, "k1", "v1")

	v, ok := m.Get(CategoryAccount, "k1")
	require.True(t, ok)
	assert.Equal(t, "v1", v)
}

func TestGet_StaleIsInvisible(t *testing.T) {
	m, now := newTestManager(t)
	m.Set(CategoryAccount, "k1", "v1")

	// account TTL is 30s; advance past it
	*now = now.Add(31 * time.Second)

	_, ok := m.Get(CategoryAccount, "k1")
	assert.False(t, ok)

	// the entry is still physically present for GetStale
	st, ok := m.GetStale(CategoryAccount, "k1")
	require.True(t, ok)
	assert.True(t, st.IsStale)
	assert.Equal(t, "v1", st.Value)
	assert.Equal(t, 31*time.Second, st.Age)
}

func TestGet_ExactTTLBoundaryIsStale(t *testing.T) {
	m, now := newTestManager(t)
	m.Set(CategoryAccount, "k1", "v1")

	*now = now.Add(30 * time.Second)

	_, ok := m.Get(CategoryAccount, "k1")
	assert.False(t, ok, "age == ttl must be stale")
}

func TestGetStale_FreshEntry(t *testing.T) {
	m, now := newTestManager(t)
	m.Set(CategoryAccount, "k1", "v1")

	*now = now.Add(5 * time.Second)

	st, ok := m.GetStale(CategoryAccount, "k1")
	require.True(t, ok)
	assert.False(t, st.IsStale)
	assert.Equal(t, 5*time.Second, st.Age)
}

func TestLedgerCategory_NeverStale(t *testing.T) {
	m, now := newTestManager(t)
	m.Set(CategoryLedger, "block-1", "data")

	*now = now.Add(365 * 24 * time.Hour)

	v, ok := m.Get(CategoryLedger, "block-1")
	require.True(t, ok)
	assert.Equal(t, "data", v)
}

func TestSet_Overwrites(t *testing.T) {
	m, now := newTestManager(t)
	m.Set(CategoryAccount, "k1", "old")

	*now = now.Add(29 * time.Second)
	m.Set(CategoryAccount, "k1", "new")

	// fresh again from the second write
	*now = now.Add(29 * time.Second)
	v, ok := m.Get(CategoryAccount, "k1")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestLRUEviction(t *testing.T) {
	m, _ := newTestManager(t)

	// account capacity is 4 in the test table
	for _, k := range []string{"a", "b", "c", "d"} {
		m.Set(CategoryAccount, k, k)
	}
	// touch "a" so "b" is the least recently used
	_, ok := m.Get(CategoryAccount, "a")
	require.True(t, ok)

	m.Set(CategoryAccount, "e", "e")

	_, ok = m.Get(CategoryAccount, "b")
	assert.False(t, ok, "LRU victim should be evicted")
	_, ok = m.Get(CategoryAccount, "a")
	assert.True(t, ok)
}

func TestUnknownCategory(t *testing.T) {
	m, _ := newTestManager(t)
	m.Set("bogus", "k", "v")

	_, ok := m.Get("bogus", "k")
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	m, now := newTestManager(t)
	m.Set(CategoryAccount, "k1", "v1")

	m.Get(CategoryAccount, "k1")      // hit
	m.Get(CategoryAccount, "absent")  // miss
	*now = now.Add(31 * time.Second)
	m.GetStale(CategoryAccount, "k1") // stale hit

	s := m.Stats()
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.Equal(t, uint64(1), s.StaleHits)
	assert.Equal(t, 1, s.Entries)
}

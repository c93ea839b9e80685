package soa

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-zones/internal/dns/common/log"
	"github.com/haukened/rr-zones/internal/dns/domain"
)

const soaText = "ns1.example.com. hostmaster.example.com. 1 7200 3600 1209600 300"

func rr(t *testing.T, name string, rrtype domain.RRType, text string) domain.ResourceRecord {
	t.Helper()
	r, err := domain.NewResourceRecord(name, rrtype, domain.RRClassIN, 300, nil, text)
	require.NoError(t, err)
	return r
}

// mapStore is an in-memory RecordStore counting lookups per apex.
type mapStore struct {
	mu      sync.Mutex
	zones   map[string][]domain.ResourceRecord
	err     error
	lookups []string
}

func (s *mapStore) LookupRecords(_ context.Context, apex string) ([]domain.ResourceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups = append(s.lookups, apex)
	if s.err != nil {
		return nil, s.err
	}
	return s.zones[apex], nil
}

func TestZoneDB_ClosestEnclosingZone(t *testing.T) {
	store := &mapStore{zones: map[string][]domain.ResourceRecord{
		"example.com": {
			rr(t, "example.com", domain.RRTypeSOA, soaText),
			rr(t, "www.example.com", domain.RRTypeA, "192.0.2.1"),
		},
		"sub.example.com": {
			rr(t, "sub.example.com", domain.RRTypeSOA, soaText),
		},
	}}
	p := NewZoneDB(store, log.NewNoopLogger())

	tests := []struct {
		name     string
		wantApex string
		wantOK   bool
	}{
		{name: "www.example.com", wantApex: "example.com", wantOK: true},
		{name: "Example.COM.", wantApex: "example.com", wantOK: true},
		{name: "a.b.sub.example.com", wantApex: "sub.example.com", wantOK: true},
		{name: "www.example.org", wantOK: false},
		{name: "com", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok, err := p.SOA(context.Background(), tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantApex, a.Name)
				assert.Equal(t, domain.RRTypeSOA, a.Type)
			}
		})
	}
}

func TestZoneDB_SkipsZoneWithoutApexSOA(t *testing.T) {
	store := &mapStore{zones: map[string][]domain.ResourceRecord{
		"sub.example.com": {rr(t, "host.sub.example.com", domain.RRTypeA, "192.0.2.2")},
		"example.com":     {rr(t, "example.com", domain.RRTypeSOA, soaText)},
	}}
	p := NewZoneDB(store, log.NewNoopLogger())

	a, ok, err := p.SOA(context.Background(), "host.sub.example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "example.com", a.Name)
	assert.Equal(t, []string{"host.sub.example.com", "sub.example.com", "example.com"}, store.lookups)
}

func TestZoneDB_StoreError(t *testing.T) {
	boom := errors.New("boom")
	p := NewZoneDB(&mapStore{err: boom}, log.NewNoopLogger())

	_, ok, err := p.SOA(context.Background(), "www.example.com")
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestNegativeCache_Disabled(t *testing.T) {
	inner := NewZoneDB(&mapStore{}, log.NewNoopLogger())

	p, err := NewNegativeCache(inner, 0)
	require.NoError(t, err)
	assert.Same(t, inner, p)
}

func TestNegativeCache_CachesMissesOnly(t *testing.T) {
	store := &mapStore{zones: map[string][]domain.ResourceRecord{
		"example.com": {rr(t, "example.com", domain.RRTypeSOA, soaText)},
	}}
	p, err := NewNegativeCache(NewZoneDB(store, log.NewNoopLogger()), 8)
	require.NoError(t, err)
	nc := p.(*NegativeCache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, ok, err := nc.SOA(ctx, "www.example.org")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Len(t, store.lookups, 2, "only the first miss reaches the store")
	assert.Equal(t, 1, nc.Len())

	for i := 0; i < 2; i++ {
		_, ok, err := nc.SOA(ctx, "www.example.com")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, nc.Len(), "positive answers are not cached")

	hits, misses, _ := nc.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(3), misses)
}

func TestNegativeCache_ErrorsNotCached(t *testing.T) {
	store := &mapStore{err: errors.New("boom")}
	p, err := NewNegativeCache(NewZoneDB(store, log.NewNoopLogger()), 8)
	require.NoError(t, err)

	_, _, err = p.SOA(context.Background(), "www.example.com")
	assert.Error(t, err)
	assert.Zero(t, p.(*NegativeCache).Len())
}

func TestNegativeCache_PurgeAndEvictions(t *testing.T) {
	p, err := NewNegativeCache(NewZoneDB(&mapStore{}, log.NewNoopLogger()), 2)
	require.NoError(t, err)
	nc := p.(*NegativeCache)
	ctx := context.Background()

	for _, name := range []string{"a.example", "b.example", "c.example"} {
		_, _, err := nc.SOA(ctx, name)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, nc.Len())

	nc.Purge()
	assert.Zero(t, nc.Len())

	_, _, evictions := nc.Stats()
	assert.Equal(t, uint64(3), evictions)
}

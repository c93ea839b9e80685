package zonecache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-zones/internal/dns/common/log"
	"github.com/haukened/rr-zones/internal/dns/domain"
)

const testSOAText = "ns1.example.com. hostmaster.example.com. 2025010101 7200 3600 1209600 300"

func newTestRR(t testing.TB, name string, rrtype domain.RRType, text string) domain.ResourceRecord {
	t.Helper()
	rr, err := domain.NewResourceRecord(name, rrtype, domain.RRClassIN, 300, nil, text)
	require.NoError(t, err)
	return rr
}

func newTestSOA(t testing.TB, apex string) domain.Authority {
	t.Helper()
	a, err := domain.NewAuthority(newTestRR(t, apex, domain.RRTypeSOA, testSOAText))
	require.NoError(t, err)
	return a
}

// countingSource is a RecordSource serving fixed zones and counting fetches.
type countingSource struct {
	mu      sync.Mutex
	zones   map[string][]domain.ResourceRecord
	err     error
	lookups map[string]int
}

func newCountingSource(zones map[string][]domain.ResourceRecord) *countingSource {
	return &countingSource{zones: zones, lookups: make(map[string]int)}
}

func (s *countingSource) LookupRecords(_ context.Context, apex string) ([]domain.ResourceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups[apex]++
	if s.err != nil {
		return nil, s.err
	}
	return s.zones[apex], nil
}

func (s *countingSource) count(apex string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups[apex]
}

// MockProvider is a testify mock of SOAProvider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SOA(ctx context.Context, name string) (domain.Authority, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.Authority), args.Bool(1), args.Error(2)
}

func staticProvider(a domain.Authority) SOAProvider {
	return ProviderFunc(func(context.Context, string) (domain.Authority, bool, error) {
		return a, true, nil
	})
}

func emptyProvider() SOAProvider {
	return ProviderFunc(func(context.Context, string) (domain.Authority, bool, error) {
		return domain.Authority{}, false, nil
	})
}

// exampleZone returns the records of a small example.com zone.
func exampleZone(t testing.TB) []domain.ResourceRecord {
	t.Helper()
	return []domain.ResourceRecord{
		newTestRR(t, "example.com", domain.RRTypeSOA, testSOAText),
		newTestRR(t, "example.com", domain.RRTypeNS, "ns1.example.com."),
		newTestRR(t, "example.com", domain.RRTypeNS, "ns2.example.net."),
		newTestRR(t, "ns1.example.com", domain.RRTypeA, "192.0.2.53"),
		newTestRR(t, "www.example.com", domain.RRTypeA, "192.0.2.1"),
		newTestRR(t, "a.b.example.com", domain.RRTypeTXT, "deep"),
	}
}

func newTestCache(source RecordSource, providers ...SOAProvider) *ZoneCache {
	return New(Options{
		Source:    source,
		Providers: providers,
		Logger:    log.NewNoopLogger(),
	})
}

// Package zonecache is the authoritative zone cache: the single owner of the
// apex → zone and name → authority mappings, plus the algorithms that resolve
// a query name to the most specific zone that answers it.
package zonecache

import (
	"slices"
	"sort"
	"sync"

	"github.com/haukened/rr-zones/internal/dns/common/clock"
	"github.com/haukened/rr-zones/internal/dns/common/log"
	"github.com/haukened/rr-zones/internal/dns/common/utils"
	"github.com/haukened/rr-zones/internal/dns/domain"
)

// ZoneCache serializes every read and write of the zone and authority maps
// through one lock. Zones are immutable once stored and are only ever
// replaced wholesale.
type ZoneCache struct {
	mu          sync.RWMutex
	zones       map[string]*domain.Zone     // apex → zone
	authorities map[string]domain.Authority // query name → authority
	providers   []SOAProvider

	source  RecordSource
	clock   clock.Clock
	logger  log.Logger
	metrics *Metrics
}

// Options configures a ZoneCache. Only Source is needed for materialization;
// every other field has a usable default.
type Options struct {
	Source    RecordSource
	Providers []SOAProvider
	Clock     clock.Clock
	Logger    log.Logger
	Metrics   *Metrics
}

// New creates an empty ZoneCache.
func New(opts Options) *ZoneCache {
	zc := &ZoneCache{
		zones:       make(map[string]*domain.Zone),
		authorities: make(map[string]domain.Authority),
		providers:   append([]SOAProvider(nil), opts.Providers...),
		source:      opts.Source,
		clock:       opts.Clock,
		logger:      log.OrGlobal(opts.Logger),
		metrics:     opts.Metrics,
	}
	if zc.clock == nil {
		zc.clock = clock.RealClock{}
	}
	if zc.metrics == nil {
		zc.metrics = NewMetrics(nil)
	}
	return zc
}

// RegisterProvider appends an SOA provider. Later providers take precedence
// over earlier ones when both know a name.
func (zc *ZoneCache) RegisterProvider(p SOAProvider) {
	zc.mu.Lock()
	defer zc.mu.Unlock()
	zc.providers = append(zc.providers, p)
}

// GetZone returns the metadata-only view of the zone cached under name.
func (zc *ZoneCache) GetZone(name string) (domain.ZoneSummary, error) {
	z, ok := zc.findZoneInCache(utils.CanonicalDNSName(name))
	if !ok {
		return domain.ZoneSummary{}, domain.ErrZoneNotFound
	}
	return z.Summary(), nil
}

// PutZone stores zone under name, replacing any existing entry. The stored
// zone is rebuilt from zone.Records, so the record set is deduplicated and the
// name index always matches it. Only the key material, LoadedAt and an
// explicit Authority are taken from the caller.
func (zc *ZoneCache) PutZone(name string, zone domain.Zone) {
	z := BuildZone(name, zone.Records, zone.KeySigningKey, zone.ZoneSigningKey)
	if len(zone.Authority) > 0 {
		z.Authority = slices.Clone(zone.Authority)
	}
	z.LoadedAt = zone.LoadedAt
	if z.LoadedAt.IsZero() {
		z.LoadedAt = zc.clock.Now()
	}
	zc.store(z)
}

func (zc *ZoneCache) store(z *domain.Zone) {
	zc.mu.Lock()
	zc.zones[z.Name] = z
	n := len(zc.zones)
	zc.mu.Unlock()

	zc.metrics.CachedZones.Set(float64(n))
	zc.logger.Debug(map[string]any{
		"zone":    z.Name,
		"records": z.RecordCount,
	}, "Zone stored")
}

// PutAuthority caches authority under name, replacing any existing entry.
func (zc *ZoneCache) PutAuthority(name string, authority domain.Authority) {
	name = utils.CanonicalDNSName(name)
	zc.mu.Lock()
	defer zc.mu.Unlock()
	zc.authorities[name] = authority
}

// GetAuthorityCached returns the authority cached under name without
// consulting any provider.
func (zc *ZoneCache) GetAuthorityCached(name string) (domain.Authority, bool) {
	name = utils.CanonicalDNSName(name)
	zc.mu.RLock()
	defer zc.mu.RUnlock()
	a, ok := zc.authorities[name]
	return a, ok
}

// Zones returns the sorted apex names currently cached.
func (zc *ZoneCache) Zones() []string {
	zc.mu.RLock()
	zones := make([]string, 0, len(zc.zones))
	for apex := range zc.zones {
		zones = append(zones, apex)
	}
	zc.mu.RUnlock()

	sort.Strings(zones)
	return zones
}

// Count returns the total number of records across all cached zones.
func (zc *ZoneCache) Count() int {
	zc.mu.RLock()
	defer zc.mu.RUnlock()

	count := 0
	for _, z := range zc.zones {
		count += z.RecordCount
	}
	return count
}

// findZoneInCache returns the full zone for a canonical apex name. The zone
// is shared and must not be modified.
func (zc *ZoneCache) findZoneInCache(name string) (*domain.Zone, bool) {
	zc.mu.RLock()
	defer zc.mu.RUnlock()
	z, ok := zc.zones[name]
	return z, ok
}

func (zc *ZoneCache) providerList() []SOAProvider {
	zc.mu.RLock()
	defer zc.mu.RUnlock()
	return append([]SOAProvider(nil), zc.providers...)
}

package zonecache

import (
	"context"
	"fmt"

	"github.com/miekg/dns"

	"github.com/haukened/rr-zones/internal/dns/common/utils"
	"github.com/haukened/rr-zones/internal/dns/domain"
)

// FindZone resolves the authority for name and returns the most specific
// zone that answers it, materializing the authority's zone if needed.
// The returned zone is a copy; changing it does not affect the cache.
func (zc *ZoneCache) FindZone(ctx context.Context, name string) (domain.Zone, error) {
	authority, err := zc.GetAuthority(ctx, name)
	if err != nil {
		return domain.Zone{}, fmt.Errorf("%w: %w", domain.ErrNotAuthoritative, err)
	}
	return zc.FindZoneWithAuthority(ctx, name, &authority)
}

// FindZoneForMsg is FindZone for the last question in msg.
func (zc *ZoneCache) FindZoneForMsg(ctx context.Context, msg *dns.Msg) (domain.Zone, error) {
	name, err := lastQuestion(msg)
	if err != nil {
		return domain.Zone{}, err
	}
	return zc.FindZone(ctx, name)
}

// FindZoneWithAuthority walks from name towards the root. The first cached
// zone wins. Reaching the authority's own apex without a cached zone builds
// that zone from the backing store. Running out of labels first is
// ErrZoneNotFound.
func (zc *ZoneCache) FindZoneWithAuthority(ctx context.Context, name string, authority *domain.Authority) (domain.Zone, error) {
	if authority == nil || authority.IsZero() {
		return domain.Zone{}, domain.ErrNotAuthoritative
	}
	name = utils.CanonicalDNSName(name)
	apex := utils.CanonicalDNSName(authority.Name)

	var cached *domain.Zone
	_, ok := walkSuffixes(name, func(suffix string) bool {
		if z, hit := zc.findZoneInCache(suffix); hit {
			cached = z
			return true
		}
		return suffix == apex
	})
	switch {
	case !ok:
		zc.metrics.ZoneLookups.WithLabelValues("miss").Inc()
		return domain.Zone{}, domain.ErrZoneNotFound
	case cached != nil:
		zc.metrics.ZoneLookups.WithLabelValues("hit").Inc()
		return cached.Clone(), nil
	}

	zc.metrics.ZoneLookups.WithLabelValues("materialized").Inc()
	return zc.materialize(ctx, apex).Clone(), nil
}

// materialize fetches the apex's records and stores the resulting zone.
// The fetch runs without holding the cache lock; two concurrent
// materializations of the same apex both store equivalent zones and the
// last one wins.
func (zc *ZoneCache) materialize(ctx context.Context, apex string) *domain.Zone {
	var (
		records []domain.ResourceRecord
		err     error
	)
	if zc.source != nil {
		records, err = zc.source.LookupRecords(ctx, apex)
	}

	switch {
	case err != nil:
		zc.metrics.Materializations.WithLabelValues("error").Inc()
		zc.logger.Warn(map[string]any{"zone": apex, "error": err}, "Backing store lookup failed, caching empty zone")
		records = nil
	case len(records) == 0:
		zc.metrics.Materializations.WithLabelValues("empty").Inc()
		zc.logger.Warn(map[string]any{"zone": apex}, "Backing store returned no records, caching empty zone")
	default:
		zc.metrics.Materializations.WithLabelValues("ok").Inc()
	}

	z := BuildZone(apex, records, nil, nil)
	z.LoadedAt = zc.clock.Now()
	zc.store(z)

	zc.logger.Info(map[string]any{
		"zone":    apex,
		"records": z.RecordCount,
	}, "Zone materialized")
	return z
}

package zonecache

import (
	"github.com/haukened/rr-zones/internal/dns/common/utils"
	"github.com/haukened/rr-zones/internal/dns/domain"
)

// These queries read cached zones only. They never materialize, and a name
// outside every cached zone yields an empty result rather than an error.

// coveringZone returns the cached zone for name or its closest cached ancestor.
func (zc *ZoneCache) coveringZone(name string) (*domain.Zone, bool) {
	var z *domain.Zone
	_, ok := walkSuffixes(name, func(suffix string) bool {
		var hit bool
		z, hit = zc.findZoneInCache(suffix)
		return hit
	})
	return z, ok
}

// GetDelegations returns the NS records of the covering zone whose target is
// name, i.e. the delegations that need glue for the host name.
func (zc *ZoneCache) GetDelegations(name string) []domain.ResourceRecord {
	name = utils.CanonicalDNSName(name)
	z, ok := zc.coveringZone(name)
	if !ok {
		return nil
	}

	var out []domain.ResourceRecord
	for _, rr := range z.Records {
		if rr.Type != domain.RRTypeNS {
			continue
		}
		if target, _ := rr.Target(); target == name {
			out = append(out, rr)
		}
	}
	return out
}

// GetRecordsByName returns every record owned by name in the covering zone.
func (zc *ZoneCache) GetRecordsByName(name string) []domain.ResourceRecord {
	name = utils.CanonicalDNSName(name)
	z, ok := zc.coveringZone(name)
	if !ok {
		return nil
	}
	group := z.RecordsByName[name]
	if len(group) == 0 {
		return nil
	}
	return append([]domain.ResourceRecord(nil), group...)
}

// InZone reports whether name or one of its ancestors owns records in the
// covering zone, so empty non-terminals count as inside the zone.
func (zc *ZoneCache) InZone(name string) bool {
	name = utils.CanonicalDNSName(name)
	z, ok := zc.coveringZone(name)
	if !ok {
		return false
	}
	_, ok = walkSuffixes(name, func(suffix string) bool {
		_, present := z.RecordsByName[suffix]
		return present
	})
	return ok
}

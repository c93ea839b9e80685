package domain

import (
	"maps"
	"slices"
	"time"
)

// Zone is the in-memory representation of an authoritative DNS zone.
//
// RecordsByName is always derived from Records; zones are built once and then
// replaced wholesale, never patched in place.
type Zone struct {
	// Name is the canonical apex name.
	Name string
	// Authority holds the SOA record(s) found among Records, ordinarily exactly one.
	Authority []ResourceRecord
	// Records is the de-duplicated record set.
	Records     []ResourceRecord
	RecordCount int
	// RecordsByName groups Records by canonical owner name, preserving input order.
	RecordsByName map[string][]ResourceRecord
	// RecordsByType is reserved for a per-type index and is not populated yet.
	RecordsByType map[RRType][]ResourceRecord

	// DNSSEC key material, carried opaquely.
	KeySigningKey  []byte
	ZoneSigningKey []byte

	LoadedAt time.Time
}

// ZoneSummary is the metadata-only view of a Zone. It never carries the
// record set or the name index.
type ZoneSummary struct {
	Name        string
	Authority   []ResourceRecord
	RecordCount int
	Signed      bool
	LoadedAt    time.Time
}

// Summary strips the bulk record payload from the zone.
func (z *Zone) Summary() ZoneSummary {
	auth := make([]ResourceRecord, len(z.Authority))
	copy(auth, z.Authority)
	return ZoneSummary{
		Name:        z.Name,
		Authority:   auth,
		RecordCount: z.RecordCount,
		Signed:      len(z.KeySigningKey) > 0 || len(z.ZoneSigningKey) > 0,
		LoadedAt:    z.LoadedAt,
	}
}

// SOA returns the zone's first SOA record as an Authority.
func (z *Zone) SOA() (Authority, bool) {
	if len(z.Authority) == 0 {
		return Authority{}, false
	}
	return Authority{ResourceRecord: z.Authority[0]}, true
}

// Clone returns a copy of the zone that shares no slices or maps with z.
func (z *Zone) Clone() Zone {
	c := *z
	c.Authority = slices.Clone(z.Authority)
	c.Records = slices.Clone(z.Records)
	c.KeySigningKey = slices.Clone(z.KeySigningKey)
	c.ZoneSigningKey = slices.Clone(z.ZoneSigningKey)
	if z.RecordsByName != nil {
		c.RecordsByName = make(map[string][]ResourceRecord, len(z.RecordsByName))
		for name, group := range z.RecordsByName {
			c.RecordsByName[name] = slices.Clone(group)
		}
	}
	if z.RecordsByType != nil {
		c.RecordsByType = maps.Clone(z.RecordsByType)
		for t, group := range c.RecordsByType {
			c.RecordsByType[t] = slices.Clone(group)
		}
	}
	return c
}

package zonecache

import (
	"github.com/haukened/rr-zones/internal/dns/common/utils"
	"github.com/haukened/rr-zones/internal/dns/domain"
)

// BuildNamedIndex groups records by canonical owner name. Within a group the
// records keep the relative order they had in the input. Duplicates are kept;
// callers deduplicate first.
func BuildNamedIndex(records []domain.ResourceRecord) map[string][]domain.ResourceRecord {
	index := make(map[string][]domain.ResourceRecord)
	for _, rr := range records {
		name := utils.CanonicalDNSName(rr.Name)
		index[name] = append(index[name], rr)
	}
	return index
}

// Dedup collapses exact duplicate records, keeping the first occurrence.
func Dedup(records []domain.ResourceRecord) []domain.ResourceRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.ResourceRecord, 0, len(records))
	for _, rr := range records {
		key := rr.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rr)
	}
	return out
}

// BuildZone constructs a zone from a flat record list: deduplicated record set,
// named index, and the SOA record(s) as the zone authority.
func BuildZone(name string, records []domain.ResourceRecord, ksk, zsk []byte) *domain.Zone {
	set := Dedup(records)
	return &domain.Zone{
		Name:           utils.CanonicalDNSName(name),
		Authority:      selectSOA(set),
		Records:        set,
		RecordCount:    len(set),
		RecordsByName:  BuildNamedIndex(set),
		KeySigningKey:  ksk,
		ZoneSigningKey: zsk,
	}
}

func selectSOA(records []domain.ResourceRecord) []domain.ResourceRecord {
	var soa []domain.ResourceRecord
	for _, rr := range records {
		if rr.Type == domain.RRTypeSOA {
			soa = append(soa, rr)
		}
	}
	return soa
}

// Package soa holds SOA providers: sources that can name the authority for a
// query name, for registration with the zone cache.
package soa

import (
	"context"

	"github.com/haukened/rr-zones/internal/dns/common/log"
	"github.com/haukened/rr-zones/internal/dns/common/utils"
	"github.com/haukened/rr-zones/internal/dns/domain"
)

// Provider supplies the authority for a name, if it knows one.
type Provider interface {
	SOA(ctx context.Context, name string) (domain.Authority, bool, error)
}

// RecordStore is the part of the backing store the ZoneDB provider reads.
type RecordStore interface {
	LookupRecords(ctx context.Context, apex string) ([]domain.ResourceRecord, error)
}

// ZoneDB answers with the SOA of the closest enclosing zone held by the
// backing store.
type ZoneDB struct {
	store  RecordStore
	logger log.Logger
}

func NewZoneDB(store RecordStore, logger log.Logger) *ZoneDB {
	return &ZoneDB{store: store, logger: log.OrGlobal(logger)}
}

// SOA walks name and its ancestors, most specific first, and returns the
// first apex SOA found. Stored zones without an SOA are skipped.
func (p *ZoneDB) SOA(ctx context.Context, name string) (domain.Authority, bool, error) {
	for _, suffix := range utils.Suffixes(name) {
		records, err := p.store.LookupRecords(ctx, suffix)
		if err != nil {
			return domain.Authority{}, false, err
		}
		for _, rr := range records {
			if rr.Type != domain.RRTypeSOA || rr.Name != suffix {
				continue
			}
			a, err := domain.NewAuthority(rr)
			if err != nil {
				p.logger.Warn(map[string]any{"zone": suffix, "error": err}, "Ignoring invalid SOA")
				continue
			}
			return a, true, nil
		}
	}
	return domain.Authority{}, false, nil
}

// Package zonedb is the persistent backing store for zone records. Each apex
// is one row of the zones table: the key is the apex in canonical wire form,
// the value is the zone's records as master file lines.
package zonedb

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/miekg/dns"

	"github.com/haukened/rr-zones/internal/dns/common/clock"
	"github.com/haukened/rr-zones/internal/dns/common/log"
	"github.com/haukened/rr-zones/internal/dns/common/rrdata"
	"github.com/haukened/rr-zones/internal/dns/common/utils"
	"github.com/haukened/rr-zones/internal/dns/domain"
	"github.com/haukened/rr-zones/internal/dns/repos/table"
	"github.com/haukened/rr-zones/internal/dns/repos/zonedb/bloom"
)

// ZonesTable is the table holding one row per zone apex.
const ZonesTable = "zones"

const (
	defaultFPRate  = 0.01
	minFilterKeys  = 64
	filterHeadroom = 2
)

// Options configures a Store.
type Options struct {
	// FPRate is the target false-positive rate of the apex filter.
	FPRate float64
	Logger log.Logger
	Clock  clock.Clock
}

// Store reads and writes zone records in a table.DB. Lookups for apexes the
// store has never held are answered from a Bloom filter without a table read.
type Store struct {
	db     *table.DB
	fpRate float64
	logger log.Logger
	clock  clock.Clock

	// writeMu orders table writes against filter rebuilds, so a rebuild
	// never folds the table between an Insert and the matching filter Add.
	writeMu sync.Mutex

	mu     sync.RWMutex
	filter *bloom.Filter
}

// New creates the zones table if needed and builds the apex filter from its
// current contents.
func New(db *table.DB, opts Options) (*Store, error) {
	if err := db.Create(ZonesTable); err != nil {
		return nil, fmt.Errorf("create %s table: %w", ZonesTable, err)
	}
	s := &Store{
		db:     db,
		fpRate: opts.FPRate,
		logger: log.OrGlobal(opts.Logger),
		clock:  opts.Clock,
	}
	if s.fpRate <= 0 || s.fpRate >= 1 {
		s.fpRate = defaultFPRate
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if err := s.Rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// Rebuild replaces the apex filter with one built from the table.
func (s *Store) Rebuild() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.rebuild()
}

func (s *Store) rebuild() error {
	n, err := s.db.Len(ZonesTable)
	if err != nil {
		return err
	}
	capacity := uint64(n * filterHeadroom)
	if capacity < minFilterKeys {
		capacity = minFilterKeys
	}
	f := bloom.New(capacity, s.fpRate)
	if err := s.db.Fold(ZonesTable, func(k, _ []byte) error {
		f.Add(k)
		return nil
	}); err != nil {
		return fmt.Errorf("rebuild apex filter: %w", err)
	}

	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()

	s.logger.Debug(map[string]any{
		"zones":    n,
		"capacity": capacity,
	}, "Apex filter rebuilt")
	return nil
}

func (s *Store) apexFilter() *bloom.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// LookupRecords returns every record stored for apex. An apex the store does
// not hold yields no records and no error.
func (s *Store) LookupRecords(ctx context.Context, apex string) ([]domain.ResourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := apexKey(apex)
	if err != nil {
		return nil, err
	}
	if !s.apexFilter().MightContain(key) {
		return nil, nil
	}
	v, ok, err := s.db.Select(ZonesTable, key)
	if err != nil || !ok {
		return nil, err
	}
	records, err := rrdata.ParseAll(bytes.NewReader(v), "", 0)
	if err != nil {
		return nil, fmt.Errorf("decode zone %s: %w", utils.CanonicalDNSName(apex), err)
	}
	return records, nil
}

// HasZone reports whether the store holds a row for apex.
func (s *Store) HasZone(apex string) (bool, error) {
	key, err := apexKey(apex)
	if err != nil {
		return false, err
	}
	if !s.apexFilter().MightContain(key) {
		return false, nil
	}
	_, ok, err := s.db.Select(ZonesTable, key)
	return ok, err
}

// PutRecords replaces the stored records of apex.
func (s *Store) PutRecords(apex string, records []domain.ResourceRecord) error {
	key, err := apexKey(apex)
	if err != nil {
		return err
	}
	// The comment header keeps the row non-empty for zones without records.
	var b strings.Builder
	b.WriteString("; " + dns.Fqdn(utils.CanonicalDNSName(apex)) + "\n")
	for _, rr := range records {
		line, err := rrdata.Format(rr)
		if err != nil {
			return fmt.Errorf("encode zone %s: %w", utils.CanonicalDNSName(apex), err)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.db.Insert(ZonesTable, key, []byte(b.String())); err != nil {
		return err
	}

	f := s.apexFilter()
	f.Add(key)
	if f.Saturated() {
		if err := s.rebuild(); err != nil {
			return err
		}
	}
	return s.db.Touch(ZonesTable, s.clock.Now())
}

// DeleteZone removes apex from the store. The apex stays a filter false
// positive until the next Rebuild.
func (s *Store) DeleteZone(apex string) error {
	key, err := apexKey(apex)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.db.Delete(ZonesTable, key); err != nil {
		return err
	}
	return s.db.Touch(ZonesTable, s.clock.Now())
}

// Apexes returns the sorted canonical names of every stored zone.
func (s *Store) Apexes() ([]string, error) {
	var out []string
	err := s.db.Fold(ZonesTable, func(k, _ []byte) error {
		name, _, err := dns.UnpackDomainName(k, 0)
		if err != nil {
			return fmt.Errorf("corrupt apex key %x: %w", k, err)
		}
		out = append(out, utils.CanonicalDNSName(name))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// apexKey returns the canonical wire form of apex.
func apexKey(apex string) ([]byte, error) {
	name := utils.CanonicalDNSName(apex)
	if name == "" {
		return nil, fmt.Errorf("empty zone apex")
	}
	buf := make([]byte, 256)
	n, err := dns.PackDomainName(dns.Fqdn(name), buf, 0, nil, false)
	if err != nil {
		return nil, fmt.Errorf("zone apex %q: %w", name, err)
	}
	return utils.CanonicalWireName(buf[:n]), nil
}

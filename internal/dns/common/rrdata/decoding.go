package rrdata

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/miekg/dns"

	"github.com/haukened/rr-zones/internal/dns/domain"
)

// Decode decodes wire-form RDATA of the given type to its presentation form.
func Decode(rrType domain.RRType, data []byte) (string, error) {
	if !rrType.IsValid() {
		return "", fmt.Errorf("unsupported RRType: %d", rrType)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty %s data", rrType)
	}
	h := dns.RR_Header{
		Name:     ".",
		Rrtype:   uint16(rrType),
		Class:    dns.ClassINET,
		Rdlength: uint16(len(data)),
	}
	rr, _, err := dns.UnpackRRWithHeader(h, data, 0)
	if err != nil {
		return "", fmt.Errorf("unpack %s data: %w", rrType, err)
	}
	return presentation(rr), nil
}

// FromRR converts a miekg/dns record to a ResourceRecord carrying both the
// presentation and wire forms of its data.
func FromRR(rr dns.RR) (domain.ResourceRecord, error) {
	if rr == nil {
		return domain.ResourceRecord{}, fmt.Errorf("nil record")
	}
	h := rr.Header()
	data, err := packRdata(rr)
	if err != nil {
		return domain.ResourceRecord{}, fmt.Errorf("record %s: %w", h.Name, err)
	}
	return domain.NewResourceRecord(h.Name, domain.RRType(h.Rrtype), domain.RRClass(h.Class), h.Ttl, data, presentation(rr))
}

// Parse parses a single master file line. Relative names are completed with
// origin and a missing TTL defaults to defaultTTL.
func Parse(line, origin string, defaultTTL uint32) (domain.ResourceRecord, error) {
	zp := newParser(strings.NewReader(line), origin, defaultTTL)
	rr, ok := zp.Next()
	if err := zp.Err(); err != nil {
		return domain.ResourceRecord{}, err
	}
	if !ok {
		return domain.ResourceRecord{}, fmt.Errorf("no record in %q", line)
	}
	return FromRR(rr)
}

// ParseAll parses master file text, one record per line.
func ParseAll(r io.Reader, origin string, defaultTTL uint32) ([]domain.ResourceRecord, error) {
	var out []domain.ResourceRecord
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		rr, err := Parse(line, origin, defaultTTL)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, rr)
	}
	return out, sc.Err()
}

func newParser(r io.Reader, origin string, defaultTTL uint32) *dns.ZoneParser {
	if origin != "" {
		origin = dns.Fqdn(origin)
	}
	zp := dns.NewZoneParser(r, origin, "")
	zp.SetDefaultTTL(defaultTTL)
	return zp
}

func presentation(rr dns.RR) string {
	return strings.TrimSpace(strings.TrimPrefix(rr.String(), rr.Header().String()))
}

package domain

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/haukened/rr-zones/internal/dns/common/utils"
)

// ResourceRecord represents an authoritative DNS resource record held by a zone.
// Records are immutable once a zone has been built from them; zones share the
// underlying slices between the record set and the name index.
type ResourceRecord struct {
	Name  string
	Type  RRType
	Class RRClass
	TTL   uint32
	Data  []byte // Wire-encoded RDATA
	Text  string // Presentation form of the RDATA
}

// NewResourceRecord constructs a ResourceRecord with a canonical owner name and validates it.
func NewResourceRecord(name string, rrtype RRType, class RRClass, ttl uint32, data []byte, text string) (ResourceRecord, error) {
	rr := ResourceRecord{
		Name:  utils.CanonicalDNSName(name),
		Type:  rrtype,
		Class: class,
		TTL:   ttl,
		Data:  data,
		Text:  text,
	}
	if err := rr.Validate(); err != nil {
		return ResourceRecord{}, err
	}
	return rr, nil
}

// Validate checks whether the ResourceRecord fields are valid.
func (rr ResourceRecord) Validate() error {
	if rr.Name == "" {
		return fmt.Errorf("record name must not be empty")
	}
	if !rr.Type.IsValid() {
		return fmt.Errorf("invalid RRType: %d", rr.Type)
	}
	if !rr.Class.IsValid() {
		return fmt.Errorf("invalid RRClass: %d", rr.Class)
	}
	if rr.Text == "" && len(rr.Data) == 0 {
		return fmt.Errorf("either Text or Data must be set")
	}
	return nil
}

// Key returns the identity of the record. Two records with equal keys are the
// same record for set semantics.
func (rr ResourceRecord) Key() string {
	var b strings.Builder
	b.WriteString(rr.Name)
	b.WriteByte('|')
	b.WriteString(rr.Type.String())
	b.WriteByte('|')
	b.WriteString(rr.Class.String())
	b.WriteByte('|')
	b.WriteString(strconv.FormatUint(uint64(rr.TTL), 10))
	b.WriteByte('|')
	b.WriteString(rr.Text)
	b.WriteByte('|')
	b.WriteString(hex.EncodeToString(rr.Data))
	return b.String()
}

// Target returns the canonical domain name an NS, CNAME or PTR record points at.
// The second return value is false for every other type.
func (rr ResourceRecord) Target() (string, bool) {
	switch rr.Type {
	case RRTypeNS, RRTypeCNAME, RRTypePTR:
		return utils.CanonicalDNSName(rr.Text), true
	default:
		return "", false
	}
}

// String renders the record roughly in master file form, for logs.
func (rr ResourceRecord) String() string {
	return fmt.Sprintf("%s %d %s %s %s", rr.Name, rr.TTL, rr.Class, rr.Type, rr.Text)
}

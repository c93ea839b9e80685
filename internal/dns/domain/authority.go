package domain

import "fmt"

// Authority is the single SOA record that makes its owner name a zone apex.
// The owner name (Authority.Name) is the apex; the remaining SOA fields are
// carried in the embedded record and not interpreted by the cache.
type Authority struct {
	ResourceRecord
}

// NewAuthority wraps an SOA record. Any other record type is rejected.
func NewAuthority(rr ResourceRecord) (Authority, error) {
	if rr.Type != RRTypeSOA {
		return Authority{}, fmt.Errorf("authority must be an SOA record, got %s", rr.Type)
	}
	if err := rr.Validate(); err != nil {
		return Authority{}, err
	}
	return Authority{ResourceRecord: rr}, nil
}

// IsZero reports whether the authority is empty.
func (a Authority) IsZero() bool {
	return a.Name == ""
}

// Package rrdata converts resource record data between its presentation
// form, its wire form and miekg/dns records.
package rrdata

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"github.com/haukened/rr-zones/internal/dns/domain"
)

// Encode encodes presentation-form RDATA of the given type to its wire form.
func Encode(rrType domain.RRType, text string) ([]byte, error) {
	if !rrType.IsValid() {
		return nil, fmt.Errorf("unsupported RRType: %d", rrType)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty %s data", rrType)
	}
	rr, err := dns.NewRR(fmt.Sprintf(". 0 IN %s %s", rrType, text))
	if err != nil {
		return nil, fmt.Errorf("parse %s data %q: %w", rrType, text, err)
	}
	if rr == nil {
		return nil, fmt.Errorf("empty %s data", rrType)
	}
	return packRdata(rr)
}

// ToRR converts a record to its miekg/dns equivalent.
func ToRR(rr domain.ResourceRecord) (dns.RR, error) {
	if err := rr.Validate(); err != nil {
		return nil, err
	}
	text := rr.Text
	if text == "" {
		decoded, err := Decode(rr.Type, rr.Data)
		if err != nil {
			return nil, err
		}
		text = decoded
	}
	out, err := dns.NewRR(fmt.Sprintf("%s %d %s %s %s", dns.Fqdn(rr.Name), rr.TTL, rr.Class, rr.Type, text))
	if err != nil {
		return nil, fmt.Errorf("record %s %s: %w", rr.Name, rr.Type, err)
	}
	return out, nil
}

// Format renders a record as a single master file line.
func Format(rr domain.ResourceRecord) (string, error) {
	out, err := ToRR(rr)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// packRdata returns the wire form of rr's RDATA, without the header.
func packRdata(rr dns.RR) ([]byte, error) {
	name := make([]byte, 256)
	nameLen, err := dns.PackDomainName(rr.Header().Name, name, 0, nil, false)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, dns.Len(rr)+1)
	off, err := dns.PackRR(rr, buf, 0, nil, false)
	if err != nil {
		return nil, err
	}
	// type, class, ttl and rdlength follow the owner name
	headerLen := nameLen + 10
	if off < headerLen {
		return nil, fmt.Errorf("short record: %d bytes", off)
	}
	data := make([]byte, off-headerLen)
	copy(data, buf[headerLen:off])
	return data, nil
}

package domain

import (
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// RRClass is the class of a zone record. Zones carry data in IN, CH or HS;
// the query-only classes NONE and ANY never appear in a zone.
type RRClass uint16

const (
	RRClassIN RRClass = RRClass(dns.ClassINET)
	RRClassCH RRClass = RRClass(dns.ClassCHAOS)
	RRClassHS RRClass = RRClass(dns.ClassHESIOD)
)

// IsValid reports whether records of class c can be stored in a zone.
func (c RRClass) IsValid() bool {
	switch c {
	case RRClassIN, RRClassCH, RRClassHS:
		return true
	}
	return false
}

// String returns the master file mnemonic, e.g. "IN". Classes that cannot
// appear in a zone render as "CLASS<n>".
func (c RRClass) String() string {
	if !c.IsValid() {
		return "CLASS" + strconv.Itoa(int(c))
	}
	return dns.ClassToString[uint16(c)]
}

// ParseRRClass converts a master file class mnemonic to an RRClass. Unknown
// or query-only classes yield 0.
func ParseRRClass(s string) RRClass {
	c := RRClass(dns.StringToClass[strings.ToUpper(strings.TrimSpace(s))])
	if !c.IsValid() {
		return 0
	}
	return c
}

package utils

import (
	"strings"

	"github.com/miekg/dns"
)

// MinZoneLabels is the fewest labels a zone apex may have. A bare top-level
// label is never treated as a zone.
const MinZoneLabels = 2

// CanonicalDNSName returns a DNS name in canonical form:
// - Lowercased
// - Trimmed of surrounding whitespace
// - No trailing dot because it doesn't add any runtime benefit, only legacy baggage.
func CanonicalDNSName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// CanonicalWireName lower-cases a name in wire format (length-prefixed labels).
// Length octets are copied unchanged and the input is never modified.
func CanonicalWireName(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	for i := 0; i < len(out); {
		n := int(out[i])
		if n == 0 {
			break
		}
		end := i + 1 + n
		if end > len(out) {
			end = len(out)
		}
		for j := i + 1; j < end; j++ {
			if c := out[j]; c >= 'A' && c <= 'Z' {
				out[j] = c + ('a' - 'A')
			}
		}
		i = end
	}
	return out
}

// Labels splits a name into its labels, honouring escaped dots.
func Labels(name string) []string {
	return dns.SplitDomainName(CanonicalDNSName(name))
}

// Parent strips the leftmost label. It returns false when name has a single label.
func Parent(name string) (string, bool) {
	name = CanonicalDNSName(name)
	idx := dns.Split(name)
	if len(idx) < 2 {
		return "", false
	}
	return name[idx[1]:], true
}

// Suffixes returns name followed by each of its ancestors, most specific first,
// stopping at MinZoneLabels labels. Names shorter than that yield nil.
func Suffixes(name string) []string {
	name = CanonicalDNSName(name)
	idx := dns.Split(name)
	if len(idx) < MinZoneLabels {
		return nil
	}
	out := make([]string, 0, len(idx)-MinZoneLabels+1)
	for _, i := range idx[:len(idx)-MinZoneLabels+1] {
		out = append(out, name[i:])
	}
	return out
}

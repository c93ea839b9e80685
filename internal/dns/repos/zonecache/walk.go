package zonecache

import "github.com/haukened/rr-zones/internal/dns/common/utils"

// walkSuffixes calls visit with name and then each ancestor, most specific
// first, until visit returns true or fewer than utils.MinZoneLabels labels
// remain. It returns the suffix visit accepted.
func walkSuffixes(name string, visit func(suffix string) bool) (string, bool) {
	for _, suffix := range utils.Suffixes(name) {
		if visit(suffix) {
			return suffix, true
		}
	}
	return "", false
}

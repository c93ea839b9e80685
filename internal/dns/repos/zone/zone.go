// Package zone loads authoritative zones from YAML, JSON and TOML zone files.
//
// A zone file names its apex with zone_root and maps owner names to record
// types and values:
//
//	zone_root: example.com
//	ttl: 3600          # optional file default
//	"@":
//	  SOA: "ns1 hostmaster 2025010101 7200 3600 1209600 300"
//	  NS: ["ns1", "ns2.example.net."]
//	www:
//	  ttl: 60          # optional per-owner override
//	  A: ["192.0.2.1", "192.0.2.2"]
//
// Owner names and names inside values are relative to zone_root unless they
// end in a dot. A map nested under an owner describes a subdomain of it, so
// www: {api: {A: ...}} is api.www.<zone_root>.
package zone

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/miekg/dns"

	"github.com/haukened/rr-zones/internal/dns/common/log"
	"github.com/haukened/rr-zones/internal/dns/common/rrdata"
	"github.com/haukened/rr-zones/internal/dns/common/utils"
	"github.com/haukened/rr-zones/internal/dns/domain"
)

const (
	keyZoneRoot = "zone_root"
	keyTTL      = "ttl"
)

// File is one parsed zone file.
type File struct {
	Path    string
	Root    string
	Records []domain.ResourceRecord
}

// Supported reports whether path has a zone file extension.
func Supported(path string) bool {
	return parserFor(path) != nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	case ".toml":
		return toml.Parser()
	default:
		return nil
	}
}

// LoadFiles walks dir and parses every supported zone file in it. Files with
// other extensions are skipped. Any parse failure aborts the load.
func LoadFiles(dir string, defaultTTL time.Duration, logger log.Logger) ([]File, error) {
	logger = log.OrGlobal(logger)
	var files []File
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !Supported(path) {
			return err
		}
		f, err := LoadFile(path, defaultTTL)
		if err != nil {
			return fmt.Errorf("error parsing zone file %s: %w", path, err)
		}
		if utils.IsPublicSuffix(f.Root) {
			logger.Warn(map[string]any{"zone": f.Root, "path": path}, "Zone root is a public suffix")
		} else if apex := utils.GetApexDomain(f.Root); apex != f.Root {
			logger.Info(map[string]any{"zone": f.Root, "registrable": apex, "path": path}, "Zone root is below its registrable domain")
		}
		logger.Debug(map[string]any{"zone": f.Root, "path": path, "records": len(f.Records)}, "Zone file loaded")
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// LoadZoneDirectory loads every zone file in dir and groups the records by
// zone root. Several files may contribute to the same zone.
func LoadZoneDirectory(dir string, defaultTTL time.Duration, logger log.Logger) (map[string][]domain.ResourceRecord, error) {
	files, err := LoadFiles(dir, defaultTTL, logger)
	if err != nil {
		return nil, err
	}
	zones := make(map[string][]domain.ResourceRecord)
	for _, f := range files {
		zones[f.Root] = append(zones[f.Root], f.Records...)
	}
	return zones, nil
}

// LoadFile parses a single zone file. Owners and record types are visited in
// key order and values in file order, so the result is stable.
func LoadFile(path string, defaultTTL time.Duration) (File, error) {
	parser := parserFor(path)
	if parser == nil {
		return File{}, fmt.Errorf("unsupported zone file type %q", filepath.Ext(path))
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return File{}, fmt.Errorf("failed to load zone file %s: %w", path, err)
	}

	root := utils.CanonicalDNSName(k.String(keyZoneRoot))
	if root == "" {
		return File{}, fmt.Errorf("zone file %s missing '%s'", path, keyZoneRoot)
	}
	if _, ok := dns.IsDomainName(root); !ok {
		return File{}, fmt.Errorf("zone file %s: invalid zone_root %q", path, root)
	}

	ttl, err := ttlSeconds(defaultTTL)
	if err != nil {
		return File{}, err
	}
	raw := k.Raw()
	if v, ok := raw[keyTTL]; ok {
		if ttl, err = parseTTL(v); err != nil {
			return File{}, fmt.Errorf("zone file %s: %w", path, err)
		}
	}

	b := builder{root: root}
	for _, owner := range sortedKeys(raw) {
		if owner == keyZoneRoot || owner == keyTTL {
			continue
		}
		entries, ok := raw[owner].(map[string]any)
		if !ok {
			// an owner with no records
			if raw[owner] == nil {
				continue
			}
			return File{}, fmt.Errorf("zone file %s: owner %q must map record types to values", path, owner)
		}
		if err := b.owner(expandName(owner, root), entries, ttl); err != nil {
			return File{}, fmt.Errorf("invalid record in %s: %w", path, err)
		}
	}
	return File{Path: path, Root: root, Records: b.records}, nil
}

type builder struct {
	root    string
	records []domain.ResourceRecord
}

// owner adds the records of one owner. A nested map holds the records of a
// subdomain of the owner.
func (b *builder) owner(fqdn string, entries map[string]any, ttl uint32) error {
	if v, ok := entries[keyTTL]; ok {
		var err error
		if ttl, err = parseTTL(v); err != nil {
			return fmt.Errorf("%s: %w", fqdn, err)
		}
	}
	for _, key := range sortedKeys(entries) {
		if key == keyTTL {
			continue
		}
		if child, ok := entries[key].(map[string]any); ok {
			if err := b.owner(key+"."+fqdn, child, ttl); err != nil {
				return err
			}
			continue
		}
		rrType := domain.RRTypeFromString(key)
		if !rrType.IsValid() {
			return fmt.Errorf("%s: unsupported record type %q", fqdn, key)
		}
		for _, value := range toStringValues(entries[key]) {
			line := fmt.Sprintf("%s %d IN %s %s", dns.Fqdn(fqdn), ttl, rrType, value)
			rr, err := rrdata.Parse(line, b.root, ttl)
			if err != nil {
				return fmt.Errorf("%s %s %q: %w", fqdn, rrType, value, err)
			}
			b.records = append(b.records, rr)
		}
	}
	return nil
}

// expandName returns the absolute owner name for label, expanding '@' to the
// root and completing relative labels with it.
func expandName(label, root string) string {
	if label == "@" {
		return root
	}
	if strings.HasSuffix(label, ".") {
		return utils.CanonicalDNSName(label)
	}
	return utils.CanonicalDNSName(label + "." + root)
}

// toStringValues converts a parsed value (string, number or list of them)
// into non-empty strings.
func toStringValues(val any) []string {
	switch v := val.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			out = append(out, toStringValues(elem)...)
		}
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
		return nil
	case nil:
		return nil
	default:
		return []string{fmt.Sprint(v)}
	}
}

func parseTTL(v any) (uint32, error) {
	switch t := v.(type) {
	case int:
		return checkTTL(int64(t))
	case int64:
		return checkTTL(t)
	case float64:
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("ttl %v is not a whole number", t)
		}
		return checkTTL(int64(t))
	case string:
		if d, err := time.ParseDuration(t); err == nil {
			return ttlSeconds(d)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ttl %q", t)
		}
		return checkTTL(n)
	default:
		return 0, fmt.Errorf("invalid ttl %v", v)
	}
}

func ttlSeconds(d time.Duration) (uint32, error) {
	return checkTTL(int64(d / time.Second))
}

func checkTTL(n int64) (uint32, error) {
	if n < 0 || n > int64(^uint32(0)>>1) {
		return 0, fmt.Errorf("ttl %d out of range", n)
	}
	return uint32(n), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

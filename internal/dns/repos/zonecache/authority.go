package zonecache

import (
	"context"

	"github.com/miekg/dns"

	"github.com/haukened/rr-zones/internal/dns/common/utils"
	"github.com/haukened/rr-zones/internal/dns/domain"
)

// GetAuthority returns the SOA that is authoritative for name.
//
// A cached authority is returned as is. Otherwise every registered provider
// is asked in registration order and the last one that answers wins. The
// result is cached under name itself, not under the apex it names, so repeat
// lookups for the same name never reach the providers again.
func (zc *ZoneCache) GetAuthority(ctx context.Context, name string) (domain.Authority, error) {
	name = utils.CanonicalDNSName(name)
	if a, ok := zc.GetAuthorityCached(name); ok {
		zc.metrics.AuthorityLookups.WithLabelValues("cached").Inc()
		return a, nil
	}

	var (
		resolved domain.Authority
		found    bool
	)
	for i, p := range zc.providerList() {
		a, ok, err := p.SOA(ctx, name)
		if err != nil {
			zc.logger.Warn(map[string]any{
				"name":     name,
				"provider": i,
				"error":    err,
			}, "SOA provider failed")
			continue
		}
		if ok && !a.IsZero() {
			resolved, found = a, true
		}
	}
	if !found {
		zc.metrics.AuthorityLookups.WithLabelValues("not_found").Inc()
		return domain.Authority{}, domain.ErrAuthorityNotFound
	}

	zc.PutAuthority(name, resolved)
	zc.metrics.AuthorityLookups.WithLabelValues("resolved").Inc()
	return resolved, nil
}

// GetAuthorityForMsg resolves the authority for the last question in msg.
func (zc *ZoneCache) GetAuthorityForMsg(ctx context.Context, msg *dns.Msg) (domain.Authority, error) {
	name, err := lastQuestion(msg)
	if err != nil {
		return domain.Authority{}, err
	}
	return zc.GetAuthority(ctx, name)
}

func lastQuestion(msg *dns.Msg) (string, error) {
	if msg == nil || len(msg.Question) == 0 {
		return "", domain.ErrNoQuestion
	}
	return msg.Question[len(msg.Question)-1].Name, nil
}

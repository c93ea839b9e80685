package zonecache

import (
	"context"
	"errors"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-zones/internal/dns/domain"
)

func TestGetAuthority_Cached(t *testing.T) {
	p := new(MockProvider)
	zc := newTestCache(nil, p)
	soa := newTestSOA(t, "example.com")
	zc.PutAuthority("www.example.com", soa)

	got, err := zc.GetAuthority(context.Background(), "WWW.example.com.")
	require.NoError(t, err)
	assert.Equal(t, soa, got)
	p.AssertNotCalled(t, "SOA", mock.Anything, mock.Anything)
}

func TestGetAuthority_LastProviderWins(t *testing.T) {
	first := newTestSOA(t, "com.example")
	second := newTestSOA(t, "example.com")
	zc := newTestCache(nil, staticProvider(first), emptyProvider(), staticProvider(second), emptyProvider())

	got, err := zc.GetAuthority(context.Background(), "www.example.com")
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestGetAuthority_CachesUnderQueryName(t *testing.T) {
	soa := newTestSOA(t, "example.com")
	zc := newTestCache(nil, emptyProvider(), staticProvider(soa))

	got, err := zc.GetAuthority(context.Background(), "Deep.Sub.Example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", got.Name)

	cached, ok := zc.GetAuthorityCached("deep.sub.example.com")
	require.True(t, ok)
	assert.Equal(t, soa, cached)

	_, ok = zc.GetAuthorityCached("example.com")
	assert.False(t, ok, "authority must not be cached under the apex")
}

func TestGetAuthority_NotFound(t *testing.T) {
	zc := newTestCache(nil, emptyProvider(), emptyProvider())

	_, err := zc.GetAuthority(context.Background(), "www.example.com")
	assert.ErrorIs(t, err, domain.ErrAuthorityNotFound)

	_, ok := zc.GetAuthorityCached("www.example.com")
	assert.False(t, ok, "a miss must not be cached")
}

func TestGetAuthority_NoProviders(t *testing.T) {
	zc := newTestCache(nil)

	_, err := zc.GetAuthority(context.Background(), "www.example.com")
	assert.ErrorIs(t, err, domain.ErrAuthorityNotFound)
}

func TestGetAuthority_ProviderErrorIsSkipped(t *testing.T) {
	soa := newTestSOA(t, "example.com")
	failing := new(MockProvider)
	failing.On("SOA", mock.Anything, "www.example.com").Return(domain.Authority{}, false, errors.New("boom"))

	zc := newTestCache(nil, staticProvider(soa), failing)

	got, err := zc.GetAuthority(context.Background(), "www.example.com")
	require.NoError(t, err)
	assert.Equal(t, soa, got, "a failing later provider must not mask an earlier answer")
	failing.AssertExpectations(t)
}

func TestGetAuthority_IgnoresZeroAuthorityReportedFound(t *testing.T) {
	soa := newTestSOA(t, "example.com")
	bogus := ProviderFunc(func(context.Context, string) (domain.Authority, bool, error) {
		return domain.Authority{}, true, nil
	})
	zc := newTestCache(nil, staticProvider(soa), bogus)

	got, err := zc.GetAuthority(context.Background(), "www.example.com")
	require.NoError(t, err)
	assert.Equal(t, soa, got)
}

func TestGetAuthority_Idempotent(t *testing.T) {
	soa := newTestSOA(t, "example.com")
	p := new(MockProvider)
	p.On("SOA", mock.Anything, "www.example.com").Return(soa, true, nil).Once()

	zc := newTestCache(nil, p)
	for i := 0; i < 3; i++ {
		got, err := zc.GetAuthority(context.Background(), "www.example.com")
		require.NoError(t, err)
		assert.Equal(t, soa, got)
	}
	p.AssertNumberOfCalls(t, "SOA", 1)
}

func TestGetAuthority_RegisterProvider(t *testing.T) {
	zc := newTestCache(nil)
	_, err := zc.GetAuthority(context.Background(), "www.example.com")
	require.ErrorIs(t, err, domain.ErrAuthorityNotFound)

	soa := newTestSOA(t, "example.com")
	zc.RegisterProvider(staticProvider(soa))

	got, err := zc.GetAuthority(context.Background(), "www.example.com")
	require.NoError(t, err)
	assert.Equal(t, soa, got)
}

func TestGetAuthorityForMsg(t *testing.T) {
	soa := newTestSOA(t, "example.com")
	p := new(MockProvider)
	p.On("SOA", mock.Anything, "www.example.com").Return(soa, true, nil).Once()
	zc := newTestCache(nil, p)

	msg := new(dns.Msg)
	msg.Question = []dns.Question{
		{Name: "ignored.example.org.", Qtype: dns.TypeA, Qclass: dns.ClassINET},
		{Name: "WWW.example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET},
	}

	got, err := zc.GetAuthorityForMsg(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, soa, got)
	p.AssertExpectations(t)
}

func TestGetAuthorityForMsg_NoQuestion(t *testing.T) {
	zc := newTestCache(nil, emptyProvider())

	_, err := zc.GetAuthorityForMsg(context.Background(), new(dns.Msg))
	assert.ErrorIs(t, err, domain.ErrNoQuestion)

	_, err = zc.GetAuthorityForMsg(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoQuestion)
}

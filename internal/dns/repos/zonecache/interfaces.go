package zonecache

import (
	"context"

	"github.com/haukened/rr-zones/internal/dns/domain"
)

// RecordSource is the backing store that supplies the raw records of a zone.
// It is consulted only when a zone is materialized.
type RecordSource interface {
	LookupRecords(ctx context.Context, apex string) ([]domain.ResourceRecord, error)
}

// SOAProvider supplies the authority for a name, if it knows one.
// Providers are free to walk ancestors of name themselves.
type SOAProvider interface {
	SOA(ctx context.Context, name string) (domain.Authority, bool, error)
}

// ProviderFunc adapts a function to the SOAProvider interface.
type ProviderFunc func(ctx context.Context, name string) (domain.Authority, bool, error)

func (f ProviderFunc) SOA(ctx context.Context, name string) (domain.Authority, bool, error) {
	return f(ctx, name)
}

// RecordSourceFunc adapts a function to the RecordSource interface.
type RecordSourceFunc func(ctx context.Context, apex string) ([]domain.ResourceRecord, error)

func (f RecordSourceFunc) LookupRecords(ctx context.Context, apex string) ([]domain.ResourceRecord, error) {
	return f(ctx, apex)
}

package ddns

import (
	"context"
)

// Resolver looks up the address that should be written to the DNS record.
type Resolver interface {
	Resolve(context.Context) (string, error)
}

// ResolverFunc adapts an ordinary function to a Resolver.
type ResolverFunc func(context.Context) (string, error)

// Resolve implements ddns.Resolver.
func (f ResolverFunc) Resolve(ctx context.Context) (string, error) {
	return f(ctx)
}

// Updater overwrites the content of one existing DNS record.
type Updater interface {
	UpdateRecord(ctx context.Context, zoneID, recordID string, record Record) error
}

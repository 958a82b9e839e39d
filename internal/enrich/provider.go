package enrich

import "context"

// Match is one artist hit from an external provider
type Match struct {
	ExternalID string
	Name       string
	SortName   string
}

// Provider is a metadata search provider. Lookups are best-effort: the
// ingestion path never waits on them and a failed lookup leaves the
// catalog untouched.
type Provider interface {
	Name() string
	SearchArtist(ctx context.Context, name string, limit int) (match *Match, total int, err error)
}

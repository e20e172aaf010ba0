package model

import (
	"context"
)

// Unified representation of a job posting from any source.
// All text fields are always present; sources write "" for anything their
// payload does not carry.
type JobRecord struct {
	Title    string // job title
	Company  string // company name (origin domain for free-text search)
	Location string // free-text location
	Type     string // employment/contract type
	URL      string // canonical link
	Source   string // fixed tag of the adapter that produced it

	Region string // derived by the region classifier
	IsNew  bool   // derived: identity absent from history at run start
}

// Source is a job search provider queried once per (keyword, dimension).
type Source interface {
	// Name is the fixed source tag written on every record.
	Name() string
	// Dimensions lists the provider's extra query axis (countries, phrasing
	// suffixes). A nil slice means one call per keyword.
	Dimensions() []string
	Search(ctx context.Context, keyword, dimension string) ([]JobRecord, error)
}

// Call is one cell of the query plan.
type Call struct {
	Source    Source
	Keyword   string
	Dimension string
}

// SearchResult is the outcome of a single Call: either records or a failure.
type SearchResult struct {
	Call    Call
	Records []JobRecord
	Err     error
}

// Failed reports whether the call ended in a transport, status, or parse failure.
func (r SearchResult) Failed() bool { return r.Err != nil }

// HistoryStore persists the set of identities seen in earlier runs.
type HistoryStore interface {
	// Load returns the identities seen so far. A store with no prior state
	// returns an empty set and no error.
	Load(ctx context.Context) (map[string]struct{}, error)
	// Persist replaces the stored state with ids. Callers pass the union of
	// what Load returned and the current run.
	Persist(ctx context.Context, ids map[string]struct{}) error
}

// Digest is a formatted notification ready for a sink.
type Digest struct {
	Subject string
	Body    string
	Total   int
	New     int
}

// Notifier delivers a digest.
type Notifier interface {
	Notify(ctx context.Context, d Digest) error
}

// TableWriter receives the final ordered record set.
type TableWriter interface {
	WriteRecords(ctx context.Context, records []JobRecord) error
}

package filter

import (
	"strings"

	"github.com/amishk599/jobdigest/internal/model"
)

// TitleFilter keeps records whose title contains any of its keywords.
// Matching is case-insensitive. An empty keyword list matches everything.
type TitleFilter struct {
	keywords []string
}

// NewTitleFilter returns a filter for the given keywords.
func NewTitleFilter(keywords ...string) *TitleFilter {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		lowered = append(lowered, strings.ToLower(kw))
	}
	return &TitleFilter{keywords: lowered}
}

// Match returns true if the record's title contains any keyword.
func (f *TitleFilter) Match(r model.JobRecord) bool {
	if len(f.keywords) == 0 {
		return true
	}
	titleLower := strings.ToLower(r.Title)
	for _, kw := range f.keywords {
		if strings.Contains(titleLower, kw) {
			return true
		}
	}
	return false
}

// Apply returns the matching records in their original order. The input
// slice is not modified.
func (f *TitleFilter) Apply(records []model.JobRecord) []model.JobRecord {
	out := make([]model.JobRecord, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

package region

import (
	"strings"

	"github.com/amishk599/jobdigest/internal/model"
)

const (
	Unknown = "Unknown"
	Europe  = "Europe"
	Other   = "Other"
)

// DefaultPreferred is the preferred-region list used when config sets none.
var DefaultPreferred = []string{"India", "Dubai", "UAE", "Qatar", "Singapore"}

// Classifier maps a free-text location to a coarse region label.
// Matching is a case-insensitive substring test; the first preferred entry
// that matches wins.
type Classifier struct {
	preferred []string
	lowered   []string
}

// NewClassifier returns a classifier over the ordered preferred list.
func NewClassifier(preferred []string) *Classifier {
	lowered := make([]string, len(preferred))
	for i, p := range preferred {
		lowered[i] = strings.ToLower(p)
	}
	return &Classifier{preferred: preferred, lowered: lowered}
}

// Classify returns the region label for location.
func (c *Classifier) Classify(location string) string {
	if location == "" {
		return Unknown
	}
	loc := strings.ToLower(location)
	for i, p := range c.lowered {
		if strings.Contains(loc, p) {
			return c.preferred[i]
		}
	}
	if strings.Contains(loc, "europe") {
		return Europe
	}
	return Other
}

// Apply sets Region on every record in place.
func (c *Classifier) Apply(records []model.JobRecord) {
	for i := range records {
		records[i].Region = c.Classify(records[i].Location)
	}
}

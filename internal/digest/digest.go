package digest

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

// DefaultPreviewLimit caps how many new records appear in the body.
const DefaultPreviewLimit = 20

//go:embed digest.tmpl
var bodyTemplateRaw string

// bodyTemplate is parsed once at package init.
var bodyTemplate = template.Must(template.New("digest").Parse(bodyTemplateRaw))

// Emitter renders the daily digest. It does no I/O.
type Emitter struct {
	limit int
}

// NewEmitter returns an emitter previewing at most limit new records.
// A non-positive limit falls back to DefaultPreviewLimit.
func NewEmitter(limit int) *Emitter {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	return &Emitter{limit: limit}
}

// Subject returns the digest subject for the UTC date of now.
func Subject(now time.Time) string {
	return "Daily Job Digest – " + now.UTC().Format("2006-01-02")
}

// Format builds the digest for a run that produced total records, of which
// newRecords (in first-occurrence order) were not in history.
func (e *Emitter) Format(total int, newRecords []model.JobRecord, now time.Time) (model.Digest, error) {
	preview := newRecords
	if len(preview) > e.limit {
		preview = preview[:e.limit]
	}

	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Total     int
		NewCount  int
		Preview   []model.JobRecord
		Remaining int
	}{
		Total:     total,
		NewCount:  len(newRecords),
		Preview:   preview,
		Remaining: len(newRecords) - len(preview),
	})
	if err != nil {
		return model.Digest{}, fmt.Errorf("render digest body: %w", err)
	}

	return model.Digest{
		Subject: Subject(now),
		Body:    buf.String(),
		Total:   total,
		New:     len(newRecords),
	}, nil
}

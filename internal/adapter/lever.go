package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/amishk599/jobdigest/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// LeverSourceName tags every Lever record.
const LeverSourceName = "Lever"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	Text       string          `json:"text"`
	Categories leverCategories `json:"categories"`
	HostedURL  string          `json:"hostedUrl"`
}

// LeverAdapter fetches jobs from the Lever public postings API.
type LeverAdapter struct {
	companySlug string
	companyName string
	client      *http.Client
}

// NewLeverAdapter creates a new adapter for a Lever board.
func NewLeverAdapter(companySlug string, companyName string, client *http.Client) *LeverAdapter {
	return &LeverAdapter{
		companySlug: companySlug,
		companyName: companyName,
		client:      client,
	}
}

func (a *LeverAdapter) Name() string { return LeverSourceName }

// FetchFeed retrieves every posting on the board.
func (a *LeverAdapter) FetchFeed(ctx context.Context) ([]model.JobRecord, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, a.companySlug)

	var leverJobs []leverJob
	if err := getJSON(ctx, a.client, url, "lever fetch for "+a.companySlug, &leverJobs); err != nil {
		return nil, err
	}

	records := make([]model.JobRecord, 0, len(leverJobs))
	for _, lj := range leverJobs {
		// Prefer allLocations if available, fall back to location.
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		records = append(records, model.JobRecord{
			Title:    lj.Text,
			Company:  a.companyName,
			Location: location,
			Type:     lj.Categories.Commitment,
			URL:      lj.HostedURL,
			Source:   LeverSourceName,
		})
	}
	return records, nil
}

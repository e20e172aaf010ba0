package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amishk599/jobdigest/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// AshbySourceName tags every Ashby record.
const AshbySourceName = "Ashby"

// ashbyJob represents a single job in the Ashby API response.
type ashbyJob struct {
	Title          string `json:"title"`
	Location       string `json:"location"`
	EmploymentType string `json:"employmentType"`
	JobUrl         string `json:"jobUrl"`
	IsListed       bool   `json:"isListed"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbyAdapter fetches jobs from the Ashby public job board API.
type AshbyAdapter struct {
	boardToken  string
	companyName string
	client      *http.Client
}

// NewAshbyAdapter creates a new adapter for an Ashby job board.
func NewAshbyAdapter(boardToken string, companyName string, client *http.Client) *AshbyAdapter {
	return &AshbyAdapter{
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

func (a *AshbyAdapter) Name() string { return AshbySourceName }

// FetchFeed retrieves the listed jobs on the board. Unlisted postings are skipped.
func (a *AshbyAdapter) FetchFeed(ctx context.Context) ([]model.JobRecord, error) {
	url := fmt.Sprintf("%s/%s", ashbyBaseURL, a.boardToken)

	var ashbyResp ashbyResponse
	if err := getJSON(ctx, a.client, url, "ashby fetch for "+a.boardToken, &ashbyResp); err != nil {
		return nil, err
	}

	records := make([]model.JobRecord, 0, len(ashbyResp.Jobs))
	for _, aj := range ashbyResp.Jobs {
		if !aj.IsListed {
			continue
		}
		records = append(records, model.JobRecord{
			Title:    aj.Title,
			Company:  a.companyName,
			Location: aj.Location,
			Type:     aj.EmploymentType,
			URL:      aj.JobUrl,
			Source:   AshbySourceName,
		})
	}
	return records, nil
}

package adapter

import (
	"context"
	"net/http"

	"github.com/amishk599/jobdigest/internal/model"
)

const remotiveURL = "https://remotive.com/api/remote-jobs"

// RemotiveSourceName tags every Remotive record.
const RemotiveSourceName = "Remotive"

type remotiveJob struct {
	Title                     string `json:"title"`
	CompanyName               string `json:"company_name"`
	CandidateRequiredLocation string `json:"candidate_required_location"`
	JobType                   string `json:"job_type"`
	URL                       string `json:"url"`
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

// RemotiveAdapter fetches the public Remotive remote-jobs feed.
type RemotiveAdapter struct {
	client *http.Client
}

// NewRemotiveAdapter creates a Remotive feed fetcher.
func NewRemotiveAdapter(client *http.Client) *RemotiveAdapter {
	return &RemotiveAdapter{client: client}
}

func (a *RemotiveAdapter) Name() string { return RemotiveSourceName }

// FetchFeed returns every posting in the feed.
func (a *RemotiveAdapter) FetchFeed(ctx context.Context) ([]model.JobRecord, error) {
	var resp remotiveResponse
	if err := getJSON(ctx, a.client, remotiveURL, "remotive fetch", &resp); err != nil {
		return nil, err
	}

	records := make([]model.JobRecord, 0, len(resp.Jobs))
	for _, rj := range resp.Jobs {
		records = append(records, model.JobRecord{
			Title:    rj.Title,
			Company:  rj.CompanyName,
			Location: rj.CandidateRequiredLocation,
			Type:     rj.JobType,
			URL:      rj.URL,
			Source:   RemotiveSourceName,
		})
	}
	return records, nil
}

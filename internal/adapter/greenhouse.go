package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amishk599/jobdigest/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// GreenhouseSourceName tags every Greenhouse record.
const GreenhouseSourceName = "Greenhouse"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches jobs from the Greenhouse public boards API.
type GreenhouseAdapter struct {
	boardToken  string
	companyName string
	client      *http.Client
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board.
func NewGreenhouseAdapter(boardToken string, companyName string, client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

func (a *GreenhouseAdapter) Name() string { return GreenhouseSourceName }

// FetchFeed retrieves every job on the board. Greenhouse does not expose an
// employment type on the list endpoint, so Type is left empty.
func (a *GreenhouseAdapter) FetchFeed(ctx context.Context) ([]model.JobRecord, error) {
	url := fmt.Sprintf("%s/%s/jobs", greenhouseBaseURL, a.boardToken)

	var ghResp greenhouseResponse
	if err := getJSON(ctx, a.client, url, "greenhouse fetch for "+a.boardToken, &ghResp); err != nil {
		return nil, err
	}

	records := make([]model.JobRecord, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		records = append(records, model.JobRecord{
			Title:    gj.Title,
			Company:  a.companyName,
			Location: gj.Location.Name,
			URL:      gj.AbsoluteURL,
			Source:   GreenhouseSourceName,
		})
	}
	return records, nil
}

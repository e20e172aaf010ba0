package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amishk599/jobdigest/internal/model"
)

const adzunaBaseURL = "https://api.adzuna.com/v1/api/jobs"

// AdzunaSourceName tags every Adzuna record.
const AdzunaSourceName = "Adzuna"

const defaultAdzunaPageSize = 20

// DefaultAdzunaCountries is the country list queried when none is configured.
var DefaultAdzunaCountries = []string{"in", "sg", "ae", "qa", "gb", "fr", "de", "nl"}

type adzunaPosting struct {
	Title        string `json:"title"`
	ContractType string `json:"contract_type"`
	RedirectURL  string `json:"redirect_url"`
	Company      struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

type adzunaResponse struct {
	Results []adzunaPosting `json:"results"`
}

// Ensure AdzunaAdapter implements model.Source.
var _ model.Source = (*AdzunaAdapter)(nil)

// AdzunaAdapter queries the Adzuna search API, one country at a time.
type AdzunaAdapter struct {
	appID     string
	appKey    string
	countries []string
	pageSize  int
	client    *http.Client
}

// NewAdzunaAdapter creates an adapter over the given countries. An empty
// country list falls back to DefaultAdzunaCountries and a non-positive
// pageSize to 20.
func NewAdzunaAdapter(appID, appKey string, countries []string, pageSize int, client *http.Client) *AdzunaAdapter {
	if len(countries) == 0 {
		countries = DefaultAdzunaCountries
	}
	if pageSize <= 0 {
		pageSize = defaultAdzunaPageSize
	}
	return &AdzunaAdapter{
		appID:     appID,
		appKey:    appKey,
		countries: countries,
		pageSize:  pageSize,
		client:    client,
	}
}

func (a *AdzunaAdapter) Name() string { return AdzunaSourceName }

// Dimensions returns the configured country codes.
func (a *AdzunaAdapter) Dimensions() []string { return a.countries }

// Search fetches the first result page for keyword in country.
func (a *AdzunaAdapter) Search(ctx context.Context, keyword, country string) ([]model.JobRecord, error) {
	values := url.Values{}
	values.Set("app_id", a.appID)
	values.Set("app_key", a.appKey)
	values.Set("what", keyword)
	values.Set("results_per_page", strconv.Itoa(a.pageSize))
	u := fmt.Sprintf("%s/%s/search/1?%s", adzunaBaseURL, url.PathEscape(country), values.Encode())

	var resp adzunaResponse
	what := fmt.Sprintf("adzuna search for %q in %s", keyword, country)
	if err := getJSON(ctx, a.client, u, what, &resp); err != nil {
		return nil, err
	}

	records := make([]model.JobRecord, 0, len(resp.Results))
	for _, p := range resp.Results {
		records = append(records, model.JobRecord{
			Title:    p.Title,
			Company:  p.Company.DisplayName,
			Location: p.Location.DisplayName,
			Type:     p.ContractType,
			URL:      p.RedirectURL,
			Source:   AdzunaSourceName,
		})
	}
	return records, nil
}

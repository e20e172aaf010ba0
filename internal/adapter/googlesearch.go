package adapter

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/amishk599/jobdigest/internal/model"
)

// GoogleSourceName tags every Custom Search record.
const GoogleSourceName = "Google Hidden Jobs"

// DefaultGoogleSuffixes are the phrasing variants appended to each keyword.
var DefaultGoogleSuffixes = []string{"job", "careers", "site:careers", "site:jobs", "recruiter", "consulting"}

// Custom Search returns at most 10 results per request.
const maxGoogleResults = 10

// Ensure GoogleSearchAdapter implements model.Source.
var _ model.Source = (*GoogleSearchAdapter)(nil)

// GoogleSearchAdapter runs free-text queries through the Custom Search JSON
// API. Results carry only a title and link; the company is the result's
// display domain and location/type are always empty.
type GoogleSearchAdapter struct {
	svc      *customsearch.Service
	cx       string
	suffixes []string
	results  int64
}

// NewGoogleSearchAdapter builds the Custom Search client. Extra opts are
// appended after the API key (tests use them to redirect the endpoint).
func NewGoogleSearchAdapter(ctx context.Context, apiKey, cx string, suffixes []string, results int, opts ...option.ClientOption) (*GoogleSearchAdapter, error) {
	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating custom search service: %w", err)
	}
	if len(suffixes) == 0 {
		suffixes = DefaultGoogleSuffixes
	}
	if results <= 0 || results > maxGoogleResults {
		results = maxGoogleResults
	}
	return &GoogleSearchAdapter{
		svc:      svc,
		cx:       cx,
		suffixes: suffixes,
		results:  int64(results),
	}, nil
}

func (a *GoogleSearchAdapter) Name() string { return GoogleSourceName }

// Dimensions returns the phrasing suffixes.
func (a *GoogleSearchAdapter) Dimensions() []string { return a.suffixes }

// Search runs the query "keyword suffix".
func (a *GoogleSearchAdapter) Search(ctx context.Context, keyword, suffix string) ([]model.JobRecord, error) {
	query := keyword
	if suffix != "" {
		query = keyword + " " + suffix
	}

	res, err := a.svc.Cse.List().Cx(a.cx).Q(query).Num(a.results).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google search for %q: %w", query, err)
	}

	records := make([]model.JobRecord, 0, len(res.Items))
	for _, item := range res.Items {
		if item == nil {
			continue
		}
		records = append(records, model.JobRecord{
			Title:   item.Title,
			Company: item.DisplayLink,
			URL:     item.Link,
			Source:  GoogleSourceName,
		})
	}
	return records, nil
}

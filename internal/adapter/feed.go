package adapter

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/amishk599/jobdigest/internal/filter"
	"github.com/amishk599/jobdigest/internal/model"
)

// FeedFetcher downloads a provider's complete listing in one request.
type FeedFetcher interface {
	Name() string
	FetchFeed(ctx context.Context) ([]model.JobRecord, error)
}

// Ensure KeywordFeed implements model.Source.
var _ model.Source = (*KeywordFeed)(nil)

// KeywordFeed turns a FeedFetcher into a keyword Source. Each Search fetches
// the whole feed and keeps entries whose title contains the keyword.
// Concurrent searches against the same feed share one in-flight request.
//
// The shared request is detached from the first caller's context and bounded
// by fetchTimeout instead, so one caller timing out does not fail the others
// waiting on the same download. Each caller still gives up at its own deadline.
type KeywordFeed struct {
	fetcher      FeedFetcher
	group        singleflight.Group
	fetchTimeout time.Duration
}

// DefaultFeedTimeout bounds one shared feed download.
const DefaultFeedTimeout = 30 * time.Second

// NewKeywordFeed wraps fetcher.
func NewKeywordFeed(fetcher FeedFetcher) *KeywordFeed {
	return &KeywordFeed{fetcher: fetcher, fetchTimeout: DefaultFeedTimeout}
}

func (f *KeywordFeed) Name() string { return f.fetcher.Name() }

// Dimensions is nil: feeds are queried once per keyword.
func (f *KeywordFeed) Dimensions() []string { return nil }

func (f *KeywordFeed) Search(ctx context.Context, keyword, _ string) ([]model.JobRecord, error) {
	ch := f.group.DoChan("feed", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.fetchTimeout)
		defer cancel()
		return f.fetcher.FetchFeed(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s search for %q: %w", f.Name(), keyword, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%s search for %q: %w", f.Name(), keyword, res.Err)
		}
		return filter.NewTitleFilter(keyword).Apply(res.Val.([]model.JobRecord)), nil
	}
}

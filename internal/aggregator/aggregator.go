package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobdigest/internal/model"
)

const (
	// DefaultWorkers bounds how many source calls run at once.
	DefaultWorkers = 8
	// DefaultCallTimeout bounds each individual source call.
	DefaultCallTimeout = 20 * time.Second
)

// Plan expands keywords against every source's dimensions. Calls are ordered
// by keyword, then source order, then dimension order. A source without
// dimensions gets one call per keyword with an empty dimension.
func Plan(keywords []string, sources []model.Source) []model.Call {
	var calls []model.Call
	for _, kw := range keywords {
		for _, src := range sources {
			dims := src.Dimensions()
			if len(dims) == 0 {
				calls = append(calls, model.Call{Source: src, Keyword: kw})
				continue
			}
			for _, dim := range dims {
				calls = append(calls, model.Call{Source: src, Keyword: kw, Dimension: dim})
			}
		}
	}
	return calls
}

// Aggregator runs the query plan concurrently. A failing or slow call never
// cancels or blocks the others; its result is simply empty.
type Aggregator struct {
	sources     []model.Source
	workers     int
	callTimeout time.Duration
	logger      *slog.Logger
}

// New creates an aggregator. Non-positive workers or callTimeout fall back
// to DefaultWorkers and DefaultCallTimeout.
func New(sources []model.Source, workers int, callTimeout time.Duration, logger *slog.Logger) *Aggregator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Aggregator{
		sources:     sources,
		workers:     workers,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Sources returns the configured sources in registration order.
func (a *Aggregator) Sources() []model.Source { return a.sources }

// Collect executes every planned call and returns one result per call in
// plan order. It returns only after every call has finished or timed out.
func (a *Aggregator) Collect(ctx context.Context, keywords []string) []model.SearchResult {
	calls := Plan(keywords, a.sources)
	results := make([]model.SearchResult, len(calls))

	var g errgroup.Group
	g.SetLimit(a.workers)

	for i, call := range calls {
		g.Go(func() error {
			results[i] = a.search(ctx, call)
			return nil // best-effort: never cancel siblings
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.Failed() {
			continue
		}
		failed++
		attrs := []any{
			"source", r.Call.Source.Name(),
			"keyword", r.Call.Keyword,
			"dimension", r.Call.Dimension,
			"error", r.Err,
		}
		var httpErr *model.HTTPError
		if errors.As(r.Err, &httpErr) {
			attrs = append(attrs, "status", httpErr.StatusCode)
		}
		a.logger.Warn("source call failed", attrs...)
	}
	a.logger.Info("fan-out complete",
		"calls", len(calls),
		"failed", failed,
	)
	return results
}

func (a *Aggregator) search(parent context.Context, call model.Call) (res model.SearchResult) {
	res.Call = call

	ctx, cancel := context.WithTimeout(parent, a.callTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			res.Records = nil
			res.Err = fmt.Errorf("%s panicked: %v", call.Source.Name(), r)
		}
	}()

	records, err := call.Source.Search(ctx, call.Keyword, call.Dimension)
	if err != nil {
		res.Err = err
		return res
	}
	res.Records = records
	return res
}

// Merge concatenates the records of successful results in result order,
// preserving each call's own output order.
func Merge(results []model.SearchResult) []model.JobRecord {
	n := 0
	for _, r := range results {
		n += len(r.Records)
	}
	out := make([]model.JobRecord, 0, n)
	for _, r := range results {
		if r.Failed() {
			continue
		}
		out = append(out, r.Records...)
	}
	return out
}

// Run collects and merges in one step, returning the merged records and the
// number of failed calls.
func (a *Aggregator) Run(ctx context.Context, keywords []string) ([]model.JobRecord, int) {
	results := a.Collect(ctx, keywords)
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	return Merge(results), failed
}

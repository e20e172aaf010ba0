package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobdigest/internal/aggregator"
	"github.com/amishk599/jobdigest/internal/dedup"
	"github.com/amishk599/jobdigest/internal/digest"
	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/region"
)

// LockFunc takes exclusive ownership of the history for one run and returns
// the function that gives it back.
type LockFunc func() (release func() error, err error)

// Deps wires a Runner. Table, Notifier and Lock are optional: a nil Table
// writes no snapshot, a nil Notifier sends nothing.
type Deps struct {
	Aggregator *aggregator.Aggregator
	Classifier *region.Classifier
	History    model.HistoryStore
	Table      model.TableWriter
	Mirrors    []model.TableWriter // best-effort copies of Table; failures are logged
	Emitter    *digest.Emitter
	Notifier   model.Notifier
	Lock       LockFunc
	Logger     *slog.Logger
}

// Report summarizes one run.
type Report struct {
	RunID       string
	Fetched     int
	FailedCalls int
	Records     []model.JobRecord // final set, first-occurrence order
	New         []model.JobRecord
	Digest      model.Digest
	Notified    bool
}

// Runner owns the full digest pipeline:
// fan-out → dedup → classify → table → persist history → notify.
type Runner struct {
	deps Deps
	now  func() time.Time
}

// NewRunner creates a runner. A nil Emitter falls back to the default preview limit.
func NewRunner(deps Deps) *Runner {
	if deps.Emitter == nil {
		deps.Emitter = digest.NewEmitter(digest.DefaultPreviewLimit)
	}
	if deps.Classifier == nil {
		deps.Classifier = region.NewClassifier(region.DefaultPreferred)
	}
	return &Runner{deps: deps, now: time.Now}
}

// Run executes one digest run for keywords. The returned report is filled
// as far as the run got, even when an error is returned.
//
// A failure to write the table or persist history aborts the run before any
// notification. A notification failure is returned after the table and
// history are already written.
func (r *Runner) Run(ctx context.Context, keywords []string) (*Report, error) {
	rep := &Report{RunID: uuid.NewString()}
	logger := r.deps.Logger.With("run_id", rep.RunID)

	release := func() error { return nil }
	if r.deps.Lock != nil {
		rel, err := r.deps.Lock()
		if err != nil {
			return rep, fmt.Errorf("acquiring history lock: %w", err)
		}
		release = onceFunc(rel)
	}
	defer release()

	history, err := r.deps.History.Load(ctx)
	if err != nil {
		logger.Warn("history unreadable, treating as empty", "error", err)
	}
	if history == nil {
		history = map[string]struct{}{}
	}

	logger.Info("starting run", "keywords", len(keywords), "history", len(history))

	records, failed := r.deps.Aggregator.Run(ctx, keywords)
	rep.Fetched = len(records)
	rep.FailedCalls = failed

	// An interrupted fan-out is incomplete; committing it would overwrite
	// the last snapshot with partial results.
	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("run interrupted: %w", err)
	}

	res := dedup.Deduplicate(records, history)
	r.deps.Classifier.Apply(res.Records)
	r.deps.Classifier.Apply(res.New)
	rep.Records = res.Records
	rep.New = res.New

	if r.deps.Table != nil {
		if err := r.deps.Table.WriteRecords(ctx, res.Records); err != nil {
			return rep, fmt.Errorf("writing table: %w", err)
		}
	}
	for _, m := range r.deps.Mirrors {
		if err := m.WriteRecords(ctx, res.Records); err != nil {
			logger.Warn("table mirror failed", "error", err)
		}
	}

	if err := r.deps.History.Persist(ctx, dedup.Merge(history, res.RunIDs)); err != nil {
		return rep, fmt.Errorf("persisting history: %w", err)
	}
	if err := release(); err != nil {
		logger.Warn("releasing history lock", "error", err)
	}

	rep.Digest, err = r.deps.Emitter.Format(len(res.Records), res.New, r.now())
	if err != nil {
		return rep, err
	}

	logger.Info("run complete",
		"fetched", rep.Fetched,
		"unique", len(res.Records),
		"new", len(res.New),
		"failed_calls", rep.FailedCalls,
	)

	if r.deps.Notifier == nil {
		return rep, nil
	}
	if err := r.deps.Notifier.Notify(ctx, rep.Digest); err != nil {
		return rep, fmt.Errorf("sending digest: %w", err)
	}
	rep.Notified = true
	return rep, nil
}

// onceFunc makes release idempotent so the deferred call after an early
// explicit release is a no-op.
func onceFunc(f func() error) func() error {
	done := false
	return func() error {
		if done {
			return nil
		}
		done = true
		return f()
	}
}

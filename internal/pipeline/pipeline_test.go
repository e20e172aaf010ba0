package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobdigest/internal/aggregator"
	"github.com/amishk599/jobdigest/internal/digest"
	"github.com/amishk599/jobdigest/internal/history"
	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/output"
	"github.com/amishk599/jobdigest/internal/region"
)

// --- Fakes ---

type fakeSource struct {
	name    string
	records []model.JobRecord
	err     error
}

func (s *fakeSource) Name() string         { return s.name }
func (s *fakeSource) Dimensions() []string { return nil }

func (s *fakeSource) Search(context.Context, string, string) ([]model.JobRecord, error) {
	return s.records, s.err
}

type recordingNotifier struct {
	digests []model.Digest
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, d model.Digest) error {
	n.digests = append(n.digests, d)
	return n.err
}

// memStore is an in-memory history with an injectable persist failure.
type memStore struct {
	ids        map[string]struct{}
	loadErr    error
	persistErr error
	persists   int
}

func (s *memStore) Load(context.Context) (map[string]struct{}, error) {
	if s.loadErr != nil {
		return map[string]struct{}{}, s.loadErr
	}
	out := make(map[string]struct{}, len(s.ids))
	for id := range s.ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *memStore) Persist(_ context.Context, ids map[string]struct{}) error {
	s.persists++
	if s.persistErr != nil {
		return s.persistErr
	}
	s.ids = ids
	return nil
}

type failingTable struct{ err error }

func (t failingTable) WriteRecords(context.Context, []model.JobRecord) error { return t.err }

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func acmeRecord() model.JobRecord {
	return model.JobRecord{
		Title:    "Data Engineer",
		Company:  "Acme",
		Location: "Bengaluru, India",
		URL:      "https://x/1",
		Source:   "Fake",
	}
}

func newRunner(sources []model.Source, store model.HistoryStore, table model.TableWriter, n model.Notifier) *Runner {
	deps := Deps{
		Aggregator: aggregator.New(sources, 4, time.Second, discardLogger()),
		Classifier: region.NewClassifier(region.DefaultPreferred),
		History:    store,
		Table:      table,
		Emitter:    digest.NewEmitter(20),
		Logger:     discardLogger(),
	}
	if n != nil {
		deps.Notifier = n
	}
	r := NewRunner(deps)
	r.now = func() time.Time { return time.Date(2026, 10, 15, 6, 0, 0, 0, time.UTC) }
	return r
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

// --- Tests ---

func TestRun_EndToEndSingleRecord(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "jobs_today.csv")
	histPath := filepath.Join(dir, "jobs_history.json")
	store := history.NewFileStore(histPath)
	notifier := &recordingNotifier{}

	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord()}}
	r := newRunner([]model.Source{src}, store, output.NewCSVWriter(csvPath), notifier)

	rep, err := r.Run(context.Background(), []string{"data engineer"})
	require.NoError(t, err)

	rows := readCSV(t, csvPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "Yes", rows[1][0])
	assert.Equal(t, "India", rows[1][4])

	ids, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	require.Len(t, notifier.digests, 1)
	assert.Equal(t, 1, notifier.digests[0].Total)
	assert.Equal(t, 1, notifier.digests[0].New)
	assert.Equal(t, "Daily Job Digest – 2026-10-15", notifier.digests[0].Subject)

	assert.NotEmpty(t, rep.RunID)
	assert.True(t, rep.Notified)
}

func TestRun_SecondIdenticalRunHasNoNewRecords(t *testing.T) {
	store := history.NewFileStore(filepath.Join(t.TempDir(), "h.json"))
	notifier := &recordingNotifier{}
	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord(), {Title: "Other", Company: "Beta", URL: "https://x/2"}}}
	r := newRunner([]model.Source{src}, store, nil, notifier)

	_, err := r.Run(context.Background(), []string{"data engineer"})
	require.NoError(t, err)
	rep, err := r.Run(context.Background(), []string{"data engineer"})
	require.NoError(t, err)

	require.Len(t, notifier.digests, 2)
	assert.Equal(t, 2, notifier.digests[1].Total)
	assert.Equal(t, 0, notifier.digests[1].New)
	assert.Empty(t, rep.New)
	for _, rec := range rep.Records {
		assert.False(t, rec.IsNew)
	}
}

func TestRun_HistoryNeverShrinks(t *testing.T) {
	store := &memStore{ids: map[string]struct{}{"old-identity": {}}}
	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord()}}
	r := newRunner([]model.Source{src}, store, nil, nil)

	_, err := r.Run(context.Background(), []string{"x"})
	require.NoError(t, err)

	assert.Len(t, store.ids, 2)
	assert.Contains(t, store.ids, "old-identity")
}

func TestRun_FailingSourceIsIsolated(t *testing.T) {
	store := &memStore{}
	bad := &fakeSource{name: "Bad", err: errors.New("connection reset")}
	good := &fakeSource{name: "Good", records: []model.JobRecord{acmeRecord()}}
	notifier := &recordingNotifier{}
	r := newRunner([]model.Source{bad, good}, store, nil, notifier)

	rep, err := r.Run(context.Background(), []string{"data engineer"})
	require.NoError(t, err)

	assert.Equal(t, 1, rep.FailedCalls)
	assert.Len(t, rep.Records, 1)
	require.Len(t, notifier.digests, 1)
	assert.Equal(t, 1, notifier.digests[0].New)
}

func TestRun_UnreadableHistoryTreatedAsEmpty(t *testing.T) {
	store := &memStore{loadErr: errors.New("corrupt")}
	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord()}}
	r := newRunner([]model.Source{src}, store, nil, nil)

	rep, err := r.Run(context.Background(), []string{"x"})
	require.NoError(t, err)
	require.Len(t, rep.New, 1)
	assert.Equal(t, 1, store.persists)
}

func TestRun_PersistFailureSkipsNotification(t *testing.T) {
	store := &memStore{persistErr: errors.New("disk full")}
	notifier := &recordingNotifier{}
	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord()}}
	r := newRunner([]model.Source{src}, store, nil, notifier)

	_, err := r.Run(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persisting history")
	assert.Empty(t, notifier.digests)
}

func TestRun_TableFailureSkipsPersistAndNotification(t *testing.T) {
	store := &memStore{}
	notifier := &recordingNotifier{}
	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord()}}
	r := newRunner([]model.Source{src}, store, failingTable{err: errors.New("read-only fs")}, notifier)

	_, err := r.Run(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Equal(t, 0, store.persists)
	assert.Empty(t, notifier.digests)
}

func TestRun_MirrorFailureIsNotFatal(t *testing.T) {
	store := &memStore{}
	notifier := &recordingNotifier{}
	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord()}}
	r := newRunner([]model.Source{src}, store, nil, notifier)
	r.deps.Mirrors = []model.TableWriter{failingTable{err: errors.New("403")}}

	_, err := r.Run(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.persists)
	assert.Len(t, notifier.digests, 1)
}

func TestRun_NotifyFailureKeepsTableAndHistory(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "jobs_today.csv")
	store := history.NewFileStore(filepath.Join(dir, "h.json"))
	notifier := &recordingNotifier{err: errors.New("smtp auth failed")}
	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord()}}
	r := newRunner([]model.Source{src}, store, output.NewCSVWriter(csvPath), notifier)

	rep, err := r.Run(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending digest")
	assert.False(t, rep.Notified)

	assert.Len(t, readCSV(t, csvPath), 2)
	ids, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestRun_LockHeldAbortsBeforeWork(t *testing.T) {
	store := &memStore{}
	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord()}}
	r := newRunner([]model.Source{src}, store, nil, nil)
	r.deps.Lock = func() (func() error, error) { return nil, history.ErrLocked }

	_, err := r.Run(context.Background(), []string{"x"})
	require.ErrorIs(t, err, history.ErrLocked)
	assert.Equal(t, 0, store.persists)
}

func TestRun_LockReleasedBeforeNotify(t *testing.T) {
	store := &memStore{}
	released := 0
	n := &lockCheckingNotifier{released: &released}
	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord()}}
	r := newRunner([]model.Source{src}, store, nil, n)
	r.deps.Lock = func() (func() error, error) {
		return func() error { released++; return nil }, nil
	}

	_, err := r.Run(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.True(t, n.sawReleased)
	assert.Equal(t, 1, released, "release must run exactly once")
}

type lockCheckingNotifier struct {
	released    *int
	sawReleased bool
}

func (n *lockCheckingNotifier) Notify(context.Context, model.Digest) error {
	n.sawReleased = *n.released == 1
	return nil
}

func TestRun_DryRunWithReadOnlyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.json")
	inner := history.NewFileStore(path)
	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord()}}
	r := newRunner([]model.Source{src}, history.NewReadOnlyStore(inner), nil, nil)

	rep, err := r.Run(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Len(t, rep.New, 1)
	assert.False(t, rep.Notified)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "dry run must not create history")
}

func TestRun_InterruptedRunKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "jobs_today.csv")
	store := &memStore{}
	notifier := &recordingNotifier{}
	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord()}}
	r := newRunner([]model.Source{src}, store, output.NewCSVWriter(csvPath), notifier)

	_, err := r.Run(context.Background(), []string{"data engineer"})
	require.NoError(t, err)
	require.Len(t, readCSV(t, csvPath), 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx, []string{"data engineer"})
	require.ErrorIs(t, err, context.Canceled)

	assert.Len(t, readCSV(t, csvPath), 2, "snapshot must survive an interrupted run")
	assert.Equal(t, 1, store.persists)
	assert.Len(t, notifier.digests, 1)
}

func TestRun_UnreadableHistoryFileIsNotLost(t *testing.T) {
	dir := t.TempDir()
	histPath := filepath.Join(dir, "jobs_history.json")
	require.NoError(t, os.WriteFile(histPath, []byte(`["aaa","bbb"`), 0o644))

	src := &fakeSource{name: "Fake", records: []model.JobRecord{acmeRecord()}}
	r := newRunner([]model.Source{src}, history.NewFileStore(histPath), nil, nil)

	_, err := r.Run(context.Background(), []string{"x"})
	require.NoError(t, err)

	backups, err := filepath.Glob(histPath + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, `["aaa","bbb"`, string(data))
}

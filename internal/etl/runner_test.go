package etl

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panacea-health/trials-etl/internal/model"
	"github.com/panacea-health/trials-etl/internal/reconcile"
	"github.com/panacea-health/trials-etl/internal/registry"
	"github.com/panacea-health/trials-etl/internal/store"
)

// fakeFetcher serves canned documents and errors by study id.
type fakeFetcher struct {
	docs      map[string]*registry.Document
	errs      map[string]error
	summaries []registry.StudySummary
}

func (f *fakeFetcher) Study(ctx context.Context, studyID string) (*registry.Document, error) {
	if err, ok := f.errs[studyID]; ok {
		return nil, err
	}
	doc, ok := f.docs[studyID]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return doc, nil
}

func (f *fakeFetcher) Search(ctx context.Context, q registry.SearchQuery) ([]registry.StudySummary, error) {
	return f.summaries, nil
}

func testDoc(id string) *registry.Document {
	doc := &registry.Document{HasResults: true}
	doc.ProtocolSection.IdentificationModule.NCTID = id
	doc.ProtocolSection.IdentificationModule.BriefTitle = "Trial " + id
	return doc
}

func newRunnerStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "trials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedPending(t *testing.T, st store.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, st.SeedStudy(context.Background(), model.Study{StudyID: id, BriefTitle: id}))
	}
}

// poisonedStore fails the study upsert for one study id, simulating a
// persistence error partway through that study's transaction.
type poisonedStore struct {
	store.Store
	failFor string
}

type poisonedTx struct {
	store.StudyTx
	failFor string
}

func (p poisonedStore) Begin(ctx context.Context) (store.StudyTx, error) {
	tx, err := p.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return poisonedTx{StudyTx: tx, failFor: p.failFor}, nil
}

func (p poisonedTx) UpsertStudy(ctx context.Context, s model.Study) error {
	if s.StudyID == p.failFor {
		return assert.AnError
	}
	return p.StudyTx.UpsertStudy(ctx, s)
}

func TestRunner_Ingest_FailureIsolation(t *testing.T) {
	st := newRunnerStore(t)
	ctx := context.Background()
	seedPending(t, st, "NCT00000001", "NCT00000002", "NCT00000003")

	fetcher := &fakeFetcher{docs: map[string]*registry.Document{
		"NCT00000001": testDoc("NCT00000001"),
		"NCT00000002": testDoc("NCT00000002"),
		"NCT00000003": testDoc("NCT00000003"),
	}}
	proc := reconcile.NewOrchestrator(
		poisonedStore{Store: st, failFor: "NCT00000002"},
		reconcile.NewReconciler(nil, ""),
	)

	run, err := NewRunner(st, fetcher, proc).Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, run.StudiesTotal)
	assert.Equal(t, 2, run.StudiesOK)
	assert.Equal(t, 1, run.StudiesFailed)

	processed, err := st.ListProcessedStudies(ctx)
	require.NoError(t, err)
	require.Len(t, processed, 2)
	assert.Equal(t, "NCT00000001", processed[0].StudyID)
	assert.Equal(t, "NCT00000003", processed[1].StudyID)

	pending, err := st.ListPendingStudies(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "NCT00000002", pending[0].StudyID)
}

func TestRunner_Ingest_SkipsMissingAndResultless(t *testing.T) {
	st := newRunnerStore(t)
	ctx := context.Background()
	seedPending(t, st, "NCT00000001", "NCT00000002", "NCT00000003")

	noResults := testDoc("NCT00000003")
	noResults.HasResults = false

	fetcher := &fakeFetcher{
		docs: map[string]*registry.Document{
			"NCT00000001": testDoc("NCT00000001"),
			"NCT00000003": noResults,
		},
		// NCT00000002 is absent: the fetcher reports ErrNotFound.
	}
	proc := reconcile.NewOrchestrator(st, reconcile.NewReconciler(nil, ""))

	run, err := NewRunner(st, fetcher, proc).Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.StudiesOK)
	assert.Equal(t, 2, run.StudiesSkipped)
	assert.Equal(t, 0, run.StudiesFailed)

	pending, err := st.ListPendingStudies(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2, "skipped studies stay pending")
}

func TestRunner_Ingest_FetchErrorLeavesPending(t *testing.T) {
	st := newRunnerStore(t)
	ctx := context.Background()
	seedPending(t, st, "NCT00000001")

	fetcher := &fakeFetcher{errs: map[string]error{"NCT00000001": assert.AnError}}
	proc := reconcile.NewOrchestrator(st, reconcile.NewReconciler(nil, ""))

	run, err := NewRunner(st, fetcher, proc).Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.StudiesFailed)

	pending, err := st.ListPendingStudies(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRunner_Discover_SeedsQueue(t *testing.T) {
	st := newRunnerStore(t)
	ctx := context.Background()

	fetcher := &fakeFetcher{summaries: []registry.StudySummary{
		{NCTID: "NCT00000001", BriefTitle: "One", OverallStatus: "COMPLETED", StartDate: "2020-06", HasResults: true},
		{NCTID: "NCT00000002", BriefTitle: "Two"},
		{BriefTitle: "no id, skipped"},
	}}

	run, err := NewRunner(st, fetcher, nil).Discover(ctx, registry.SearchQuery{Condition: "diabetes"})
	require.NoError(t, err)
	assert.Equal(t, 3, run.StudiesTotal)
	assert.Equal(t, 2, run.StudiesOK)
	assert.Equal(t, 1, run.StudiesSkipped)

	pending, err := st.ListPendingStudies(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "One", pending[0].BriefTitle)
	require.NotNil(t, pending[0].StartDate)
	assert.True(t, pending[0].HasResults)

	// Re-discovery must not clobber or re-queue anything.
	_, err = NewRunner(st, fetcher, nil).Discover(ctx, registry.SearchQuery{Condition: "diabetes"})
	require.NoError(t, err)
	pending, err = st.ListPendingStudies(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

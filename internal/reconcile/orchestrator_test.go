package reconcile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panacea-health/trials-etl/internal/model"
	"github.com/panacea-health/trials-etl/internal/store"
)

func newOrchestratorUnderTest(t *testing.T) (*Orchestrator, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "trials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	o := NewOrchestrator(st, NewReconciler(nil, ""))
	o.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return o, st
}

func snapshotState(t *testing.T, st store.Store, studyID string) (stats []model.ParticipantStatistic, events []model.AdverseEvent, measures []model.MeasureWithGroup) {
	t.Helper()
	ctx := context.Background()
	var err error
	stats, err = st.ParticipantStatistics(ctx, studyID)
	require.NoError(t, err)
	events, err = st.AdverseEvents(ctx, studyID)
	require.NoError(t, err)
	measures, err = st.OutcomeMeasuresWithGroups(ctx, studyID)
	require.NoError(t, err)
	return stats, events, measures
}

func TestOrchestrator_ProcessStudy(t *testing.T) {
	o, st := newOrchestratorUnderTest(t)
	ctx := context.Background()

	require.NoError(t, st.SeedStudy(ctx, model.Study{StudyID: "NCT01234567", BriefTitle: "seed"}))
	require.NoError(t, o.ProcessStudy(ctx, decodeFixture(t)))

	study, err := st.GetStudy(ctx, "NCT01234567")
	require.NoError(t, err)
	require.NotNil(t, study)
	assert.False(t, study.Pending())
	assert.Equal(t, "Metformin in Type 2 Diabetes", study.BriefTitle)

	stats, events, measures := snapshotState(t, st, "NCT01234567")
	assert.Len(t, stats, 2)
	assert.Len(t, events, 2)
	assert.Len(t, measures, 4)
}

func TestOrchestrator_Idempotent(t *testing.T) {
	o, st := newOrchestratorUnderTest(t)
	ctx := context.Background()
	doc := decodeFixture(t)

	require.NoError(t, st.SeedStudy(ctx, model.Study{StudyID: "NCT01234567", BriefTitle: "seed"}))
	require.NoError(t, o.ProcessStudy(ctx, doc))
	first1, first2, first3 := snapshotState(t, st, "NCT01234567")

	require.NoError(t, o.ProcessStudy(ctx, doc))
	second1, second2, second3 := snapshotState(t, st, "NCT01234567")

	assert.Equal(t, first1, second1)
	assert.Equal(t, first2, second2)
	assert.Equal(t, first3, second3)
}

// failingTx wraps a real transaction and fails one upsert partway through.
type failingTx struct {
	store.StudyTx
}

func (failingTx) UpsertAdverseEvent(context.Context, model.AdverseEvent) error {
	return assert.AnError
}

type failingStore struct {
	store.Store
}

func (f failingStore) Begin(ctx context.Context) (store.StudyTx, error) {
	tx, err := f.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return failingTx{tx}, nil
}

func TestOrchestrator_FailureLeavesStudyPending(t *testing.T) {
	_, st := newOrchestratorUnderTest(t)
	ctx := context.Background()

	require.NoError(t, st.SeedStudy(ctx, model.Study{StudyID: "NCT01234567", BriefTitle: "seed"}))

	o := NewOrchestrator(failingStore{st}, NewReconciler(nil, ""))
	err := o.ProcessStudy(ctx, decodeFixture(t))
	require.Error(t, err)

	study, err := st.GetStudy(ctx, "NCT01234567")
	require.NoError(t, err)
	assert.True(t, study.Pending())
	assert.Equal(t, "seed", study.BriefTitle, "rolled-back upserts must not persist")

	stats, err := st.ParticipantStatistics(ctx, "NCT01234567")
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestOrchestrator_RejectsDocumentWithoutID(t *testing.T) {
	o, _ := newOrchestratorUnderTest(t)
	doc := decodeFixture(t)
	doc.ProtocolSection.IdentificationModule.NCTID = ""

	err := o.ProcessStudy(context.Background(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no study id")
}

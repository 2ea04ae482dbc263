package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panacea-health/trials-etl/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "trials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func strPtr(s string) *string   { return &s }
func intPtr(i int) *int         { return &i }
func f64Ptr(f float64) *float64 { return &f }

func TestSQLiteStore_SeedStudy_FillsMissingOnly(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedStudy(ctx, model.Study{
		StudyID:    "NCT01234567",
		BriefTitle: "Thin listing",
	}))

	// Second seed carries more detail; missing fields fill in.
	require.NoError(t, s.SeedStudy(ctx, model.Study{
		StudyID:       "NCT01234567",
		BriefTitle:    "Richer listing",
		OfficialTitle: strPtr("Official"),
		HasResults:    true,
	}))

	st, err := s.GetStudy(ctx, "NCT01234567")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "Thin listing", st.BriefTitle, "populated brief title must not be clobbered")
	assert.Equal(t, "Official", *st.OfficialTitle)
	assert.True(t, st.HasResults)
	assert.True(t, st.Pending())
}

func TestSQLiteStore_QueueTransitions(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, id := range []string{"NCT00000001", "NCT00000002", "NCT00000003"} {
		require.NoError(t, s.SeedStudy(ctx, model.Study{StudyID: id, BriefTitle: id}))
	}

	pending, err := s.ListPendingStudies(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.MarkProcessed(ctx, "NCT00000002", time.Now().UTC()))
	require.NoError(t, tx.Commit(ctx))

	pending, err = s.ListPendingStudies(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "NCT00000001", pending[0].StudyID)
	assert.Equal(t, "NCT00000003", pending[1].StudyID)

	processed, err := s.ListProcessedStudies(ctx)
	require.NoError(t, err)
	require.Len(t, processed, 1)
	assert.Equal(t, "NCT00000002", processed[0].StudyID)

	total, done, err := s.CountStudies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, done)
}

func TestSQLiteStore_RollbackLeavesStudyPending(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedStudy(ctx, model.Study{StudyID: "NCT01234567", BriefTitle: "x"}))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertCondition(ctx, "NCT01234567", "Diabetes"))
	require.NoError(t, tx.MarkProcessed(ctx, "NCT01234567", time.Now().UTC()))
	require.NoError(t, tx.Rollback(ctx))

	st, err := s.GetStudy(ctx, "NCT01234567")
	require.NoError(t, err)
	assert.True(t, st.Pending(), "rollback must undo the processed mark")
}

func TestSQLiteStore_UpsertsAreIdempotent(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedStudy(ctx, model.Study{StudyID: "NCT01234567", BriefTitle: "x"}))

	ingest := func() {
		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.UpsertParticipantGroup(ctx, model.ParticipantGroup{
			StudyID: "NCT01234567", ID: "BG000", Title: "Placebo",
		}))
		require.NoError(t, tx.UpsertParticipantStatistic(ctx, model.ParticipantStatistic{
			StudyID: "NCT01234567", GroupID: "BG000", MeasureTitle: "Age",
			ParamType: "MEAN", DispersionType: "STANDARD_DEVIATION",
			UnitOfMeasure: strPtr("years"), Value: f64Ptr(54.2), Spread: f64Ptr(8.1),
		}))
		require.NoError(t, tx.UpsertAdverseEvent(ctx, model.AdverseEvent{
			StudyID: "NCT01234567", GroupID: "EG000", Term: "Headache",
			Severity: "other", NumAffected: intPtr(12),
		}))
		require.NoError(t, tx.Commit(ctx))
	}

	ingest()
	ingest()

	stats, err := s.ParticipantStatistics(ctx, "NCT01234567")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 54.2, *stats[0].Value)

	events, err := s.AdverseEvents(ctx, "NCT01234567")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 12, *events[0].NumAffected)
}

func TestSQLiteStore_OutcomeMeasuresJoinOnGroupStudyID(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedStudy(ctx, model.Study{StudyID: "NCT01234567", BriefTitle: "x"}))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertOutcomeGroup(ctx, model.OutcomeGroup{
		StudyID: "NCT01234567", ID: "OG000", Title: strPtr("Drug Arm"), Size: intPtr(50),
	}))
	require.NoError(t, tx.UpsertOutcomeMeasure(ctx, model.OutcomeMeasure{
		StudyID:      "NCT01234567",
		GroupStudyID: "NCT01234567",
		GroupID:      "OG000",
		MeasureTitle: "HbA1c Change",
		ClassTitle:   "Week 12",
		Value:        f64Ptr(-0.8),
	}))
	require.NoError(t, tx.Commit(ctx))

	measures, err := s.OutcomeMeasuresWithGroups(ctx, "NCT01234567")
	require.NoError(t, err)
	require.Len(t, measures, 1)
	assert.Equal(t, "Drug Arm", measures[0].GroupTitle)
	assert.Equal(t, -0.8, *measures[0].Measure.Value)
}

func TestSQLiteStore_VisualizationReplacedWholesale(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedStudy(ctx, model.Study{StudyID: "NCT01234567", BriefTitle: "x"}))

	require.NoError(t, s.SaveVisualization(ctx, "NCT01234567", []byte(`{"v":1}`)))
	require.NoError(t, s.SaveVisualization(ctx, "NCT01234567", []byte(`{"v":2}`)))

	doc, err := s.GetVisualization(ctx, "NCT01234567")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.JSONEq(t, `{"v":2}`, string(doc.Data))

	missing, err := s.GetVisualization(ctx, "NCT99999999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, model.RunKindIngest)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	run.Status = model.RunStatusComplete
	run.StudiesTotal = 3
	run.StudiesOK = 2
	run.StudiesFailed = 1
	require.NoError(t, s.FinishRun(ctx, run))
	require.NotNil(t, run.FinishedAt)

	err = s.FinishRun(ctx, &model.Run{ID: "missing", Status: model.RunStatusFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

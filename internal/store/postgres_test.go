package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panacea-health/trials-etl/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func studyRowColumns() []string {
	return []string{
		"study_id", "brief_title", "official_title", "overall_status", "start_date",
		"completion_date", "primary_completion_date", "has_results", "organization",
		"description", "processed_at",
	}
}

func TestPostgresStore_GetStudy_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM studies WHERE study_id = \$1`).
		WithArgs("NCT00000000").
		WillReturnError(pgx.ErrNoRows)

	st, err := s.GetStudy(context.Background(), "NCT00000000")
	require.NoError(t, err)
	assert.Nil(t, st)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetStudy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	official := "Official Title"
	mock.ExpectQuery(`SELECT .+ FROM studies WHERE study_id = \$1`).
		WithArgs("NCT01234567").
		WillReturnRows(mock.NewRows(studyRowColumns()).
			AddRow("NCT01234567", "Brief", &official, nil, nil, nil, nil, true, nil, nil, nil))

	st, err := s.GetStudy(context.Background(), "NCT01234567")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "NCT01234567", st.StudyID)
	assert.Equal(t, "Official Title", *st.OfficialTitle)
	assert.True(t, st.HasResults)
	assert.True(t, st.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SeedStudy_FillsMissingOnly(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO studies .+ ON CONFLICT \(study_id\) DO UPDATE SET`).
		WithArgs("NCT01234567", "Brief", (*string)(nil), (*string)(nil), (*time.Time)(nil),
			(*time.Time)(nil), (*time.Time)(nil), false, (*string)(nil), (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SeedStudy(context.Background(), model.Study{
		StudyID:    "NCT01234567",
		BriefTitle: "Brief",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPendingStudies(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM studies WHERE processed_at IS NULL ORDER BY study_id`).
		WillReturnRows(mock.NewRows(studyRowColumns()).
			AddRow("NCT00000001", "One", nil, nil, nil, nil, nil, true, nil, nil, nil).
			AddRow("NCT00000002", "Two", nil, nil, nil, nil, nil, false, nil, nil, nil))

	studies, err := s.ListPendingStudies(context.Background())
	require.NoError(t, err)
	require.Len(t, studies, 2)
	assert.Equal(t, "NCT00000001", studies[0].StudyID)
	assert.True(t, studies[1].Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountStudies(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(processed_at\) FROM studies`).
		WillReturnRows(mock.NewRows([]string{"total", "processed"}).AddRow(5, 3))

	total, processed, err := s.CountStudies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, 3, processed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StudyTx_CommitMarksProcessed(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO studies`).
		WithArgs("NCT01234567", "Brief", (*string)(nil), (*string)(nil), (*time.Time)(nil),
			(*time.Time)(nil), (*time.Time)(nil), true, (*string)(nil), (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO study_conditions`).
		WithArgs("NCT01234567", "Diabetes").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE studies SET processed_at = \$1 WHERE study_id = \$2`).
		WithArgs(now, "NCT01234567").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.UpsertStudy(ctx, model.Study{
		StudyID: "NCT01234567", BriefTitle: "Brief", HasResults: true,
	}))
	require.NoError(t, tx.UpsertCondition(ctx, "NCT01234567", "Diabetes"))
	require.NoError(t, tx.MarkProcessed(ctx, "NCT01234567", now))
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StudyTx_RollbackOnFailure(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO studies`).
		WithArgs("NCT01234567", "Brief", (*string)(nil), (*string)(nil), (*time.Time)(nil),
			(*time.Time)(nil), (*time.Time)(nil), false, (*string)(nil), (*string)(nil)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	err = tx.UpsertStudy(ctx, model.Study{StudyID: "NCT01234567", BriefTitle: "Brief"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert study")
	require.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkProcessed_StudyMissing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE studies SET processed_at`).
		WithArgs(pgxmock.AnyArg(), "NCT99999999").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	err = tx.MarkProcessed(ctx, "NCT99999999", time.Now().UTC())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "study not found")
}

func TestPostgresStore_SaveVisualization_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO visualization_documents .+ ON CONFLICT \(study_id\) DO UPDATE SET`).
		WithArgs("NCT01234567", []byte(`{"studyInfo":{}}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveVisualization(context.Background(), "NCT01234567", []byte(`{"studyInfo":{}}`))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FinishRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE etl_runs SET status`).
		WithArgs("complete", 0, 0, 0, 0, pgxmock.AnyArg(), "missing-run").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FinishRun(context.Background(), &model.Run{
		ID: "missing-run", Status: model.RunStatusComplete,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

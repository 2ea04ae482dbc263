package export

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/panacea-health/trials-etl/internal/model"
	"github.com/panacea-health/trials-etl/internal/store"
)

func newExportStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "trials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestWriteWorkbook(t *testing.T) {
	st := newExportStore(t)
	ctx := context.Background()

	status := "COMPLETED"
	start := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.SeedStudy(ctx, model.Study{
		StudyID:       "NCT00000001",
		BriefTitle:    "Metformin in type 2 diabetes",
		OverallStatus: &status,
		StartDate:     &start,
		HasResults:    true,
	}))
	require.NoError(t, st.SeedStudy(ctx, model.Study{
		StudyID:    "NCT00000002",
		BriefTitle: "Still pending",
	}))

	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.MarkProcessed(ctx, "NCT00000001", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, st.SaveVisualization(ctx, "NCT00000001", []byte(`{"studyInfo":{}}`)))

	path := filepath.Join(t.TempDir(), "studies.xlsx")
	require.NoError(t, NewExporter(st).WriteWorkbook(ctx, path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 3)

	summary := f.Sheet["Summary"]
	require.NotNil(t, summary)
	assert.Equal(t, "Total Studies", summary.Rows[1].Cells[0].String())
	assert.Equal(t, "2", summary.Rows[1].Cells[1].String())
	assert.Equal(t, "1", summary.Rows[2].Cells[1].String())

	processed := f.Sheet["Processed"]
	require.NotNil(t, processed)
	require.Len(t, processed.Rows, 2, "header plus one study")
	row := processed.Rows[1]
	assert.Equal(t, "NCT00000001", row.Cells[0].String())
	assert.Equal(t, "Metformin in type 2 diabetes", row.Cells[1].String())
	assert.Equal(t, "COMPLETED", row.Cells[2].String())
	assert.Equal(t, "2020-06-01", row.Cells[3].String())
	assert.Equal(t, "", row.Cells[4].String(), "unknown dates stay blank")
	assert.Equal(t, "2026-08-01T12:00:00Z", row.Cells[7].String())
	assert.NotEmpty(t, row.Cells[8].String(), "visualized studies carry their rebuild time")

	pending := f.Sheet["Pending"]
	require.NotNil(t, pending)
	require.Len(t, pending.Rows, 2)
	assert.Equal(t, "NCT00000002", pending.Rows[1].Cells[0].String())
	assert.Equal(t, "", pending.Rows[1].Cells[8].String())
}

func TestWriteWorkbook_EmptyStore(t *testing.T) {
	st := newExportStore(t)
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, NewExporter(st).WriteWorkbook(context.Background(), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	for _, name := range []string{"Processed", "Pending"} {
		sheet := f.Sheet[name]
		require.NotNil(t, sheet)
		assert.Len(t, sheet.Rows, 1, "header only")
	}
}

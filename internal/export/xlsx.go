// Package export writes study queue snapshots to XLSX workbooks for manual
// review outside the pipeline.
package export

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/panacea-health/trials-etl/internal/model"
	"github.com/panacea-health/trials-etl/internal/store"
)

var studyHeader = []string{
	"Study ID", "Brief Title", "Status", "Start Date", "Completion Date",
	"Has Results", "Organization", "Processed At", "Visualized At",
}

// Exporter writes store contents to workbooks.
type Exporter struct {
	store store.Store
}

// NewExporter builds an Exporter over the given store.
func NewExporter(st store.Store) *Exporter {
	return &Exporter{store: st}
}

// WriteWorkbook writes one workbook with a summary sheet and one sheet per
// queue state to path.
func (e *Exporter) WriteWorkbook(ctx context.Context, path string) error {
	pending, err := e.store.ListPendingStudies(ctx)
	if err != nil {
		return eris.Wrap(err, "export: list pending studies")
	}
	processed, err := e.store.ListProcessedStudies(ctx)
	if err != nil {
		return eris.Wrap(err, "export: list processed studies")
	}

	f := xlsx.NewFile()

	generated, err := e.generationTimes(ctx, processed)
	if err != nil {
		return err
	}

	if err := addSummarySheet(f, len(pending), len(processed)); err != nil {
		return err
	}
	if err := addStudySheet(f, "Processed", processed, generated); err != nil {
		return err
	}
	if err := addStudySheet(f, "Pending", pending, nil); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}

// generationTimes looks up when each study's visualization document was last
// rebuilt. Studies without a document are simply absent from the map.
func (e *Exporter) generationTimes(ctx context.Context, studies []model.Study) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(studies))
	for _, st := range studies {
		doc, err := e.store.GetVisualization(ctx, st.StudyID)
		if err != nil {
			return nil, eris.Wrapf(err, "export: get visualization %s", st.StudyID)
		}
		if doc != nil {
			out[st.StudyID] = doc.GeneratedAt
		}
	}
	return out, nil
}

func addSummarySheet(f *xlsx.File, pending, processed int) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	for _, line := range [][2]string{
		{"Generated", time.Now().UTC().Format(time.RFC3339)},
		{"Total Studies", strconv.Itoa(pending + processed)},
		{"Processed", strconv.Itoa(processed)},
		{"Pending", strconv.Itoa(pending)},
	} {
		row := sheet.AddRow()
		row.AddCell().SetString(line[0])
		row.AddCell().SetString(line[1])
	}
	return nil
}

func addStudySheet(f *xlsx.File, name string, studies []model.Study, generated map[string]time.Time) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}

	header := sheet.AddRow()
	for _, col := range studyHeader {
		header.AddCell().SetString(col)
	}

	for _, st := range studies {
		row := sheet.AddRow()
		row.AddCell().SetString(st.StudyID)
		row.AddCell().SetString(st.BriefTitle)
		row.AddCell().SetString(strDeref(st.OverallStatus))
		row.AddCell().SetString(dateCell(st.StartDate))
		row.AddCell().SetString(dateCell(st.CompletionDate))
		row.AddCell().SetBool(st.HasResults)
		row.AddCell().SetString(strDeref(st.Organization))
		row.AddCell().SetString(timeCell(st.ProcessedAt))
		if at, ok := generated[st.StudyID]; ok {
			row.AddCell().SetString(timeCell(&at))
		} else {
			row.AddCell().SetString("")
		}
	}
	return nil
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func timeCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

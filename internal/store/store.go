// Package store persists the normalized trial schema. Two backends exist:
// Postgres (pgx) for deployments and SQLite (modernc) for local runs. All
// writes are composite-key upserts so re-ingesting a study is a merge, never
// a duplicate.
package store

import (
	"context"
	"time"

	"github.com/panacea-health/trials-etl/internal/model"
)

// Store is the persistence interface for the ETL pipeline.
type Store interface {
	// Study queue. SeedStudy inserts a study or fills only its missing
	// fields (discovery hydration); it never overwrites populated columns
	// and never touches processed_at.
	SeedStudy(ctx context.Context, s model.Study) error
	GetStudy(ctx context.Context, studyID string) (*model.Study, error)
	ListPendingStudies(ctx context.Context) ([]model.Study, error)
	ListProcessedStudies(ctx context.Context) ([]model.Study, error)
	CountStudies(ctx context.Context) (total, processed int, err error)

	// Begin opens the per-study transaction the orchestrator runs in.
	Begin(ctx context.Context) (StudyTx, error)

	// Aggregation reads for the visualization builder.
	ParticipantGroups(ctx context.Context, studyID string) ([]model.ParticipantGroup, error)
	ParticipantStatistics(ctx context.Context, studyID string) ([]model.ParticipantStatistic, error)
	AdverseEvents(ctx context.Context, studyID string) ([]model.AdverseEvent, error)
	OutcomeMeasuresWithGroups(ctx context.Context, studyID string) ([]model.MeasureWithGroup, error)

	// Visualization documents are replaced wholesale, keyed by study id.
	SaveVisualization(ctx context.Context, studyID string, data []byte) error
	GetVisualization(ctx context.Context, studyID string) (*model.VisualizationDocument, error)

	// Batch run audit trail.
	CreateRun(ctx context.Context, kind model.RunKind) (*model.Run, error)
	FinishRun(ctx context.Context, run *model.Run) error

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}

// StudyTx is one study's transactional scope. Either every upsert commits
// together with the processed_at mark, or the study rolls back whole and
// stays pending.
type StudyTx interface {
	UpsertStudy(ctx context.Context, s model.Study) error
	UpsertCondition(ctx context.Context, studyID, condition string) error
	UpsertKeyword(ctx context.Context, studyID, keyword string) error
	UpsertPhase(ctx context.Context, studyID, phase string) error
	UpsertArm(ctx context.Context, a model.Arm) error
	UpsertIntervention(ctx context.Context, iv model.Intervention) error
	UpsertOutcome(ctx context.Context, o model.Outcome) error
	UpsertOutcomeGroup(ctx context.Context, g model.OutcomeGroup) error
	UpsertOutcomeMeasure(ctx context.Context, m model.OutcomeMeasure) error
	UpsertAdverseEventGroup(ctx context.Context, g model.AdverseEventGroup) error
	UpsertAdverseEvent(ctx context.Context, e model.AdverseEvent) error
	UpsertContact(ctx context.Context, c model.Contact) error
	UpsertParticipantGroup(ctx context.Context, g model.ParticipantGroup) error
	UpsertParticipantDemographic(ctx context.Context, d model.ParticipantDemographic) error
	UpsertParticipantStatistic(ctx context.Context, s model.ParticipantStatistic) error
	UpsertParticipantDenom(ctx context.Context, d model.ParticipantDenom) error
	UpsertTimeSeriesPoint(ctx context.Context, p model.TimeSeriesPoint) error
	MarkProcessed(ctx context.Context, studyID string, at time.Time) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/panacea-health/trials-etl/internal/db"
	"github.com/panacea-health/trials-etl/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS studies (
	study_id                TEXT PRIMARY KEY,
	brief_title             TEXT NOT NULL DEFAULT '',
	official_title          TEXT,
	overall_status          TEXT,
	start_date              DATE,
	completion_date         DATE,
	primary_completion_date DATE,
	has_results             BOOLEAN NOT NULL DEFAULT false,
	organization            TEXT,
	description             TEXT,
	processed_at            TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_studies_processed_at ON studies(processed_at);

CREATE TABLE IF NOT EXISTS study_conditions (
	study_id  TEXT NOT NULL REFERENCES studies(study_id),
	condition TEXT NOT NULL,
	PRIMARY KEY (study_id, condition)
);

CREATE TABLE IF NOT EXISTS study_keywords (
	study_id TEXT NOT NULL REFERENCES studies(study_id),
	keyword  TEXT NOT NULL,
	PRIMARY KEY (study_id, keyword)
);

CREATE TABLE IF NOT EXISTS study_phases (
	study_id TEXT NOT NULL REFERENCES studies(study_id),
	phase    TEXT NOT NULL,
	PRIMARY KEY (study_id, phase)
);

CREATE TABLE IF NOT EXISTS study_arms (
	study_id    TEXT NOT NULL REFERENCES studies(study_id),
	id          TEXT NOT NULL,
	label       TEXT NOT NULL DEFAULT '',
	type        TEXT,
	description TEXT,
	PRIMARY KEY (study_id, id)
);

CREATE TABLE IF NOT EXISTS interventions (
	study_id    TEXT NOT NULL REFERENCES studies(study_id),
	id          TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	description TEXT,
	type        TEXT,
	PRIMARY KEY (study_id, id)
);

CREATE TABLE IF NOT EXISTS outcomes (
	study_id   TEXT NOT NULL REFERENCES studies(study_id),
	id         TEXT NOT NULL,
	type       TEXT NOT NULL,
	measure    TEXT NOT NULL DEFAULT '',
	time_frame TEXT,
	PRIMARY KEY (study_id, id)
);

CREATE TABLE IF NOT EXISTS outcome_groups (
	study_id    TEXT NOT NULL REFERENCES studies(study_id),
	id          TEXT NOT NULL,
	title       TEXT,
	description TEXT,
	size        INTEGER,
	PRIMARY KEY (study_id, id)
);

CREATE TABLE IF NOT EXISTS outcome_measures (
	study_id               TEXT NOT NULL REFERENCES studies(study_id),
	group_study_id         TEXT NOT NULL,
	group_id               TEXT NOT NULL,
	measure_title          TEXT NOT NULL,
	class_title            TEXT NOT NULL DEFAULT '',
	description            TEXT,
	time_frame             TEXT,
	type                   TEXT,
	population_description TEXT,
	reporting_status       TEXT,
	param_type             TEXT,
	dispersion_type        TEXT,
	unit_of_measure        TEXT,
	value                  DOUBLE PRECISION,
	lower_limit            DOUBLE PRECISION,
	upper_limit            DOUBLE PRECISION,
	PRIMARY KEY (group_study_id, group_id, measure_title, class_title)
);

CREATE INDEX IF NOT EXISTS idx_outcome_measures_study ON outcome_measures(study_id);

CREATE TABLE IF NOT EXISTS adverse_event_groups (
	study_id             TEXT NOT NULL REFERENCES studies(study_id),
	id                   TEXT NOT NULL,
	title                TEXT NOT NULL DEFAULT '',
	description          TEXT,
	serious_num_affected INTEGER,
	serious_num_at_risk  INTEGER,
	other_num_affected   INTEGER,
	other_num_at_risk    INTEGER,
	PRIMARY KEY (study_id, id)
);

CREATE TABLE IF NOT EXISTS adverse_events (
	study_id        TEXT NOT NULL REFERENCES studies(study_id),
	group_id        TEXT NOT NULL,
	term            TEXT NOT NULL,
	severity        TEXT NOT NULL,
	organ_system    TEXT,
	assessment_type TEXT,
	num_events      INTEGER,
	num_affected    INTEGER,
	num_at_risk     INTEGER,
	notes           TEXT,
	PRIMARY KEY (study_id, group_id, term, severity)
);

CREATE TABLE IF NOT EXISTS contacts (
	study_id     TEXT NOT NULL REFERENCES studies(study_id),
	name         TEXT NOT NULL,
	role         TEXT,
	organization TEXT,
	PRIMARY KEY (study_id, name)
);

CREATE TABLE IF NOT EXISTS participant_groups (
	study_id    TEXT NOT NULL REFERENCES studies(study_id),
	id          TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT,
	PRIMARY KEY (study_id, id)
);

CREATE TABLE IF NOT EXISTS participant_demographics (
	study_id        TEXT NOT NULL REFERENCES studies(study_id),
	group_id        TEXT NOT NULL,
	measure_title   TEXT NOT NULL,
	param_type      TEXT NOT NULL DEFAULT '',
	dispersion_type TEXT NOT NULL DEFAULT '',
	unit_of_measure TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL DEFAULT '',
	value           DOUBLE PRECISION,
	spread          DOUBLE PRECISION,
	PRIMARY KEY (study_id, group_id, measure_title, param_type, dispersion_type, unit_of_measure, category)
);

CREATE TABLE IF NOT EXISTS participant_statistics (
	study_id        TEXT NOT NULL REFERENCES studies(study_id),
	group_id        TEXT NOT NULL,
	measure_title   TEXT NOT NULL,
	param_type      TEXT NOT NULL DEFAULT '',
	dispersion_type TEXT NOT NULL DEFAULT '',
	unit_of_measure TEXT,
	value           DOUBLE PRECISION,
	spread          DOUBLE PRECISION,
	PRIMARY KEY (study_id, group_id, measure_title, param_type, dispersion_type)
);

CREATE TABLE IF NOT EXISTS participant_denoms (
	study_id TEXT NOT NULL REFERENCES studies(study_id),
	group_id TEXT NOT NULL,
	units    TEXT,
	count    INTEGER,
	PRIMARY KEY (study_id, group_id)
);

CREATE TABLE IF NOT EXISTS time_series_points (
	study_id    TEXT NOT NULL REFERENCES studies(study_id),
	outcome_id  TEXT NOT NULL,
	group_id    TEXT NOT NULL,
	time_frame  TEXT NOT NULL,
	value       DOUBLE PRECISION,
	lower_limit DOUBLE PRECISION,
	upper_limit DOUBLE PRECISION,
	PRIMARY KEY (study_id, outcome_id, group_id, time_frame)
);

CREATE TABLE IF NOT EXISTS visualization_documents (
	study_id     TEXT PRIMARY KEY REFERENCES studies(study_id),
	data         JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS etl_runs (
	id              TEXT PRIMARY KEY,
	kind            TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'running',
	studies_total   INTEGER NOT NULL DEFAULT 0,
	studies_ok      INTEGER NOT NULL DEFAULT 0,
	studies_failed  INTEGER NOT NULL DEFAULT 0,
	studies_skipped INTEGER NOT NULL DEFAULT 0,
	started_at      TIMESTAMPTZ NOT NULL,
	finished_at     TIMESTAMPTZ
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SeedStudy(ctx context.Context, st model.Study) error {
	_, err := s.pool.Exec(ctx, seedStudySQL, studyArgs(st)...)
	return eris.Wrapf(err, "postgres: seed study %s", st.StudyID)
}

func (s *PostgresStore) GetStudy(ctx context.Context, studyID string) (*model.Study, error) {
	var st model.Study
	err := s.pool.QueryRow(ctx, getStudySQL, studyID).Scan(
		&st.StudyID, &st.BriefTitle, &st.OfficialTitle, &st.OverallStatus,
		&st.StartDate, &st.CompletionDate, &st.PrimaryCompletionDate,
		&st.HasResults, &st.Organization, &st.Description, &st.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get study %s", studyID)
	}
	return &st, nil
}

func (s *PostgresStore) ListPendingStudies(ctx context.Context) ([]model.Study, error) {
	return s.listStudies(ctx, listPendingSQL)
}

func (s *PostgresStore) ListProcessedStudies(ctx context.Context) ([]model.Study, error) {
	return s.listStudies(ctx, listProcessedSQL)
}

func (s *PostgresStore) listStudies(ctx context.Context, query string) ([]model.Study, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list studies")
	}
	defer rows.Close()

	var studies []model.Study
	for rows.Next() {
		var st model.Study
		if err := rows.Scan(
			&st.StudyID, &st.BriefTitle, &st.OfficialTitle, &st.OverallStatus,
			&st.StartDate, &st.CompletionDate, &st.PrimaryCompletionDate,
			&st.HasResults, &st.Organization, &st.Description, &st.ProcessedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan study")
		}
		studies = append(studies, st)
	}
	return studies, eris.Wrap(rows.Err(), "postgres: list studies iterate")
}

func (s *PostgresStore) CountStudies(ctx context.Context) (total, processed int, err error) {
	err = s.pool.QueryRow(ctx, countStudiesSQL).Scan(&total, &processed)
	return total, processed, eris.Wrap(err, "postgres: count studies")
}

func (s *PostgresStore) Begin(ctx context.Context) (StudyTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin")
	}
	return &pgStudyTx{tx: tx}, nil
}

func (s *PostgresStore) ParticipantGroups(ctx context.Context, studyID string) ([]model.ParticipantGroup, error) {
	rows, err := s.pool.Query(ctx, participantGroupsSQL, studyID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: participant groups")
	}
	defer rows.Close()

	var groups []model.ParticipantGroup
	for rows.Next() {
		var g model.ParticipantGroup
		if err := rows.Scan(&g.StudyID, &g.ID, &g.Title, &g.Description); err != nil {
			return nil, eris.Wrap(err, "postgres: scan participant group")
		}
		groups = append(groups, g)
	}
	return groups, eris.Wrap(rows.Err(), "postgres: participant groups iterate")
}

func (s *PostgresStore) ParticipantStatistics(ctx context.Context, studyID string) ([]model.ParticipantStatistic, error) {
	rows, err := s.pool.Query(ctx, participantStatisticsSQL, studyID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: participant statistics")
	}
	defer rows.Close()

	var stats []model.ParticipantStatistic
	for rows.Next() {
		var ps model.ParticipantStatistic
		if err := rows.Scan(&ps.StudyID, &ps.GroupID, &ps.MeasureTitle, &ps.ParamType,
			&ps.DispersionType, &ps.UnitOfMeasure, &ps.Value, &ps.Spread); err != nil {
			return nil, eris.Wrap(err, "postgres: scan participant statistic")
		}
		stats = append(stats, ps)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: participant statistics iterate")
}

func (s *PostgresStore) AdverseEvents(ctx context.Context, studyID string) ([]model.AdverseEvent, error) {
	rows, err := s.pool.Query(ctx, adverseEventsSQL, studyID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: adverse events")
	}
	defer rows.Close()

	var events []model.AdverseEvent
	for rows.Next() {
		var e model.AdverseEvent
		if err := rows.Scan(&e.StudyID, &e.GroupID, &e.Term, &e.Severity, &e.OrganSystem,
			&e.AssessmentType, &e.NumEvents, &e.NumAffected, &e.NumAtRisk, &e.Notes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan adverse event")
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "postgres: adverse events iterate")
}

func (s *PostgresStore) OutcomeMeasuresWithGroups(ctx context.Context, studyID string) ([]model.MeasureWithGroup, error) {
	rows, err := s.pool.Query(ctx, measuresWithGroupsSQL, studyID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: outcome measures")
	}
	defer rows.Close()

	var out []model.MeasureWithGroup
	for rows.Next() {
		var mg model.MeasureWithGroup
		m := &mg.Measure
		if err := rows.Scan(&m.StudyID, &m.GroupStudyID, &m.GroupID, &m.MeasureTitle, &m.ClassTitle,
			&m.Description, &m.TimeFrame, &m.Type, &m.PopulationDescription, &m.ReportingStatus,
			&m.ParamType, &m.DispersionType, &m.UnitOfMeasure, &m.Value, &m.LowerLimit, &m.UpperLimit,
			&mg.GroupTitle); err != nil {
			return nil, eris.Wrap(err, "postgres: scan outcome measure")
		}
		out = append(out, mg)
	}
	return out, eris.Wrap(rows.Err(), "postgres: outcome measures iterate")
}

func (s *PostgresStore) SaveVisualization(ctx context.Context, studyID string, data []byte) error {
	_, err := s.pool.Exec(ctx, saveVisualizationSQL, studyID, data, time.Now().UTC())
	return eris.Wrapf(err, "postgres: save visualization %s", studyID)
}

func (s *PostgresStore) GetVisualization(ctx context.Context, studyID string) (*model.VisualizationDocument, error) {
	var doc model.VisualizationDocument
	var data []byte
	err := s.pool.QueryRow(ctx, getVisualizationSQL, studyID).
		Scan(&doc.StudyID, &data, &doc.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get visualization %s", studyID)
	}
	doc.Data = data
	return &doc, nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, kind model.RunKind) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, insertRunSQL,
		run.ID, string(run.Kind), string(run.Status),
		run.StudiesTotal, run.StudiesOK, run.StudiesFailed, run.StudiesSkipped,
		run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return run, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, run *model.Run) error {
	if run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}
	tag, err := s.pool.Exec(ctx, finishRunSQL,
		string(run.Status), run.StudiesTotal, run.StudiesOK, run.StudiesFailed,
		run.StudiesSkipped, run.FinishedAt, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", run.ID)
	}
	return nil
}

// pgStudyTx implements StudyTx over a pgx transaction.
type pgStudyTx struct {
	tx pgx.Tx
}

func (t *pgStudyTx) exec(ctx context.Context, op, query string, args ...any) error {
	_, err := t.tx.Exec(ctx, query, args...)
	return eris.Wrapf(err, "postgres: %s", op)
}

func (t *pgStudyTx) UpsertStudy(ctx context.Context, st model.Study) error {
	return t.exec(ctx, "upsert study", upsertStudySQL, studyArgs(st)...)
}

func (t *pgStudyTx) UpsertCondition(ctx context.Context, studyID, condition string) error {
	return t.exec(ctx, "upsert condition", upsertConditionSQL, studyID, condition)
}

func (t *pgStudyTx) UpsertKeyword(ctx context.Context, studyID, keyword string) error {
	return t.exec(ctx, "upsert keyword", upsertKeywordSQL, studyID, keyword)
}

func (t *pgStudyTx) UpsertPhase(ctx context.Context, studyID, phase string) error {
	return t.exec(ctx, "upsert phase", upsertPhaseSQL, studyID, phase)
}

func (t *pgStudyTx) UpsertArm(ctx context.Context, a model.Arm) error {
	return t.exec(ctx, "upsert arm", upsertArmSQL, a.StudyID, a.ID, a.Label, a.Type, a.Description)
}

func (t *pgStudyTx) UpsertIntervention(ctx context.Context, iv model.Intervention) error {
	return t.exec(ctx, "upsert intervention", upsertInterventionSQL,
		iv.StudyID, iv.ID, iv.Name, iv.Description, iv.Type)
}

func (t *pgStudyTx) UpsertOutcome(ctx context.Context, o model.Outcome) error {
	return t.exec(ctx, "upsert outcome", upsertOutcomeSQL,
		o.StudyID, o.ID, string(o.Type), o.Measure, o.TimeFrame)
}

func (t *pgStudyTx) UpsertOutcomeGroup(ctx context.Context, g model.OutcomeGroup) error {
	return t.exec(ctx, "upsert outcome group", upsertOutcomeGroupSQL,
		g.StudyID, g.ID, g.Title, g.Description, g.Size)
}

func (t *pgStudyTx) UpsertOutcomeMeasure(ctx context.Context, m model.OutcomeMeasure) error {
	return t.exec(ctx, "upsert outcome measure", upsertOutcomeMeasureSQL,
		m.StudyID, m.GroupStudyID, m.GroupID, m.MeasureTitle, m.ClassTitle,
		m.Description, m.TimeFrame, m.Type, m.PopulationDescription, m.ReportingStatus,
		m.ParamType, m.DispersionType, m.UnitOfMeasure, m.Value, m.LowerLimit, m.UpperLimit)
}

func (t *pgStudyTx) UpsertAdverseEventGroup(ctx context.Context, g model.AdverseEventGroup) error {
	return t.exec(ctx, "upsert adverse event group", upsertAdverseEventGroupSQL,
		g.StudyID, g.ID, g.Title, g.Description,
		g.SeriousNumAffected, g.SeriousNumAtRisk, g.OtherNumAffected, g.OtherNumAtRisk)
}

func (t *pgStudyTx) UpsertAdverseEvent(ctx context.Context, e model.AdverseEvent) error {
	return t.exec(ctx, "upsert adverse event", upsertAdverseEventSQL,
		e.StudyID, e.GroupID, e.Term, e.Severity, e.OrganSystem,
		e.AssessmentType, e.NumEvents, e.NumAffected, e.NumAtRisk, e.Notes)
}

func (t *pgStudyTx) UpsertContact(ctx context.Context, c model.Contact) error {
	return t.exec(ctx, "upsert contact", upsertContactSQL,
		c.StudyID, c.Name, c.Role, c.Organization)
}

func (t *pgStudyTx) UpsertParticipantGroup(ctx context.Context, g model.ParticipantGroup) error {
	return t.exec(ctx, "upsert participant group", upsertParticipantGroupSQL,
		g.StudyID, g.ID, g.Title, g.Description)
}

func (t *pgStudyTx) UpsertParticipantDemographic(ctx context.Context, d model.ParticipantDemographic) error {
	return t.exec(ctx, "upsert participant demographic", upsertParticipantDemographicSQL,
		d.StudyID, d.GroupID, d.MeasureTitle, d.ParamType, d.DispersionType,
		d.UnitOfMeasure, d.Category, d.Value, d.Spread)
}

func (t *pgStudyTx) UpsertParticipantStatistic(ctx context.Context, st model.ParticipantStatistic) error {
	return t.exec(ctx, "upsert participant statistic", upsertParticipantStatisticSQL,
		st.StudyID, st.GroupID, st.MeasureTitle, st.ParamType, st.DispersionType,
		st.UnitOfMeasure, st.Value, st.Spread)
}

func (t *pgStudyTx) UpsertParticipantDenom(ctx context.Context, d model.ParticipantDenom) error {
	return t.exec(ctx, "upsert participant denom", upsertParticipantDenomSQL,
		d.StudyID, d.GroupID, d.Units, d.Count)
}

func (t *pgStudyTx) UpsertTimeSeriesPoint(ctx context.Context, p model.TimeSeriesPoint) error {
	return t.exec(ctx, "upsert time series point", upsertTimeSeriesPointSQL,
		p.StudyID, p.OutcomeID, p.GroupID, p.TimeFrame, p.Value, p.LowerLimit, p.UpperLimit)
}

func (t *pgStudyTx) MarkProcessed(ctx context.Context, studyID string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, markProcessedSQL, at, studyID)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark processed %s", studyID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("study not found: %s", studyID)
	}
	return nil
}

func (t *pgStudyTx) Commit(ctx context.Context) error {
	return eris.Wrap(t.tx.Commit(ctx), "postgres: commit")
}

func (t *pgStudyTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return eris.Wrap(err, "postgres: rollback")
	}
	return nil
}

// studyArgs orders study fields to match the shared insert column list.
func studyArgs(st model.Study) []any {
	return []any{
		st.StudyID, st.BriefTitle, st.OfficialTitle, st.OverallStatus,
		st.StartDate, st.CompletionDate, st.PrimaryCompletionDate,
		st.HasResults, st.Organization, st.Description,
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/panacea-health/trials-etl/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

var placeholderRe = regexp.MustCompile(`\$\d+`)

// rebind rewrites the shared $N statements to SQLite's ? placeholders. The
// shared SQL keeps $N strictly sequential, so positional replacement is safe.
func rebind(query string) string {
	return placeholderRe.ReplaceAllString(query, "?")
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS studies (
	study_id                TEXT PRIMARY KEY,
	brief_title             TEXT NOT NULL DEFAULT '',
	official_title          TEXT,
	overall_status          TEXT,
	start_date              DATE,
	completion_date         DATE,
	primary_completion_date DATE,
	has_results             INTEGER NOT NULL DEFAULT 0,
	organization            TEXT,
	description             TEXT,
	processed_at            DATETIME
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
	value                  REAL,
	lower_limit            REAL,
	upper_limit            REAL,
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
	value           REAL,
	spread          REAL,
	PRIMARY KEY (study_id, group_id, measure_title, param_type, dispersion_type, unit_of_measure, category)
);

CREATE TABLE IF NOT EXISTS participant_statistics (
	study_id        TEXT NOT NULL REFERENCES studies(study_id),
	group_id        TEXT NOT NULL,
	measure_title   TEXT NOT NULL,
	param_type      TEXT NOT NULL DEFAULT '',
	dispersion_type TEXT NOT NULL DEFAULT '',
	unit_of_measure TEXT,
	value           REAL,
	spread          REAL,
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
	value       REAL,
	lower_limit REAL,
	upper_limit REAL,
	PRIMARY KEY (study_id, outcome_id, group_id, time_frame)
);

CREATE TABLE IF NOT EXISTS visualization_documents (
	study_id     TEXT PRIMARY KEY REFERENCES studies(study_id),
	data         TEXT NOT NULL,
	generated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS etl_runs (
	id              TEXT PRIMARY KEY,
	kind            TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'running',
	studies_total   INTEGER NOT NULL DEFAULT 0,
	studies_ok      INTEGER NOT NULL DEFAULT 0,
	studies_failed  INTEGER NOT NULL DEFAULT 0,
	studies_skipped INTEGER NOT NULL DEFAULT 0,
	started_at      DATETIME NOT NULL,
	finished_at     DATETIME
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) SeedStudy(ctx context.Context, st model.Study) error {
	_, err := s.db.ExecContext(ctx, rebind(seedStudySQL), studyArgs(st)...)
	return eris.Wrapf(err, "sqlite: seed study %s", st.StudyID)
}

// scanStudy reads one study row. has_results comes back as an INTEGER.
func scanStudy(row interface{ Scan(...any) error }) (model.Study, error) {
	var st model.Study
	var hasResults int64
	err := row.Scan(
		&st.StudyID, &st.BriefTitle, &st.OfficialTitle, &st.OverallStatus,
		&st.StartDate, &st.CompletionDate, &st.PrimaryCompletionDate,
		&hasResults, &st.Organization, &st.Description, &st.ProcessedAt,
	)
	st.HasResults = hasResults != 0
	return st, err
}

func (s *SQLiteStore) GetStudy(ctx context.Context, studyID string) (*model.Study, error) {
	st, err := scanStudy(s.db.QueryRowContext(ctx, rebind(getStudySQL), studyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get study %s", studyID)
	}
	return &st, nil
}

func (s *SQLiteStore) ListPendingStudies(ctx context.Context) ([]model.Study, error) {
	return s.listStudies(ctx, listPendingSQL)
}

func (s *SQLiteStore) ListProcessedStudies(ctx context.Context) ([]model.Study, error) {
	return s.listStudies(ctx, listProcessedSQL)
}

func (s *SQLiteStore) listStudies(ctx context.Context, query string) ([]model.Study, error) {
	rows, err := s.db.QueryContext(ctx, rebind(query))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list studies")
	}
	defer rows.Close()

	var studies []model.Study
	for rows.Next() {
		st, err := scanStudy(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan study")
		}
		studies = append(studies, st)
	}
	return studies, eris.Wrap(rows.Err(), "sqlite: list studies iterate")
}

func (s *SQLiteStore) CountStudies(ctx context.Context) (total, processed int, err error) {
	err = s.db.QueryRowContext(ctx, countStudiesSQL).Scan(&total, &processed)
	return total, processed, eris.Wrap(err, "sqlite: count studies")
}

func (s *SQLiteStore) Begin(ctx context.Context) (StudyTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	return &sqStudyTx{tx: tx}, nil
}

func (s *SQLiteStore) ParticipantGroups(ctx context.Context, studyID string) ([]model.ParticipantGroup, error) {
	rows, err := s.db.QueryContext(ctx, rebind(participantGroupsSQL), studyID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: participant groups")
	}
	defer rows.Close()

	var groups []model.ParticipantGroup
	for rows.Next() {
		var g model.ParticipantGroup
		if err := rows.Scan(&g.StudyID, &g.ID, &g.Title, &g.Description); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan participant group")
		}
		groups = append(groups, g)
	}
	return groups, eris.Wrap(rows.Err(), "sqlite: participant groups iterate")
}

func (s *SQLiteStore) ParticipantStatistics(ctx context.Context, studyID string) ([]model.ParticipantStatistic, error) {
	rows, err := s.db.QueryContext(ctx, rebind(participantStatisticsSQL), studyID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: participant statistics")
	}
	defer rows.Close()

	var stats []model.ParticipantStatistic
	for rows.Next() {
		var ps model.ParticipantStatistic
		if err := rows.Scan(&ps.StudyID, &ps.GroupID, &ps.MeasureTitle, &ps.ParamType,
			&ps.DispersionType, &ps.UnitOfMeasure, &ps.Value, &ps.Spread); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan participant statistic")
		}
		stats = append(stats, ps)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: participant statistics iterate")
}

func (s *SQLiteStore) AdverseEvents(ctx context.Context, studyID string) ([]model.AdverseEvent, error) {
	rows, err := s.db.QueryContext(ctx, rebind(adverseEventsSQL), studyID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: adverse events")
	}
	defer rows.Close()

	var events []model.AdverseEvent
	for rows.Next() {
		var e model.AdverseEvent
		if err := rows.Scan(&e.StudyID, &e.GroupID, &e.Term, &e.Severity, &e.OrganSystem,
			&e.AssessmentType, &e.NumEvents, &e.NumAffected, &e.NumAtRisk, &e.Notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan adverse event")
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: adverse events iterate")
}

func (s *SQLiteStore) OutcomeMeasuresWithGroups(ctx context.Context, studyID string) ([]model.MeasureWithGroup, error) {
	rows, err := s.db.QueryContext(ctx, rebind(measuresWithGroupsSQL), studyID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: outcome measures")
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
			return nil, eris.Wrap(err, "sqlite: scan outcome measure")
		}
		out = append(out, mg)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: outcome measures iterate")
}

func (s *SQLiteStore) SaveVisualization(ctx context.Context, studyID string, data []byte) error {
	_, err := s.db.ExecContext(ctx, rebind(saveVisualizationSQL),
		studyID, string(data), time.Now().UTC())
	return eris.Wrapf(err, "sqlite: save visualization %s", studyID)
}

func (s *SQLiteStore) GetVisualization(ctx context.Context, studyID string) (*model.VisualizationDocument, error) {
	var doc model.VisualizationDocument
	var data string
	err := s.db.QueryRowContext(ctx, rebind(getVisualizationSQL), studyID).
		Scan(&doc.StudyID, &data, &doc.GeneratedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get visualization %s", studyID)
	}
	doc.Data = []byte(data)
	return &doc, nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, kind model.RunKind) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, rebind(insertRunSQL),
		run.ID, string(run.Kind), string(run.Status),
		run.StudiesTotal, run.StudiesOK, run.StudiesFailed, run.StudiesSkipped,
		run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, run *model.Run) error {
	if run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}
	res, err := s.db.ExecContext(ctx, rebind(finishRunSQL),
		string(run.Status), run.StudiesTotal, run.StudiesOK, run.StudiesFailed,
		run.StudiesSkipped, run.FinishedAt, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", run.ID)
	}
	return checkRowsAffected(res, "run", run.ID)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s", entity)
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

// sqStudyTx implements StudyTx over a database/sql transaction.
type sqStudyTx struct {
	tx *sql.Tx
}

func (t *sqStudyTx) exec(ctx context.Context, op, query string, args ...any) error {
	_, err := t.tx.ExecContext(ctx, rebind(query), args...)
	return eris.Wrapf(err, "sqlite: %s", op)
}

func (t *sqStudyTx) UpsertStudy(ctx context.Context, st model.Study) error {
	return t.exec(ctx, "upsert study", upsertStudySQL, studyArgs(st)...)
}

func (t *sqStudyTx) UpsertCondition(ctx context.Context, studyID, condition string) error {
	return t.exec(ctx, "upsert condition", upsertConditionSQL, studyID, condition)
}

func (t *sqStudyTx) UpsertKeyword(ctx context.Context, studyID, keyword string) error {
	return t.exec(ctx, "upsert keyword", upsertKeywordSQL, studyID, keyword)
}

func (t *sqStudyTx) UpsertPhase(ctx context.Context, studyID, phase string) error {
	return t.exec(ctx, "upsert phase", upsertPhaseSQL, studyID, phase)
}

func (t *sqStudyTx) UpsertArm(ctx context.Context, a model.Arm) error {
	return t.exec(ctx, "upsert arm", upsertArmSQL, a.StudyID, a.ID, a.Label, a.Type, a.Description)
}

func (t *sqStudyTx) UpsertIntervention(ctx context.Context, iv model.Intervention) error {
	return t.exec(ctx, "upsert intervention", upsertInterventionSQL,
		iv.StudyID, iv.ID, iv.Name, iv.Description, iv.Type)
}

func (t *sqStudyTx) UpsertOutcome(ctx context.Context, o model.Outcome) error {
	return t.exec(ctx, "upsert outcome", upsertOutcomeSQL,
		o.StudyID, o.ID, string(o.Type), o.Measure, o.TimeFrame)
}

func (t *sqStudyTx) UpsertOutcomeGroup(ctx context.Context, g model.OutcomeGroup) error {
	return t.exec(ctx, "upsert outcome group", upsertOutcomeGroupSQL,
		g.StudyID, g.ID, g.Title, g.Description, g.Size)
}

func (t *sqStudyTx) UpsertOutcomeMeasure(ctx context.Context, m model.OutcomeMeasure) error {
	return t.exec(ctx, "upsert outcome measure", upsertOutcomeMeasureSQL,
		m.StudyID, m.GroupStudyID, m.GroupID, m.MeasureTitle, m.ClassTitle,
		m.Description, m.TimeFrame, m.Type, m.PopulationDescription, m.ReportingStatus,
		m.ParamType, m.DispersionType, m.UnitOfMeasure, m.Value, m.LowerLimit, m.UpperLimit)
}

func (t *sqStudyTx) UpsertAdverseEventGroup(ctx context.Context, g model.AdverseEventGroup) error {
	return t.exec(ctx, "upsert adverse event group", upsertAdverseEventGroupSQL,
		g.StudyID, g.ID, g.Title, g.Description,
		g.SeriousNumAffected, g.SeriousNumAtRisk, g.OtherNumAffected, g.OtherNumAtRisk)
}

func (t *sqStudyTx) UpsertAdverseEvent(ctx context.Context, e model.AdverseEvent) error {
	return t.exec(ctx, "upsert adverse event", upsertAdverseEventSQL,
		e.StudyID, e.GroupID, e.Term, e.Severity, e.OrganSystem,
		e.AssessmentType, e.NumEvents, e.NumAffected, e.NumAtRisk, e.Notes)
}

func (t *sqStudyTx) UpsertContact(ctx context.Context, c model.Contact) error {
	return t.exec(ctx, "upsert contact", upsertContactSQL,
		c.StudyID, c.Name, c.Role, c.Organization)
}

func (t *sqStudyTx) UpsertParticipantGroup(ctx context.Context, g model.ParticipantGroup) error {
	return t.exec(ctx, "upsert participant group", upsertParticipantGroupSQL,
		g.StudyID, g.ID, g.Title, g.Description)
}

func (t *sqStudyTx) UpsertParticipantDemographic(ctx context.Context, d model.ParticipantDemographic) error {
	return t.exec(ctx, "upsert participant demographic", upsertParticipantDemographicSQL,
		d.StudyID, d.GroupID, d.MeasureTitle, d.ParamType, d.DispersionType,
		d.UnitOfMeasure, d.Category, d.Value, d.Spread)
}

func (t *sqStudyTx) UpsertParticipantStatistic(ctx context.Context, st model.ParticipantStatistic) error {
	return t.exec(ctx, "upsert participant statistic", upsertParticipantStatisticSQL,
		st.StudyID, st.GroupID, st.MeasureTitle, st.ParamType, st.DispersionType,
		st.UnitOfMeasure, st.Value, st.Spread)
}

func (t *sqStudyTx) UpsertParticipantDenom(ctx context.Context, d model.ParticipantDenom) error {
	return t.exec(ctx, "upsert participant denom", upsertParticipantDenomSQL,
		d.StudyID, d.GroupID, d.Units, d.Count)
}

func (t *sqStudyTx) UpsertTimeSeriesPoint(ctx context.Context, p model.TimeSeriesPoint) error {
	return t.exec(ctx, "upsert time series point", upsertTimeSeriesPointSQL,
		p.StudyID, p.OutcomeID, p.GroupID, p.TimeFrame, p.Value, p.LowerLimit, p.UpperLimit)
}

func (t *sqStudyTx) MarkProcessed(ctx context.Context, studyID string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, rebind(markProcessedSQL), at, studyID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark processed %s", studyID)
	}
	return checkRowsAffected(res, "study", studyID)
}

func (t *sqStudyTx) Commit(ctx context.Context) error {
	return eris.Wrap(t.tx.Commit(), "sqlite: commit")
}

func (t *sqStudyTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return eris.Wrap(err, "sqlite: rollback")
	}
	return nil
}

package store

// SQL shared by both backends. Statements use strictly sequential $N
// placeholders so the SQLite backend can rebind them to ?. Conflict targets
// are the composite natural keys from the schema; re-running a statement
// with the same key is a field-level merge.

const upsertStudySQL = `
INSERT INTO studies (study_id, brief_title, official_title, overall_status, start_date,
                     completion_date, primary_completion_date, has_results, organization, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (study_id) DO UPDATE SET
  brief_title = EXCLUDED.brief_title,
  official_title = EXCLUDED.official_title,
  overall_status = EXCLUDED.overall_status,
  start_date = EXCLUDED.start_date,
  completion_date = EXCLUDED.completion_date,
  primary_completion_date = EXCLUDED.primary_completion_date,
  has_results = EXCLUDED.has_results,
  organization = EXCLUDED.organization,
  description = EXCLUDED.description`

// seedStudySQL fills only missing fields on conflict: discovery listings are
// thinner than detail documents and must not clobber hydrated rows.
const seedStudySQL = `
INSERT INTO studies (study_id, brief_title, official_title, overall_status, start_date,
                     completion_date, primary_completion_date, has_results, organization, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (study_id) DO UPDATE SET
  brief_title = CASE WHEN studies.brief_title = '' THEN EXCLUDED.brief_title ELSE studies.brief_title END,
  official_title = COALESCE(studies.official_title, EXCLUDED.official_title),
  overall_status = COALESCE(studies.overall_status, EXCLUDED.overall_status),
  start_date = COALESCE(studies.start_date, EXCLUDED.start_date),
  completion_date = COALESCE(studies.completion_date, EXCLUDED.completion_date),
  primary_completion_date = COALESCE(studies.primary_completion_date, EXCLUDED.primary_completion_date),
  has_results = (studies.has_results OR EXCLUDED.has_results),
  organization = COALESCE(studies.organization, EXCLUDED.organization),
  description = COALESCE(studies.description, EXCLUDED.description)`

const studyColumns = `study_id, brief_title, official_title, overall_status, start_date,
       completion_date, primary_completion_date, has_results, organization, description, processed_at`

const getStudySQL = `SELECT ` + studyColumns + ` FROM studies WHERE study_id = $1`

const listPendingSQL = `SELECT ` + studyColumns + ` FROM studies WHERE processed_at IS NULL ORDER BY study_id`

const listProcessedSQL = `SELECT ` + studyColumns + ` FROM studies WHERE processed_at IS NOT NULL ORDER BY study_id`

const countStudiesSQL = `SELECT COUNT(*), COUNT(processed_at) FROM studies`

const markProcessedSQL = `UPDATE studies SET processed_at = $1 WHERE study_id = $2`

const upsertConditionSQL = `
INSERT INTO study_conditions (study_id, condition) VALUES ($1, $2)
ON CONFLICT (study_id, condition) DO NOTHING`

const upsertKeywordSQL = `
INSERT INTO study_keywords (study_id, keyword) VALUES ($1, $2)
ON CONFLICT (study_id, keyword) DO NOTHING`

const upsertPhaseSQL = `
INSERT INTO study_phases (study_id, phase) VALUES ($1, $2)
ON CONFLICT (study_id, phase) DO NOTHING`

const upsertArmSQL = `
INSERT INTO study_arms (study_id, id, label, type, description)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (study_id, id) DO UPDATE SET
  label = EXCLUDED.label, type = EXCLUDED.type, description = EXCLUDED.description`

const upsertInterventionSQL = `
INSERT INTO interventions (study_id, id, name, description, type)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (study_id, id) DO UPDATE SET
  name = EXCLUDED.name, description = EXCLUDED.description, type = EXCLUDED.type`

const upsertOutcomeSQL = `
INSERT INTO outcomes (study_id, id, type, measure, time_frame)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (study_id, id) DO UPDATE SET
  type = EXCLUDED.type, measure = EXCLUDED.measure, time_frame = EXCLUDED.time_frame`

const upsertOutcomeGroupSQL = `
INSERT INTO outcome_groups (study_id, id, title, description, size)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (study_id, id) DO UPDATE SET
  title = EXCLUDED.title, description = EXCLUDED.description, size = EXCLUDED.size`

const upsertOutcomeMeasureSQL = `
INSERT INTO outcome_measures (study_id, group_study_id, group_id, measure_title, class_title,
                              description, time_frame, type, population_description, reporting_status,
                              param_type, dispersion_type, unit_of_measure, value, lower_limit, upper_limit)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (group_study_id, group_id, measure_title, class_title) DO UPDATE SET
  study_id = EXCLUDED.study_id,
  description = EXCLUDED.description,
  time_frame = EXCLUDED.time_frame,
  type = EXCLUDED.type,
  population_description = EXCLUDED.population_description,
  reporting_status = EXCLUDED.reporting_status,
  param_type = EXCLUDED.param_type,
  dispersion_type = EXCLUDED.dispersion_type,
  unit_of_measure = EXCLUDED.unit_of_measure,
  value = EXCLUDED.value,
  lower_limit = EXCLUDED.lower_limit,
  upper_limit = EXCLUDED.upper_limit`

const upsertAdverseEventGroupSQL = `
INSERT INTO adverse_event_groups (study_id, id, title, description, serious_num_affected,
                                  serious_num_at_risk, other_num_affected, other_num_at_risk)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (study_id, id) DO UPDATE SET
  title = EXCLUDED.title,
  description = EXCLUDED.description,
  serious_num_affected = EXCLUDED.serious_num_affected,
  serious_num_at_risk = EXCLUDED.serious_num_at_risk,
  other_num_affected = EXCLUDED.other_num_affected,
  other_num_at_risk = EXCLUDED.other_num_at_risk`

const upsertAdverseEventSQL = `
INSERT INTO adverse_events (study_id, group_id, term, severity, organ_system,
                            assessment_type, num_events, num_affected, num_at_risk, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (study_id, group_id, term, severity) DO UPDATE SET
  organ_system = EXCLUDED.organ_system,
  assessment_type = EXCLUDED.assessment_type,
  num_events = EXCLUDED.num_events,
  num_affected = EXCLUDED.num_affected,
  num_at_risk = EXCLUDED.num_at_risk,
  notes = EXCLUDED.notes`

const upsertContactSQL = `
INSERT INTO contacts (study_id, name, role, organization)
VALUES ($1, $2, $3, $4)
ON CONFLICT (study_id, name) DO UPDATE SET
  role = EXCLUDED.role, organization = EXCLUDED.organization`

const upsertParticipantGroupSQL = `
INSERT INTO participant_groups (study_id, id, title, description)
VALUES ($1, $2, $3, $4)
ON CONFLICT (study_id, id) DO UPDATE SET
  title = EXCLUDED.title, description = EXCLUDED.description`

const upsertParticipantDemographicSQL = `
INSERT INTO participant_demographics (study_id, group_id, measure_title, param_type, dispersion_type,
                                      unit_of_measure, category, value, spread)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (study_id, group_id, measure_title, param_type, dispersion_type, unit_of_measure, category)
DO UPDATE SET value = EXCLUDED.value, spread = EXCLUDED.spread`

const upsertParticipantStatisticSQL = `
INSERT INTO participant_statistics (study_id, group_id, measure_title, param_type, dispersion_type,
                                    unit_of_measure, value, spread)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (study_id, group_id, measure_title, param_type, dispersion_type)
DO UPDATE SET unit_of_measure = EXCLUDED.unit_of_measure, value = EXCLUDED.value, spread = EXCLUDED.spread`

const upsertParticipantDenomSQL = `
INSERT INTO participant_denoms (study_id, group_id, units, count)
VALUES ($1, $2, $3, $4)
ON CONFLICT (study_id, group_id) DO UPDATE SET
  units = EXCLUDED.units, count = EXCLUDED.count`

const upsertTimeSeriesPointSQL = `
INSERT INTO time_series_points (study_id, outcome_id, group_id, time_frame, value, lower_limit, upper_limit)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (study_id, outcome_id, group_id, time_frame) DO UPDATE SET
  value = EXCLUDED.value, lower_limit = EXCLUDED.lower_limit, upper_limit = EXCLUDED.upper_limit`

const participantGroupsSQL = `
SELECT study_id, id, title, description FROM participant_groups WHERE study_id = $1 ORDER BY id`

const participantStatisticsSQL = `
SELECT study_id, group_id, measure_title, param_type, dispersion_type, unit_of_measure, value, spread
FROM participant_statistics WHERE study_id = $1 ORDER BY group_id, measure_title`

const adverseEventsSQL = `
SELECT study_id, group_id, term, severity, organ_system, assessment_type,
       num_events, num_affected, num_at_risk, notes
FROM adverse_events WHERE study_id = $1 ORDER BY group_id, term`

const measuresWithGroupsSQL = `
SELECT m.study_id, m.group_study_id, m.group_id, m.measure_title, m.class_title,
       m.description, m.time_frame, m.type, m.population_description, m.reporting_status,
       m.param_type, m.dispersion_type, m.unit_of_measure, m.value, m.lower_limit, m.upper_limit,
       COALESCE(g.title, '')
FROM outcome_measures m
JOIN outcome_groups g ON g.study_id = m.group_study_id AND g.id = m.group_id
WHERE m.study_id = $1
ORDER BY m.measure_title, g.title, m.class_title`

const saveVisualizationSQL = `
INSERT INTO visualization_documents (study_id, data, generated_at)
VALUES ($1, $2, $3)
ON CONFLICT (study_id) DO UPDATE SET
  data = EXCLUDED.data, generated_at = EXCLUDED.generated_at`

const getVisualizationSQL = `
SELECT study_id, data, generated_at FROM visualization_documents WHERE study_id = $1`

const insertRunSQL = `
INSERT INTO etl_runs (id, kind, status, studies_total, studies_ok, studies_failed, studies_skipped, started_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const finishRunSQL = `
UPDATE etl_runs SET status = $1, studies_total = $2, studies_ok = $3, studies_failed = $4,
       studies_skipped = $5, finished_at = $6
WHERE id = $7`

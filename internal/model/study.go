// Package model defines the relational entities produced by the ETL
// pipeline. Every child entity carries its owning study id and a natural
// key so that upserts are idempotent merges rather than appends.
package model

import (
	"encoding/json"
	"time"
)

// Study is one registered clinical trial, keyed by its registry id (nctId).
// ProcessedAt is nil until the reconciliation pass has committed; it drives
// the pending/processed queue.
type Study struct {
	StudyID               string     `json:"study_id"`
	BriefTitle            string     `json:"brief_title"`
	OfficialTitle         *string    `json:"official_title,omitempty"`
	OverallStatus         *string    `json:"overall_status,omitempty"`
	StartDate             *time.Time `json:"start_date,omitempty"`
	CompletionDate        *time.Time `json:"completion_date,omitempty"`
	PrimaryCompletionDate *time.Time `json:"primary_completion_date,omitempty"`
	HasResults            bool       `json:"has_results"`
	Organization          *string    `json:"organization,omitempty"`
	Description           *string    `json:"description,omitempty"`
	ProcessedAt           *time.Time `json:"processed_at,omitempty"`
}

// Pending reports whether the study still needs a reconciliation pass.
func (s Study) Pending() bool { return s.ProcessedAt == nil }

// Arm is a study arm group. ID falls back to the label when the registry
// provides no id.
type Arm struct {
	StudyID     string  `json:"study_id"`
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Type        *string `json:"type,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Intervention is a drug/procedure tested by a study. ID falls back to the
// intervention name.
type Intervention struct {
	StudyID     string  `json:"study_id"`
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
}

// OutcomeType tags an outcome as primary or secondary.
type OutcomeType string

const (
	OutcomePrimary   OutcomeType = "PRIMARY"
	OutcomeSecondary OutcomeType = "SECONDARY"
)

// Outcome is a declared study outcome. ID falls back to the measure text.
type Outcome struct {
	StudyID   string      `json:"study_id"`
	ID        string      `json:"id"`
	Type      OutcomeType `json:"type"`
	Measure   string      `json:"measure"`
	TimeFrame *string     `json:"time_frame,omitempty"`
}

// OutcomeGroup is a reported-results group referenced by outcome measures.
type OutcomeGroup struct {
	StudyID     string  `json:"study_id"`
	ID          string  `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Size        *int    `json:"size,omitempty"`
}

// OutcomeMeasure is one measured value for an outcome group. GroupStudyID is
// a denormalized copy of the study id under which the referenced group was
// recorded; the measure→group join runs on (GroupStudyID, GroupID), not on
// the measure's own StudyID.
type OutcomeMeasure struct {
	StudyID               string   `json:"study_id"`
	GroupStudyID          string   `json:"group_study_id"`
	GroupID               string   `json:"group_id"`
	MeasureTitle          string   `json:"measure_title"`
	ClassTitle            string   `json:"class_title"`
	Description           *string  `json:"description,omitempty"`
	TimeFrame             *string  `json:"time_frame,omitempty"`
	Type                  *string  `json:"type,omitempty"`
	PopulationDescription *string  `json:"population_description,omitempty"`
	ReportingStatus       *string  `json:"reporting_status,omitempty"`
	ParamType             *string  `json:"param_type,omitempty"`
	DispersionType        *string  `json:"dispersion_type,omitempty"`
	UnitOfMeasure         *string  `json:"unit_of_measure,omitempty"`
	Value                 *float64 `json:"value,omitempty"`
	LowerLimit            *float64 `json:"lower_limit,omitempty"`
	UpperLimit            *float64 `json:"upper_limit,omitempty"`
}

// AdverseEventGroup aggregates adverse-event counts for one results group.
type AdverseEventGroup struct {
	StudyID            string  `json:"study_id"`
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Description        *string `json:"description,omitempty"`
	SeriousNumAffected *int    `json:"serious_num_affected,omitempty"`
	SeriousNumAtRisk   *int    `json:"serious_num_at_risk,omitempty"`
	OtherNumAffected   *int    `json:"other_num_affected,omitempty"`
	OtherNumAtRisk     *int    `json:"other_num_at_risk,omitempty"`
}

// AdverseEvent is one reported adverse-event term within a group.
type AdverseEvent struct {
	StudyID        string  `json:"study_id"`
	GroupID        string  `json:"group_id"`
	Term           string  `json:"term"`
	Severity       string  `json:"severity"`
	OrganSystem    *string `json:"organ_system,omitempty"`
	AssessmentType *string `json:"assessment_type,omitempty"`
	NumEvents      *int    `json:"num_events,omitempty"`
	NumAffected    *int    `json:"num_affected,omitempty"`
	NumAtRisk      *int    `json:"num_at_risk,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// Contact is an overall official listed for a study.
type Contact struct {
	StudyID      string  `json:"study_id"`
	Name         string  `json:"name"`
	Role         *string `json:"role,omitempty"`
	Organization *string `json:"organization,omitempty"`
}

// ParticipantGroup is a baseline-characteristics group.
type ParticipantGroup struct {
	StudyID     string  `json:"study_id"`
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// ParticipantDemographic is one baseline measurement with its category
// (e.g. Age × Female). Key columns are empty strings rather than NULLs so
// they can participate in the composite primary key.
type ParticipantDemographic struct {
	StudyID        string   `json:"study_id"`
	GroupID        string   `json:"group_id"`
	MeasureTitle   string   `json:"measure_title"`
	ParamType      string   `json:"param_type"`
	DispersionType string   `json:"dispersion_type"`
	UnitOfMeasure  string   `json:"unit_of_measure"`
	Category       string   `json:"category"`
	Value          *float64 `json:"value,omitempty"`
	Spread         *float64 `json:"spread,omitempty"`
}

// ParticipantStatistic is a baseline measurement without category breakdown.
type ParticipantStatistic struct {
	StudyID        string   `json:"study_id"`
	GroupID        string   `json:"group_id"`
	MeasureTitle   string   `json:"measure_title"`
	ParamType      string   `json:"param_type"`
	DispersionType string   `json:"dispersion_type"`
	UnitOfMeasure  *string  `json:"unit_of_measure,omitempty"`
	Value          *float64 `json:"value,omitempty"`
	Spread         *float64 `json:"spread,omitempty"`
}

// ParticipantDenom is the participant denominator for one group.
type ParticipantDenom struct {
	StudyID string  `json:"study_id"`
	GroupID string  `json:"group_id"`
	Units   *string `json:"units,omitempty"`
	Count   *int    `json:"count,omitempty"`
}

// TimeSeriesPoint is one derived time-series value for an outcome/group.
type TimeSeriesPoint struct {
	StudyID    string   `json:"study_id"`
	OutcomeID  string   `json:"outcome_id"`
	GroupID    string   `json:"group_id"`
	TimeFrame  string   `json:"time_frame"`
	Value      *float64 `json:"value,omitempty"`
	LowerLimit *float64 `json:"lower_limit,omitempty"`
	UpperLimit *float64 `json:"upper_limit,omitempty"`
}

// VisualizationDocument is the denormalized per-study summary blob. It is a
// regenerable cache over relational state, replaced wholesale on rebuild.
type VisualizationDocument struct {
	StudyID     string          `json:"study_id"`
	Data        json.RawMessage `json:"data"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// MeasureWithGroup pairs an outcome measure with the title of its owning
// group, joined on (group_study_id, group_id).
type MeasureWithGroup struct {
	Measure    OutcomeMeasure `json:"measure"`
	GroupTitle string         `json:"group_title"`
}

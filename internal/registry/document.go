package registry

// Document is a full study record from GET /studies/{id}. Fields the
// pipeline reads deterministically are typed; fragments that feed the field
// reconciler stay as raw maps so irregular shapes survive decoding.
type Document struct {
	ProtocolSection ProtocolSection `json:"protocolSection"`
	ResultsSection  ResultsSection  `json:"resultsSection"`
	HasResults      bool            `json:"hasResults"`
}

// Fragment is an untyped sub-object destined for the field reconciler.
type Fragment = map[string]any

type ProtocolSection struct {
	IdentificationModule    IdentificationModule    `json:"identificationModule"`
	StatusModule            StatusModule            `json:"statusModule"`
	DescriptionModule       DescriptionModule       `json:"descriptionModule"`
	ConditionsModule        ConditionsModule        `json:"conditionsModule"`
	DesignModule            DesignModule            `json:"designModule"`
	ArmsInterventionsModule ArmsInterventionsModule `json:"armsInterventionsModule"`
	OutcomesModule          OutcomesModule          `json:"outcomesModule"`
	ContactsLocationsModule ContactsLocationsModule `json:"contactsLocationsModule"`
	SponsorModule           SponsorModule           `json:"sponsorCollaboratorsModule"`
}

type IdentificationModule struct {
	NCTID         string       `json:"nctId"`
	BriefTitle    string       `json:"briefTitle"`
	OfficialTitle string       `json:"officialTitle"`
	Organization  Organization `json:"organization"`
}

type Organization struct {
	FullName string `json:"fullName"`
}

type StatusModule struct {
	OverallStatus         string     `json:"overallStatus"`
	StartDate             DateStruct `json:"startDateStruct"`
	CompletionDate        DateStruct `json:"completionDateStruct"`
	PrimaryCompletionDate DateStruct `json:"primaryCompletionDateStruct"`
}

type DateStruct struct {
	Date string `json:"date"`
}

type DescriptionModule struct {
	BriefSummary        string `json:"briefSummary"`
	DetailedDescription string `json:"detailedDescription"`
}

type ConditionsModule struct {
	Conditions []string `json:"conditions"`
	Keywords   []string `json:"keywords"`
}

type DesignModule struct {
	Phases []string `json:"phases"`
}

type ArmsInterventionsModule struct {
	ArmGroups     []Fragment `json:"armGroups"`
	Interventions []Fragment `json:"interventions"`
}

type OutcomesModule struct {
	PrimaryOutcomes   []Fragment `json:"primaryOutcomes"`
	SecondaryOutcomes []Fragment `json:"secondaryOutcomes"`
}

type ContactsLocationsModule struct {
	OverallOfficials []Fragment `json:"overallOfficials"`
}

type SponsorModule struct {
	LeadSponsor LeadSponsor `json:"leadSponsor"`
}

type LeadSponsor struct {
	Name string `json:"name"`
}

type ResultsSection struct {
	BaselineModule       BaselineModule       `json:"baselineCharacteristicsModule"`
	OutcomeMeasuresModule OutcomeMeasuresModule `json:"outcomeMeasuresModule"`
	AdverseEventsModule  AdverseEventsModule  `json:"adverseEventsModule"`
}

type BaselineModule struct {
	Groups   []Fragment        `json:"groups"`
	Denoms   []DenomFragment   `json:"denoms"`
	Measures []BaselineMeasure `json:"measures"`
}

type BaselineMeasure struct {
	Title          string          `json:"title"`
	ParamType      string          `json:"paramType"`
	DispersionType string          `json:"dispersionType"`
	UnitOfMeasure  string          `json:"unitOfMeasure"`
	Classes        []ClassFragment `json:"classes"`
}

type OutcomeMeasuresModule struct {
	OutcomeMeasures []OutcomeMeasureFragment `json:"outcomeMeasures"`
}

// OutcomeMeasureFragment is one reported outcome measure. Its time-series
// values live in exactly one of two alternative substructures: the
// classes→categories→measurements tree or the denoms→counts tree.
type OutcomeMeasureFragment struct {
	ID                    string          `json:"id"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	TimeFrame             string          `json:"timeFrame"`
	Type                  string          `json:"type"`
	PopulationDescription string          `json:"populationDescription"`
	ReportingStatus       string          `json:"reportingStatus"`
	ParamType             string          `json:"paramType"`
	DispersionType        string          `json:"dispersionType"`
	UnitOfMeasure         string          `json:"unitOfMeasure"`
	Groups                []GroupFragment `json:"groups"`
	Classes               []ClassFragment `json:"classes"`
	Denoms                []DenomFragment `json:"denoms"`
}

type GroupFragment struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ClassFragment struct {
	Title      string             `json:"title"`
	Categories []CategoryFragment `json:"categories"`
}

type CategoryFragment struct {
	Title        string        `json:"title"`
	Measurements []Measurement `json:"measurements"`
}

// Measurement values arrive as strings in the registry payloads.
type Measurement struct {
	GroupID    string `json:"groupId"`
	Value      string `json:"value"`
	Spread     string `json:"spread"`
	LowerLimit string `json:"lowerLimit"`
	UpperLimit string `json:"upperLimit"`
}

type DenomFragment struct {
	Units  string       `json:"units"`
	Counts []DenomCount `json:"counts"`
}

type DenomCount struct {
	GroupID string `json:"groupId"`
	Value   string `json:"value"`
}

type AdverseEventsModule struct {
	EventGroups   []Fragment             `json:"eventGroups"`
	SeriousEvents []AdverseEventFragment `json:"seriousEvents"`
	OtherEvents   []AdverseEventFragment `json:"otherEvents"`
}

type AdverseEventFragment struct {
	Term           string      `json:"term"`
	OrganSystem    string      `json:"organSystem"`
	AssessmentType string      `json:"assessmentType"`
	Notes          string      `json:"notes"`
	Stats          []EventStat `json:"stats"`
}

type EventStat struct {
	GroupID     string `json:"groupId"`
	NumEvents   *int   `json:"numEvents"`
	NumAffected *int   `json:"numAffected"`
	NumAtRisk   *int   `json:"numAtRisk"`
}

// SeriesVariant identifies which substructure carries an outcome measure's
// time-series values.
type SeriesVariant int

const (
	SeriesNone SeriesVariant = iota
	SeriesClasses
	SeriesDenoms
)

// Series resolves the variant once per fragment. Classes wins when a payload
// carries both branches; the branches are never merged.
func (o *OutcomeMeasureFragment) Series() SeriesVariant {
	switch {
	case len(o.Classes) > 0:
		return SeriesClasses
	case len(o.Denoms) > 0:
		return SeriesDenoms
	default:
		return SeriesNone
	}
}

// StudyID returns the registry identifier of the document.
func (d *Document) StudyID() string {
	return d.ProtocolSection.IdentificationModule.NCTID
}

package reconcile

import (
	"context"
	"strconv"
	"strings"

	"github.com/panacea-health/trials-etl/internal/dates"
	"github.com/panacea-health/trials-etl/internal/model"
	"github.com/panacea-health/trials-etl/internal/registry"
)

// Transformer turns one registry document into entity upserts. Methods are
// pure with respect to their inputs; fragments that need the heuristic pass
// go through the embedded Reconciler.
type Transformer struct {
	rec *Reconciler
}

// NewTransformer builds a Transformer over the given Reconciler.
func NewTransformer(rec *Reconciler) *Transformer {
	return &Transformer{rec: rec}
}

// StudyFromDocument extracts the study row itself. All paths here are
// well-known, so no reconciliation is involved.
func StudyFromDocument(doc *registry.Document) model.Study {
	ident := doc.ProtocolSection.IdentificationModule
	status := doc.ProtocolSection.StatusModule
	desc := doc.ProtocolSection.DescriptionModule

	org := ident.Organization.FullName
	if org == "" {
		org = doc.ProtocolSection.SponsorModule.LeadSponsor.Name
	}

	return model.Study{
		StudyID:               ident.NCTID,
		BriefTitle:            ident.BriefTitle,
		OfficialTitle:         strOrNil(ident.OfficialTitle),
		OverallStatus:         strOrNil(status.OverallStatus),
		StartDate:             dates.Parse(status.StartDate.Date),
		CompletionDate:        dates.Parse(status.CompletionDate.Date),
		PrimaryCompletionDate: dates.Parse(status.PrimaryCompletionDate.Date),
		HasResults:            doc.HasResults,
		Organization:          strOrNil(org),
		Description:           strOrNil(desc.BriefSummary),
	}
}

// Conditions lists the study's condition terms.
func Conditions(doc *registry.Document) []string {
	return doc.ProtocolSection.ConditionsModule.Conditions
}

// Keywords lists the study's keyword terms.
func Keywords(doc *registry.Document) []string {
	return doc.ProtocolSection.ConditionsModule.Keywords
}

// Phases lists the study's trial phases.
func Phases(doc *registry.Document) []string {
	return doc.ProtocolSection.DesignModule.Phases
}

// Arms extracts study arms. Fragments missing a label go through the
// heuristic pass; the arm id falls back to the label when absent.
func (t *Transformer) Arms(ctx context.Context, doc *registry.Document, studyID string) []model.Arm {
	var arms []model.Arm
	for _, frag := range doc.ProtocolSection.ArmsInterventionsModule.ArmGroups {
		m := t.rec.Map(ctx, armSchema, frag, studyID)
		label := m.Str("label")
		if label == nil {
			continue
		}
		arms = append(arms, model.Arm{
			StudyID:     studyID,
			ID:          m.StrOr("id", *label),
			Label:       *label,
			Type:        m.Str("type"),
			Description: m.Str("description"),
		})
	}
	return arms
}

// Interventions extracts interventions; the id falls back to the name.
func (t *Transformer) Interventions(ctx context.Context, doc *registry.Document, studyID string) []model.Intervention {
	var out []model.Intervention
	for _, frag := range doc.ProtocolSection.ArmsInterventionsModule.Interventions {
		m := t.rec.Map(ctx, interventionSchema, frag, studyID)
		name := m.Str("name")
		if name == nil {
			continue
		}
		out = append(out, model.Intervention{
			StudyID:     studyID,
			ID:          m.StrOr("id", *name),
			Name:        *name,
			Description: m.Str("description"),
			Type:        m.Str("type"),
		})
	}
	return out
}

// Outcomes extracts primary and secondary declared outcomes; the id falls
// back to the measure text.
func (t *Transformer) Outcomes(ctx context.Context, doc *registry.Document, studyID string) []model.Outcome {
	var out []model.Outcome
	collect := func(frags []registry.Fragment, typ model.OutcomeType) {
		for _, frag := range frags {
			m := t.rec.Map(ctx, outcomeSchema, frag, studyID)
			measure := m.Str("measure")
			if measure == nil {
				continue
			}
			out = append(out, model.Outcome{
				StudyID:   studyID,
				ID:        m.StrOr("id", *measure),
				Type:      typ,
				Measure:   *measure,
				TimeFrame: m.Str("time_frame"),
			})
		}
	}
	collect(doc.ProtocolSection.OutcomesModule.PrimaryOutcomes, model.OutcomePrimary)
	collect(doc.ProtocolSection.OutcomesModule.SecondaryOutcomes, model.OutcomeSecondary)
	return out
}

// Contacts extracts the overall officials.
func (t *Transformer) Contacts(ctx context.Context, doc *registry.Document, studyID string) []model.Contact {
	var out []model.Contact
	for _, frag := range doc.ProtocolSection.ContactsLocationsModule.OverallOfficials {
		m := t.rec.Map(ctx, contactSchema, frag, studyID)
		name := m.Str("name")
		if name == nil {
			continue
		}
		out = append(out, model.Contact{
			StudyID:      studyID,
			Name:         *name,
			Role:         m.Str("role"),
			Organization: m.Str("organization"),
		})
	}
	return out
}

// AdverseEventGroups extracts reported adverse-event groups.
func (t *Transformer) AdverseEventGroups(ctx context.Context, doc *registry.Document, studyID string) []model.AdverseEventGroup {
	var out []model.AdverseEventGroup
	for _, frag := range doc.ResultsSection.AdverseEventsModule.EventGroups {
		m := t.rec.Map(ctx, adverseEventGroupSchema, frag, studyID)
		id := m.Str("id")
		if id == nil {
			continue
		}
		out = append(out, model.AdverseEventGroup{
			StudyID:            studyID,
			ID:                 *id,
			Title:              m.StrOr("title", ""),
			Description:        m.Str("description"),
			SeriousNumAffected: m.Int("serious_num_affected"),
			SeriousNumAtRisk:   m.Int("serious_num_at_risk"),
			OtherNumAffected:   m.Int("other_num_affected"),
			OtherNumAtRisk:     m.Int("other_num_at_risk"),
		})
	}
	return out
}

// ParticipantGroups extracts baseline-characteristics groups.
func (t *Transformer) ParticipantGroups(ctx context.Context, doc *registry.Document, studyID string) []model.ParticipantGroup {
	var out []model.ParticipantGroup
	for _, frag := range doc.ResultsSection.BaselineModule.Groups {
		m := t.rec.Map(ctx, participantGroupSchema, frag, studyID)
		id := m.Str("id")
		if id == nil {
			continue
		}
		out = append(out, model.ParticipantGroup{
			StudyID:     studyID,
			ID:          *id,
			Title:       m.StrOr("title", ""),
			Description: m.Str("description"),
		})
	}
	return out
}

// AdverseEvents flattens the serious and other event lists, one row per
// (term, group) stat line.
func AdverseEvents(doc *registry.Document, studyID string) []model.AdverseEvent {
	var out []model.AdverseEvent
	collect := func(events []registry.AdverseEventFragment, severity string) {
		for _, ev := range events {
			for _, stat := range ev.Stats {
				out = append(out, model.AdverseEvent{
					StudyID:        studyID,
					GroupID:        stat.GroupID,
					Term:           ev.Term,
					Severity:       severity,
					OrganSystem:    strOrNil(ev.OrganSystem),
					AssessmentType: strOrNil(ev.AssessmentType),
					NumEvents:      stat.NumEvents,
					NumAffected:    stat.NumAffected,
					NumAtRisk:      stat.NumAtRisk,
					Notes:          strOrNil(ev.Notes),
				})
			}
		}
	}
	collect(doc.ResultsSection.AdverseEventsModule.SeriousEvents, "SERIOUS")
	collect(doc.ResultsSection.AdverseEventsModule.OtherEvents, "OTHER")
	return out
}

// ParticipantStatistics flattens baseline measures without their category
// breakdown.
func ParticipantStatistics(doc *registry.Document, studyID string) []model.ParticipantStatistic {
	var out []model.ParticipantStatistic
	for _, measure := range doc.ResultsSection.BaselineModule.Measures {
		for _, class := range measure.Classes {
			for _, cat := range class.Categories {
				for _, meas := range cat.Measurements {
					out = append(out, model.ParticipantStatistic{
						StudyID:        studyID,
						GroupID:        meas.GroupID,
						MeasureTitle:   measure.Title,
						ParamType:      measure.ParamType,
						DispersionType: measure.DispersionType,
						UnitOfMeasure:  strOrNil(measure.UnitOfMeasure),
						Value:          parseFloatPtr(meas.Value),
						Spread:         parseFloatPtr(meas.Spread),
					})
				}
			}
		}
	}
	return out
}

// ParticipantDemographics flattens baseline measures keyed by category
// (e.g. Age × Female).
func ParticipantDemographics(doc *registry.Document, studyID string) []model.ParticipantDemographic {
	var out []model.ParticipantDemographic
	for _, measure := range doc.ResultsSection.BaselineModule.Measures {
		for _, class := range measure.Classes {
			for _, cat := range class.Categories {
				for _, meas := range cat.Measurements {
					out = append(out, model.ParticipantDemographic{
						StudyID:        studyID,
						GroupID:        meas.GroupID,
						MeasureTitle:   measure.Title,
						ParamType:      measure.ParamType,
						DispersionType: measure.DispersionType,
						UnitOfMeasure:  measure.UnitOfMeasure,
						Category:       cat.Title,
						Value:          parseFloatPtr(meas.Value),
						Spread:         parseFloatPtr(meas.Spread),
					})
				}
			}
		}
	}
	return out
}

// ParticipantDenoms flattens the baseline participant denominators.
func ParticipantDenoms(doc *registry.Document, studyID string) []model.ParticipantDenom {
	var out []model.ParticipantDenom
	for _, denom := range doc.ResultsSection.BaselineModule.Denoms {
		for _, count := range denom.Counts {
			out = append(out, model.ParticipantDenom{
				StudyID: studyID,
				GroupID: count.GroupID,
				Units:   strOrNil(denom.Units),
				Count:   parseIntPtr(count.Value),
			})
		}
	}
	return out
}

// OutcomeGroups collects the reported-results groups referenced by outcome
// measures, sizing each group from the measure's denominator counts. Groups
// repeated across measures are deduplicated by id, last occurrence winning.
func OutcomeGroups(doc *registry.Document, studyID string) []model.OutcomeGroup {
	byID := map[string]model.OutcomeGroup{}
	var order []string
	for _, frag := range doc.ResultsSection.OutcomeMeasuresModule.OutcomeMeasures {
		for _, group := range frag.Groups {
			var size *int
			for _, denom := range frag.Denoms {
				for _, count := range denom.Counts {
					if count.GroupID == group.ID {
						size = parseIntPtr(count.Value)
					}
				}
			}
			if _, seen := byID[group.ID]; !seen {
				order = append(order, group.ID)
			}
			byID[group.ID] = model.OutcomeGroup{
				StudyID:     studyID,
				ID:          group.ID,
				Title:       strOrNil(group.Title),
				Description: strOrNil(group.Description),
				Size:        size,
			}
		}
	}
	out := make([]model.OutcomeGroup, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

// OutcomeMeasures flattens the classes branch of each outcome measure, one
// row per (group, class) measurement. The group reference is scoped by the
// same study id the measure is written under.
func OutcomeMeasures(doc *registry.Document, studyID string) []model.OutcomeMeasure {
	var out []model.OutcomeMeasure
	for _, frag := range doc.ResultsSection.OutcomeMeasuresModule.OutcomeMeasures {
		for _, class := range frag.Classes {
			for _, cat := range class.Categories {
				for _, meas := range cat.Measurements {
					out = append(out, model.OutcomeMeasure{
						StudyID:               studyID,
						GroupStudyID:          studyID,
						GroupID:               meas.GroupID,
						MeasureTitle:          frag.Title,
						ClassTitle:            class.Title,
						Description:           strOrNil(frag.Description),
						TimeFrame:             strOrNil(frag.TimeFrame),
						Type:                  strOrNil(frag.Type),
						PopulationDescription: strOrNil(frag.PopulationDescription),
						ReportingStatus:       strOrNil(frag.ReportingStatus),
						ParamType:             strOrNil(frag.ParamType),
						DispersionType:        strOrNil(frag.DispersionType),
						UnitOfMeasure:         strOrNil(frag.UnitOfMeasure),
						Value:                 parseFloatPtr(meas.Value),
						LowerLimit:            parseFloatPtr(meas.LowerLimit),
						UpperLimit:            parseFloatPtr(meas.UpperLimit),
					})
				}
			}
		}
	}
	return out
}

// TimeSeries derives time-series points from each outcome measure. The two
// source branches are mutually exclusive: classes wins when both appear,
// denoms is the fallback, and a fragment with neither yields no points.
func TimeSeries(doc *registry.Document, studyID string) []model.TimeSeriesPoint {
	var out []model.TimeSeriesPoint
	for _, frag := range doc.ResultsSection.OutcomeMeasuresModule.OutcomeMeasures {
		outcomeID := frag.ID
		if outcomeID == "" {
			outcomeID = frag.Title
		}
		switch frag.Series() {
		case registry.SeriesClasses:
			for _, class := range frag.Classes {
				timeFrame := class.Title
				if timeFrame == "" {
					timeFrame = frag.TimeFrame
				}
				for _, cat := range class.Categories {
					for _, meas := range cat.Measurements {
						out = append(out, model.TimeSeriesPoint{
							StudyID:    studyID,
							OutcomeID:  outcomeID,
							GroupID:    meas.GroupID,
							TimeFrame:  timeFrame,
							Value:      parseFloatPtr(meas.Value),
							LowerLimit: parseFloatPtr(meas.LowerLimit),
							UpperLimit: parseFloatPtr(meas.UpperLimit),
						})
					}
				}
			}
		case registry.SeriesDenoms:
			for _, denom := range frag.Denoms {
				for _, count := range denom.Counts {
					out = append(out, model.TimeSeriesPoint{
						StudyID:   studyID,
						OutcomeID: outcomeID,
						GroupID:   count.GroupID,
						TimeFrame: frag.TimeFrame,
						Value:     parseFloatPtr(count.Value),
					})
				}
			}
		}
	}
	return out
}

func strOrNil(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func parseFloatPtr(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseIntPtr(s string) *int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &i
}

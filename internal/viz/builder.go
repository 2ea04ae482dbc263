// Package viz derives the denormalized per-study visualization documents
// from relational state. Documents are regenerable caches: each rebuild
// replaces the stored version wholesale.
package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/panacea-health/trials-etl/internal/model"
	"github.com/panacea-health/trials-etl/internal/store"
)

// Document is the wire shape consumed by the presentation layer.
type Document struct {
	StudyInfo     StudyInfo         `json:"studyInfo"`
	Participants  []ParticipantView `json:"participants"`
	Outcomes      []MetricChart     `json:"outcomes"`
	AdverseEvents AdverseSummary    `json:"adverse_events"`
}

// StudyInfo is the document header.
type StudyInfo struct {
	Title       string     `json:"title"`
	Institution *string    `json:"institution"`
	Dates       StudyDates `json:"dates"`
	Summary     *string    `json:"summary"`
}

// StudyDates carries year-month strings, null when unknown.
type StudyDates struct {
	Start      *string `json:"start"`
	Completion *string `json:"completion"`
}

// ParticipantView is one narrated participant-group row.
type ParticipantView struct {
	GroupName      string `json:"groupName"`
	Dosage         string `json:"dosage"`
	MedicationName string `json:"medicationName"`
	Size           *int   `json:"size"`
	Description    string `json:"description"`
}

// MetricChart is one outcome metric prepared for a grouped bar chart.
type MetricChart struct {
	FullMetricName string       `json:"full_metric_name"`
	MetricName     string       `json:"metric_name"`
	Summary        string       `json:"summary"`
	Data           []ChartLabel `json:"data"`
	YAxis          Axis         `json:"yAxis"`
	XAxis          Axis         `json:"xAxis"`
}

// Axis labels one chart axis.
type Axis struct {
	Label string `json:"label"`
	Unit  string `json:"unit,omitempty"`
}

// ChartLabel is one x-axis bucket with per-group values.
type ChartLabel struct {
	Label  string       `json:"label"`
	Values []GroupValue `json:"values"`
}

// GroupValue is one bar within a bucket.
type GroupValue struct {
	Group string  `json:"group"`
	Value float64 `json:"value"`
}

// AdverseSummary aggregates adverse events by term.
type AdverseSummary struct {
	Summary string         `json:"summary"`
	Common  []AdverseShare `json:"common"`
}

// AdverseShare is one term's share of the total affected count.
type AdverseShare struct {
	Event      string  `json:"event"`
	Percentage float64 `json:"percentage"`
}

// MetricItem is one measure row as fed to the narrator and the chart
// bucketing.
type MetricItem struct {
	ClassTitle string   `json:"class_title"`
	TimeFrame  *string  `json:"time_frame"`
	Value      *float64 `json:"value"`
	Units      *string  `json:"units"`
}

// NoSummary is the degradation default for failed narrative fields.
const NoSummary = "No summary available."

// Builder assembles visualization documents from the store.
type Builder struct {
	store       store.Store
	narrator    Narrator
	concurrency int
}

// NewBuilder returns a Builder that rebuilds up to concurrency study
// documents at a time.
func NewBuilder(st store.Store, narrator Narrator, concurrency int) *Builder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Builder{store: st, narrator: narrator, concurrency: concurrency}
}

// Run rebuilds the documents of every processed study. A single study's
// failure is logged and counted, never fatal to the pass.
func (b *Builder) Run(ctx context.Context) (*model.Run, error) {
	run, err := b.store.CreateRun(ctx, model.RunKindVisualize)
	if err != nil {
		return nil, err
	}

	studies, err := b.store.ListProcessedStudies(ctx)
	if err != nil {
		run.Status = model.RunStatusFailed
		_ = b.store.FinishRun(ctx, run)
		return run, err
	}
	run.StudiesTotal = len(studies)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, study := range studies {
		g.Go(func() error {
			err := b.buildAndSave(gctx, study)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				run.StudiesFailed++
				zap.L().Error("visualization build failed",
					zap.String("study_id", study.StudyID), zap.Error(err))
			} else {
				run.StudiesOK++
			}
			return nil
		})
	}
	_ = g.Wait()

	run.Status = model.RunStatusComplete
	if err := b.store.FinishRun(ctx, run); err != nil {
		return run, err
	}
	return run, nil
}

func (b *Builder) buildAndSave(ctx context.Context, study model.Study) error {
	doc, err := b.BuildStudy(ctx, study)
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return eris.Wrapf(err, "viz: marshal document %s", study.StudyID)
	}
	return b.store.SaveVisualization(ctx, study.StudyID, data)
}

// BuildStudy assembles one study's document. Narrative failures degrade to
// defaults; only store reads can fail the build.
func (b *Builder) BuildStudy(ctx context.Context, study model.Study) (*Document, error) {
	participants, err := b.buildParticipants(ctx, study.StudyID)
	if err != nil {
		return nil, err
	}
	outcomes, err := b.buildOutcomes(ctx, study.StudyID)
	if err != nil {
		return nil, err
	}
	adverse, err := b.buildAdverseEvents(ctx, study.StudyID)
	if err != nil {
		return nil, err
	}

	return &Document{
		StudyInfo:     buildStudyInfo(study),
		Participants:  participants,
		Outcomes:      outcomes,
		AdverseEvents: adverse,
	}, nil
}

func buildStudyInfo(study model.Study) StudyInfo {
	var start, completion *string
	if study.StartDate != nil {
		s := study.StartDate.Format("2006-01")
		start = &s
	}
	if study.CompletionDate != nil {
		c := study.CompletionDate.Format("2006-01")
		completion = &c
	}
	return StudyInfo{
		Title:       study.BriefTitle,
		Institution: study.Organization,
		Dates:       StudyDates{Start: start, Completion: completion},
		Summary:     study.Description,
	}
}

func (b *Builder) buildParticipants(ctx context.Context, studyID string) ([]ParticipantView, error) {
	groups, err := b.store.ParticipantGroups(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return []ParticipantView{}, nil
	}
	stats, err := b.store.ParticipantStatistics(ctx, studyID)
	if err != nil {
		return nil, err
	}

	views, err := b.narrator.ParticipantGroups(ctx, groups, stats)
	if err != nil {
		zap.L().Warn("participant narration failed, using empty list",
			zap.String("study_id", studyID), zap.Error(err))
		return []ParticipantView{}, nil
	}
	return views, nil
}

// buildAdverseEvents aggregates events by term, each term's share of the
// total affected count, sorted descending by share.
func (b *Builder) buildAdverseEvents(ctx context.Context, studyID string) (AdverseSummary, error) {
	events, err := b.store.AdverseEvents(ctx, studyID)
	if err != nil {
		return AdverseSummary{}, err
	}
	if len(events) == 0 {
		return AdverseSummary{Summary: "No adverse events reported.", Common: []AdverseShare{}}, nil
	}

	affectedByTerm := map[string]int{}
	for _, ev := range events {
		n := 0
		if ev.NumAffected != nil {
			n = *ev.NumAffected
		}
		affectedByTerm[ev.Term] += n
	}
	total := 0
	for _, n := range affectedByTerm {
		total += n
	}

	common := make([]AdverseShare, 0, len(affectedByTerm))
	for term, n := range affectedByTerm {
		var pct float64
		if total > 0 {
			pct = round2(float64(n) / float64(total) * 100)
		}
		common = append(common, AdverseShare{Event: term, Percentage: pct})
	}
	sort.Slice(common, func(i, j int) bool {
		if common[i].Percentage != common[j].Percentage {
			return common[i].Percentage > common[j].Percentage
		}
		return common[i].Event < common[j].Event
	})

	top := common
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, len(top))
	for i, share := range top {
		parts[i] = fmt.Sprintf("%s (%g%%)", share.Event, share.Percentage)
	}
	summary := fmt.Sprintf("The most common side effects reported were %s.", strings.Join(parts, ", "))

	return AdverseSummary{Summary: summary, Common: common}, nil
}

// buildOutcomes buckets outcome measures into grouped bar charts, one chart
// per metric title, one x-axis bucket per class/time-frame label.
func (b *Builder) buildOutcomes(ctx context.Context, studyID string) ([]MetricChart, error) {
	measures, err := b.store.OutcomeMeasuresWithGroups(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if len(measures) == 0 {
		return []MetricChart{}, nil
	}

	type metricData struct {
		groups     map[string][]MetricItem
		groupOrder []string
	}
	byMetric := map[string]*metricData{}
	var metricOrder []string
	for _, mg := range measures {
		metric := mg.Measure.MeasureTitle
		if metric == "" {
			metric = "Unknown Metric"
		}
		group := mg.GroupTitle
		if group == "" {
			group = "Unknown Group"
		}

		md, ok := byMetric[metric]
		if !ok {
			md = &metricData{groups: map[string][]MetricItem{}}
			byMetric[metric] = md
			metricOrder = append(metricOrder, metric)
		}
		if _, seen := md.groups[group]; !seen {
			md.groupOrder = append(md.groupOrder, group)
		}
		md.groups[group] = append(md.groups[group], MetricItem{
			ClassTitle: mg.Measure.ClassTitle,
			TimeFrame:  mg.Measure.TimeFrame,
			Value:      mg.Measure.Value,
			Units:      mg.Measure.UnitOfMeasure,
		})
	}

	charts := make([]MetricChart, 0, len(metricOrder))
	for _, metric := range metricOrder {
		md := byMetric[metric]

		shortName, err := b.narrator.ShortMetricName(ctx, metric)
		if err != nil || shortName == "" {
			shortName = metric
		}
		summary, err := b.narrator.MetricSummary(ctx, metric, md.groups)
		if err != nil || summary == "" {
			summary = NoSummary
		}

		chart := MetricChart{
			FullMetricName: metric,
			MetricName:     shortName,
			Summary:        summary,
			Data:           []ChartLabel{},
			YAxis:          Axis{Label: "Value", Unit: firstUnit(md.groups, md.groupOrder)},
			XAxis:          Axis{Label: "Time Period"},
		}

		var labels []string
		seen := map[string]bool{}
		for _, group := range md.groupOrder {
			for _, item := range md.groups[group] {
				label := itemLabel(item)
				if !seen[label] {
					seen[label] = true
					labels = append(labels, label)
				}
			}
		}

		for _, label := range labels {
			entry := ChartLabel{Label: label, Values: []GroupValue{}}
			for _, group := range md.groupOrder {
				for _, item := range md.groups[group] {
					if itemLabel(item) == label && item.Value != nil {
						entry.Values = append(entry.Values, GroupValue{Group: group, Value: *item.Value})
						break
					}
				}
			}
			chart.Data = append(chart.Data, entry)
		}
		charts = append(charts, chart)
	}
	return charts, nil
}

// itemLabel picks the x-axis bucket for a measure row: class title, then
// time frame, then a generic fallback.
func itemLabel(item MetricItem) string {
	if item.ClassTitle != "" {
		return item.ClassTitle
	}
	if item.TimeFrame != nil && *item.TimeFrame != "" {
		return *item.TimeFrame
	}
	return "Week 12"
}

func firstUnit(groups map[string][]MetricItem, order []string) string {
	for _, group := range order {
		for _, item := range groups[group] {
			if item.Units != nil {
				return *item.Units
			}
		}
	}
	return ""
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

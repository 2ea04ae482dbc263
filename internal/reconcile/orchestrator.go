package reconcile

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/panacea-health/trials-etl/internal/registry"
	"github.com/panacea-health/trials-etl/internal/store"
)

// Orchestrator sequences the per-study transformers inside one transaction.
// Groups are written before the measurements that reference them; either
// every entity commits together with the processed mark, or the study rolls
// back whole and stays pending.
type Orchestrator struct {
	store store.Store
	tf    *Transformer
	now   func() time.Time
}

// NewOrchestrator builds an Orchestrator over the given store and reconciler.
func NewOrchestrator(st store.Store, rec *Reconciler) *Orchestrator {
	return &Orchestrator{
		store: st,
		tf:    NewTransformer(rec),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ProcessStudy reconciles one document into relational state and marks the
// study processed. Any error leaves the study untouched and pending.
func (o *Orchestrator) ProcessStudy(ctx context.Context, doc *registry.Document) error {
	studyID := doc.StudyID()
	if studyID == "" {
		return eris.New("orchestrator: document has no study id")
	}

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return eris.Wrapf(err, "orchestrator: begin %s", studyID)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.UpsertStudy(ctx, StudyFromDocument(doc)); err != nil {
		return err
	}
	for _, c := range Conditions(doc) {
		if err := tx.UpsertCondition(ctx, studyID, c); err != nil {
			return err
		}
	}
	for _, k := range Keywords(doc) {
		if err := tx.UpsertKeyword(ctx, studyID, k); err != nil {
			return err
		}
	}
	for _, p := range Phases(doc) {
		if err := tx.UpsertPhase(ctx, studyID, p); err != nil {
			return err
		}
	}
	for _, a := range o.tf.Arms(ctx, doc, studyID) {
		if err := tx.UpsertArm(ctx, a); err != nil {
			return err
		}
	}
	for _, iv := range o.tf.Interventions(ctx, doc, studyID) {
		if err := tx.UpsertIntervention(ctx, iv); err != nil {
			return err
		}
	}
	for _, out := range o.tf.Outcomes(ctx, doc, studyID) {
		if err := tx.UpsertOutcome(ctx, out); err != nil {
			return err
		}
	}
	for _, c := range o.tf.Contacts(ctx, doc, studyID) {
		if err := tx.UpsertContact(ctx, c); err != nil {
			return err
		}
	}

	// Results section. Groups come first so measurements have something to
	// reference.
	for _, g := range o.tf.ParticipantGroups(ctx, doc, studyID) {
		if err := tx.UpsertParticipantGroup(ctx, g); err != nil {
			return err
		}
	}
	for _, d := range ParticipantDemographics(doc, studyID) {
		if err := tx.UpsertParticipantDemographic(ctx, d); err != nil {
			return err
		}
	}
	for _, s := range ParticipantStatistics(doc, studyID) {
		if err := tx.UpsertParticipantStatistic(ctx, s); err != nil {
			return err
		}
	}
	for _, d := range ParticipantDenoms(doc, studyID) {
		if err := tx.UpsertParticipantDenom(ctx, d); err != nil {
			return err
		}
	}
	for _, g := range o.tf.AdverseEventGroups(ctx, doc, studyID) {
		if err := tx.UpsertAdverseEventGroup(ctx, g); err != nil {
			return err
		}
	}
	for _, e := range AdverseEvents(doc, studyID) {
		if err := tx.UpsertAdverseEvent(ctx, e); err != nil {
			return err
		}
	}
	for _, g := range OutcomeGroups(doc, studyID) {
		if err := tx.UpsertOutcomeGroup(ctx, g); err != nil {
			return err
		}
	}
	for _, m := range OutcomeMeasures(doc, studyID) {
		if err := tx.UpsertOutcomeMeasure(ctx, m); err != nil {
			return err
		}
	}
	for _, p := range TimeSeries(doc, studyID) {
		if err := tx.UpsertTimeSeriesPoint(ctx, p); err != nil {
			return err
		}
	}

	if err := tx.MarkProcessed(ctx, studyID, o.now()); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	zap.L().Info("study processed", zap.String("study_id", studyID))
	return nil
}

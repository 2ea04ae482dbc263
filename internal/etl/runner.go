// Package etl drives the batch passes over the study queue: discovery seeds
// the queue from registry searches, ingest reconciles each pending study.
package etl

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/panacea-health/trials-etl/internal/dates"
	"github.com/panacea-health/trials-etl/internal/model"
	"github.com/panacea-health/trials-etl/internal/registry"
	"github.com/panacea-health/trials-etl/internal/store"
)

// Fetcher is the registry surface the runner needs.
type Fetcher interface {
	Study(ctx context.Context, studyID string) (*registry.Document, error)
	Search(ctx context.Context, q registry.SearchQuery) ([]registry.StudySummary, error)
}

// Processor reconciles one fetched document into relational state.
type Processor interface {
	ProcessStudy(ctx context.Context, doc *registry.Document) error
}

// Runner sequences batch passes. Studies are processed independently; one
// study's failure never halts the batch, it just stays pending for the next
// run.
type Runner struct {
	store   store.Store
	fetcher Fetcher
	proc    Processor
}

// NewRunner builds a Runner.
func NewRunner(st store.Store, fetcher Fetcher, proc Processor) *Runner {
	return &Runner{store: st, fetcher: fetcher, proc: proc}
}

// Discover searches the registry and seeds the study queue. Existing rows
// only gain fields they were missing; nothing is re-queued.
func (r *Runner) Discover(ctx context.Context, q registry.SearchQuery) (*model.Run, error) {
	run, err := r.store.CreateRun(ctx, model.RunKindDiscover)
	if err != nil {
		return nil, err
	}

	summaries, err := r.fetcher.Search(ctx, q)
	if err != nil {
		run.Status = model.RunStatusFailed
		_ = r.store.FinishRun(ctx, run)
		return run, err
	}
	run.StudiesTotal = len(summaries)

	for _, summary := range summaries {
		if summary.NCTID == "" {
			run.StudiesSkipped++
			continue
		}
		if err := r.store.SeedStudy(ctx, studyFromSummary(summary)); err != nil {
			run.StudiesFailed++
			zap.L().Error("seed study failed",
				zap.String("study_id", summary.NCTID), zap.Error(err))
			continue
		}
		run.StudiesOK++
	}

	run.Status = model.RunStatusComplete
	if err := r.store.FinishRun(ctx, run); err != nil {
		return run, err
	}
	zap.L().Info("discovery finished",
		zap.Int("found", run.StudiesTotal),
		zap.Int("seeded", run.StudiesOK),
		zap.Int("failed", run.StudiesFailed),
	)
	return run, nil
}

// Ingest fetches and reconciles every pending study. Studies whose registry
// record is gone or carries no results are skipped and logged; fetch or
// persistence errors leave the study pending for the next run.
func (r *Runner) Ingest(ctx context.Context) (*model.Run, error) {
	run, err := r.store.CreateRun(ctx, model.RunKindIngest)
	if err != nil {
		return nil, err
	}

	pending, err := r.store.ListPendingStudies(ctx)
	if err != nil {
		run.Status = model.RunStatusFailed
		_ = r.store.FinishRun(ctx, run)
		return run, err
	}
	run.StudiesTotal = len(pending)

	for _, study := range pending {
		log := zap.L().With(zap.String("study_id", study.StudyID))

		doc, err := r.fetcher.Study(ctx, study.StudyID)
		if err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				run.StudiesSkipped++
				log.Warn("study not found in registry, skipping")
				continue
			}
			run.StudiesFailed++
			log.Error("fetch failed", zap.Error(err))
			continue
		}
		if !doc.HasResults {
			run.StudiesSkipped++
			log.Info("study has no results, skipping")
			continue
		}

		if err := r.proc.ProcessStudy(ctx, doc); err != nil {
			run.StudiesFailed++
			log.Error("processing failed, study stays pending", zap.Error(err))
			continue
		}
		run.StudiesOK++
	}

	run.Status = model.RunStatusComplete
	if err := r.store.FinishRun(ctx, run); err != nil {
		return run, err
	}
	zap.L().Info("ingest finished",
		zap.Int("pending", run.StudiesTotal),
		zap.Int("processed", run.StudiesOK),
		zap.Int("skipped", run.StudiesSkipped),
		zap.Int("failed", run.StudiesFailed),
	)
	return run, nil
}

func studyFromSummary(s registry.StudySummary) model.Study {
	org := s.Organization
	if org == "" {
		org = s.LeadSponsor
	}
	return model.Study{
		StudyID:        s.NCTID,
		BriefTitle:     s.BriefTitle,
		OverallStatus:  strOrNil(s.OverallStatus),
		StartDate:      dates.Parse(s.StartDate),
		CompletionDate: dates.Parse(s.CompletionDate),
		HasResults:     s.HasResults,
		Organization:   strOrNil(org),
		Description:    strOrNil(s.BriefSummary),
	}
}

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

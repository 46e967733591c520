// Package service wires the pipeline stages into the caller-facing query
// operation.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dealquery/internal/domain"
	"dealquery/internal/pipeline"
	"dealquery/internal/planner"
	"dealquery/internal/results"
	"dealquery/internal/selector"
)

// Request carries one natural-language query plus result shaping options.
type Request struct {
	Query  string
	Sample domain.SampleSpec
	Page   domain.PageSpec
	Format domain.Format
}

// QueryService runs the full chain: semantic table selection, join
// planning, step decomposition, execution with recovery, and result
// processing. Each request is handled independently; the only shared state
// is the read-mostly schema catalog and the cache.
type QueryService struct {
	selector   *selector.Selector
	planner    *planner.Planner
	decomposer *pipeline.Decomposer
	executor   *pipeline.Executor
	processor  *results.Processor
	logger     *slog.Logger
	topK       int
}

func NewQueryService(sel *selector.Selector, pl *planner.Planner, dec *pipeline.Decomposer, ex *pipeline.Executor, proc *results.Processor, topK int, logger *slog.Logger) *QueryService {
	if topK <= 0 {
		topK = selector.DefaultTopK
	}
	return &QueryService{
		selector:   sel,
		planner:    pl,
		decomposer: dec,
		executor:   ex,
		processor:  proc,
		logger:     logger,
		topK:       topK,
	}
}

// Execute answers one query. An identical earlier request is served from
// the cache without touching the relational store. Diagnostics from
// planning and execution land in the result's Notes; they inform the
// caller but never fail the query.
func (s *QueryService) Execute(ctx context.Context, req Request) (domain.ProcessedResult, error) {
	start := time.Now()
	if strings.TrimSpace(req.Query) == "" {
		return domain.ProcessedResult{}, domain.ErrValidation("query text is required")
	}
	if err := req.Sample.Validate(); err != nil {
		return domain.ProcessedResult{}, err
	}

	if cached, ok := s.processor.Cached(ctx, req.Query, req.Sample, req.Page, req.Format); ok {
		s.logger.Info("query served from cache", "duration", time.Since(start))
		return cached, nil
	}

	candidates, err := s.selector.Select(ctx, req.Query, s.topK)
	if err != nil {
		return domain.ProcessedResult{}, err
	}

	joinPlan := s.planner.Plan(candidates)

	plan, err := s.decomposer.Decompose(req.Query, joinPlan)
	if err != nil {
		return domain.ProcessedResult{}, err
	}

	planResult, err := s.executor.Execute(ctx, plan)
	if err != nil {
		return domain.ProcessedResult{}, err
	}

	notes := append([]string{}, joinPlan.Notes...)
	notes = append(notes, planResult.Notes...)
	if len(plan.Steps) > 1 {
		notes = append(notes, fmt.Sprintf("executed as a %d-step plan", len(plan.Steps)))
	}

	processed, err := s.processor.Process(ctx, planResult.Rows, req.Query, req.Sample, req.Page, req.Format, notes...)
	if err != nil {
		return domain.ProcessedResult{}, err
	}

	s.logger.Info("query executed",
		"duration", time.Since(start),
		"tables", len(joinPlan.Tables),
		"steps", len(planResult.StepResults),
		"rows", processed.TotalResults,
		"sampled", processed.Sampled)

	return processed, nil
}

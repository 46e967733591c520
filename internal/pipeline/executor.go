package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"dealquery/internal/domain"
)

const (
	DefaultStepTimeout = 30 * time.Second
	DefaultPlanTimeout = 2 * time.Minute
)

// Broadener widens the table scope when a step fails for lack of matching
// rows. The semantic selector satisfies this with its zero-threshold mode.
type Broadener interface {
	SelectBroadened(ctx context.Context, queryText string, topK int) (domain.CandidateSet, error)
}

// Executor runs plans step by step against the query runner, enforcing each
// step's validation rules and applying exactly one recovery attempt per
// failing step.
type Executor struct {
	runner      domain.QueryRunner
	broadener   Broadener
	logger      *slog.Logger
	stepTimeout time.Duration
	planTimeout time.Duration
	topK        int
}

func NewExecutor(runner domain.QueryRunner, broadener Broadener, stepTimeout, planTimeout time.Duration, topK int, logger *slog.Logger) *Executor {
	if stepTimeout <= 0 {
		stepTimeout = DefaultStepTimeout
	}
	if planTimeout <= 0 {
		planTimeout = DefaultPlanTimeout
	}
	if topK <= 0 {
		topK = 10
	}
	return &Executor{
		runner:      runner,
		broadener:   broadener,
		logger:      logger,
		stepTimeout: stepTimeout,
		planTimeout: planTimeout,
		topK:        topK,
	}
}

// Execute runs the plan's steps strictly in dependency order. The first step
// whose recovery attempt also fails aborts the whole plan; outputs of steps
// already completed are discarded. Caller cancellation is observed between
// steps, never mid-step.
func (e *Executor) Execute(ctx context.Context, plan domain.ExecutionPlan) (domain.PlanResult, error) {
	start := time.Now()
	planCtx, cancel := context.WithTimeout(ctx, e.planTimeout)
	defer cancel()

	done := make(map[int]domain.StepResult, len(plan.Steps))
	stepResults := make([]domain.StepResult, 0, len(plan.Steps))
	var notes []string
	tables := plan.Tables

	for i := range plan.Steps {
		step := &plan.Steps[i]

		if err := ctx.Err(); err != nil {
			e.logger.Info("plan cancelled by caller, discarding partial results", "plan_id", plan.ID, "completed_steps", len(done))
			return domain.PlanResult{Duration: time.Since(start), StepResults: stepResults}, err
		}
		if !depsSatisfied(step, done) {
			return e.abort(plan, step, stepResults, start,
				errors.New("internal ordering error: step ran before its dependencies"), false)
		}

		step.Status = domain.StepRunning
		res := e.runStep(planCtx, step, tables)

		if !res.Success {
			if err := ctx.Err(); err != nil {
				stepResults = append(stepResults, res)
				return domain.PlanResult{Duration: time.Since(start), StepResults: stepResults}, err
			}
			if planCtx.Err() != nil {
				step.Status = domain.StepAborted
				stepResults = append(stepResults, res)
				return e.abort(plan, step, stepResults, start,
					errors.New("plan exceeded its overall time budget"), true)
			}

			step.Status = domain.StepRecovering
			e.logger.Warn("step failed, attempting recovery",
				"plan_id", plan.ID, "step", step.Number, "kind", step.Kind, "error", res.Err)

			rec, recTables := e.recover(planCtx, step, plan.Query, tables)
			if !rec.Success {
				step.Status = domain.StepAborted
				stepResults = append(stepResults, rec)
				retryable := errors.Is(res.Err, context.DeadlineExceeded) || errors.Is(rec.Err, context.DeadlineExceeded)
				return e.abort(plan, step, stepResults, start, res.Err, retryable)
			}
			res = rec
			tables = recTables
			notes = append(notes, fmt.Sprintf("recovery applied at step %d: %s", step.Number, rec.Note))
		}

		step.Status = domain.StepSucceeded
		done[step.Number] = res
		stepResults = append(stepResults, res)
	}

	return domain.PlanResult{
		Success:     true,
		Rows:        mergeTerminal(plan, done),
		Duration:    time.Since(start),
		StepResults: stepResults,
		Notes:       notes,
	}, nil
}

func (e *Executor) runStep(ctx context.Context, step *domain.QueryStep, tables []string) domain.StepResult {
	stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	start := time.Now()
	rows, err := e.runner.Run(stepCtx, step.Description, tables)
	if err == nil && step.Kind == domain.StepBudget {
		rows = packWithinBudget(rows, budgetLimit(step))
	}
	if err == nil {
		err = validateStep(step, rows)
	}

	res := domain.StepResult{
		StepNumber: step.Number,
		Duration:   time.Since(start),
		RowCount:   len(rows),
	}
	if err != nil {
		res.Err = err
		return res
	}
	res.Success = true
	res.Rows = rows
	return res
}

// recover makes the single allowed recovery attempt for a failed step. The
// strategy depends on the step kind: broadened table selection for identify
// steps, relaxed filters for pricing and budget steps, outer-join
// substitution for comparison steps.
func (e *Executor) recover(ctx context.Context, step *domain.QueryStep, query string, tables []string) (domain.StepResult, []string) {
	retry := *step
	note := ""
	retryTables := tables

	switch step.Kind {
	case domain.StepIdentify:
		if e.broadener != nil {
			broadened, err := e.broadener.SelectBroadened(ctx, query, e.topK)
			if err == nil && len(broadened.Candidates) > len(tables) {
				retryTables = broadened.Tables()
			}
		}
		note = "broadened table selection after no matching rows"
	case domain.StepPricing, domain.StepBudget:
		retry.Description = step.Description + " (relaxed: widen the price range and allow fuzzy product name matching)"
		note = "relaxed filters after validation failure"
	case domain.StepComparison:
		retry.Description = step.Description + " (use left outer joins so products missing on some platforms still appear)"
		note = "outer join substituted for inner join"
	default:
		retry.Description = step.Description + " (relaxed: broaden matching criteria)"
		note = "broadened matching criteria"
	}

	res := e.runStep(ctx, &retry, retryTables)
	if res.Success {
		res.Note = note
	}
	return res, retryTables
}

func (e *Executor) abort(plan domain.ExecutionPlan, step *domain.QueryStep, stepResults []domain.StepResult, start time.Time, cause error, retryable bool) (domain.PlanResult, error) {
	msg := "step failed"
	if cause != nil {
		msg = cause.Error()
	}
	aborted := &domain.PlanAbortedError{
		StepDescription: step.Description,
		Message:         msg,
		Suggestions:     suggestionsFor(step.Kind),
		Retryable:       retryable,
	}
	e.logger.Error("plan aborted", "plan_id", plan.ID, "step", step.Number, "kind", step.Kind, "error", msg)
	return domain.PlanResult{
		Duration:    time.Since(start),
		StepResults: stepResults,
	}, aborted
}

func suggestionsFor(kind domain.StepKind) []string {
	switch kind {
	case domain.StepIdentify:
		return []string{"try a more specific product name", "check the spelling of the product name"}
	case domain.StepPricing:
		return []string{"widen the price range", "try a different product"}
	case domain.StepComparison:
		return []string{"name the platforms to compare explicitly", "try comparing fewer products"}
	case domain.StepBudget:
		return []string{"increase the budget amount", "ask for fewer items"}
	default:
		return []string{"rephrase the query with a specific product name"}
	}
}

func depsSatisfied(step *domain.QueryStep, done map[int]domain.StepResult) bool {
	for _, dep := range step.DependsOn {
		res, ok := done[dep]
		if !ok || !res.Success {
			return false
		}
	}
	return true
}

func validateStep(step *domain.QueryStep, rows []domain.Row) error {
	for _, rule := range step.Validate {
		switch rule.Kind {
		case domain.ValidateMinRows:
			if len(rows) < int(rule.Limit) {
				return fmt.Errorf("expected at least %d matching rows, got %d", int(rule.Limit), len(rows))
			}
		case domain.ValidatePositivePrices:
			priced := 0
			for _, row := range rows {
				p, ok := row.Price()
				if !ok {
					continue
				}
				if p <= 0 {
					return fmt.Errorf("row for %q carries a non-positive price", row.Product())
				}
				priced++
			}
			if priced == 0 {
				return errors.New("no price data found for the identified products")
			}
		case domain.ValidateMinPlatforms:
			seen := make(map[string]bool)
			for _, row := range rows {
				if p := row.Platform(); p != "" {
					seen[p] = true
				}
			}
			if len(seen) < int(rule.Limit) {
				return fmt.Errorf("comparison needs at least %d platforms, found %d", int(rule.Limit), len(seen))
			}
		case domain.ValidateWithinBudget:
			total := 0.0
			for _, row := range rows {
				if p, ok := row.Price(); ok {
					total += p
				}
			}
			if total > rule.Limit {
				return fmt.Errorf("selected items total ₹%.2f, exceeding the ₹%.2f budget", total, rule.Limit)
			}
		}
	}
	return nil
}

func budgetLimit(step *domain.QueryStep) float64 {
	for _, rule := range step.Validate {
		if rule.Kind == domain.ValidateWithinBudget {
			return rule.Limit
		}
	}
	return 0
}

// packWithinBudget keeps rows cheapest-first while the running total stays
// within the limit. Greedy, not globally optimal. Rows without a price
// cannot count toward a budget and are dropped.
func packWithinBudget(rows []domain.Row, limit float64) []domain.Row {
	if limit <= 0 {
		return rows
	}
	priced := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		if _, ok := row.Price(); ok {
			priced = append(priced, row)
		}
	}
	sort.SliceStable(priced, func(i, j int) bool {
		a, _ := priced[i].Price()
		b, _ := priced[j].Price()
		return a < b
	})
	packed := make([]domain.Row, 0, len(priced))
	total := 0.0
	for _, row := range priced {
		p, _ := row.Price()
		if total+p > limit {
			continue
		}
		total += p
		packed = append(packed, row)
	}
	return packed
}

// mergeTerminal builds the final row set from terminal steps. A plan with a
// single terminal step returns that step's rows unchanged; with several, rows
// are keyed by product and platform and later steps override earlier fields
// on key overlap.
func mergeTerminal(plan domain.ExecutionPlan, done map[int]domain.StepResult) []domain.Row {
	depended := make(map[int]bool)
	for _, s := range plan.Steps {
		for _, dep := range s.DependsOn {
			depended[dep] = true
		}
	}

	var terminal []domain.StepResult
	for _, s := range plan.Steps {
		if depended[s.Number] {
			continue
		}
		res, ok := done[s.Number]
		if !ok {
			continue
		}
		terminal = append(terminal, res)
	}

	if len(terminal) == 1 {
		return terminal[0].Rows
	}

	var order []string
	merged := make(map[string]domain.Row)
	for _, res := range terminal {
		for _, row := range res.Rows {
			key := row.Product() + "|" + row.Platform()
			if cur, seen := merged[key]; seen {
				for field, value := range row {
					cur[field] = value
				}
				continue
			}
			cp := make(domain.Row, len(row))
			for field, value := range row {
				cp[field] = value
			}
			merged[key] = cp
			order = append(order, key)
		}
	}

	rows := make([]domain.Row, 0, len(order))
	for _, key := range order {
		rows = append(rows, merged[key])
	}
	return rows
}

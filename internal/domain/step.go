package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepKind classifies execution steps so the executor can pick the right
// recovery strategy on failure.
type StepKind string

const (
	StepDirect     StepKind = "direct"     // whole query delegated in one step
	StepIdentify   StepKind = "identify"   // find candidate products/rows
	StepPricing    StepKind = "pricing"    // attach current pricing/availability
	StepComparison StepKind = "comparison" // cross-platform comparison
	StepBudget     StepKind = "budget"     // budget-constrained optimization
)

// StepStatus is the per-step state machine. The one-recovery-attempt
// invariant is structural: Failed transitions to Recovering exactly once,
// and Recovering ends in Succeeded or Aborted.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepRunning    StepStatus = "running"
	StepSucceeded  StepStatus = "succeeded"
	StepFailed     StepStatus = "failed"
	StepRecovering StepStatus = "recovering"
	StepAborted    StepStatus = "aborted"
)

// ValidationKind names a rule the executor checks against a step's output.
type ValidationKind string

const (
	ValidateMinRows        ValidationKind = "min_rows"
	ValidatePositivePrices ValidationKind = "positive_prices"
	ValidateMinPlatforms   ValidationKind = "min_platforms"
	ValidateWithinBudget   ValidationKind = "within_budget"
)

// ValidationRule is one declarative check on a step's result. Limit is
// interpreted per kind: a row count, a platform count, or a budget amount.
type ValidationRule struct {
	Kind  ValidationKind
	Limit float64
}

// QueryStep is one validated unit of work within a plan. Steps form a DAG
// (in practice a chain); a step may only run after every step in DependsOn
// has succeeded.
type QueryStep struct {
	Number      int
	Kind        StepKind
	Description string
	Validate    []ValidationRule
	DependsOn   []int
	Status      StepStatus
}

// ExecutionPlan is an ordered QueryStep list plus metadata. Built once per
// query, executed once, discarded after use.
type ExecutionPlan struct {
	ID                uuid.UUID
	Query             string
	Steps             []QueryStep
	Tables            []string
	EstimatedDuration time.Duration
}

// StepResult is the outcome of one executed step, consumed immediately by
// the next step or by result aggregation. Never shared across queries.
type StepResult struct {
	StepNumber int
	Success    bool
	Rows       []Row
	Err        error
	Duration   time.Duration
	RowCount   int
	Note       string // set when recovery was applied
}

// PlanResult is the aggregated outcome of executing a whole plan.
type PlanResult struct {
	Success     bool
	Rows        []Row
	Duration    time.Duration
	StepResults []StepResult
	Notes       []string
}

// Package pipeline decomposes a natural-language query into an ordered,
// dependency-linked plan of validated steps and executes it with per-step
// recovery.
package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"dealquery/internal/domain"
)

// DefaultComplexityThreshold is the score at which a query stops being a
// single delegated step and becomes a validated multi-step plan.
const DefaultComplexityThreshold = 3

var (
	comparisonWords  = []string{"compare", "vs", "versus", "between"}
	aggregationWords = []string{"cheapest", "best", "maximum", "lowest", "highest"}
	budgetWords      = []string{"budget", "within"}

	rupeeAmountRe  = regexp.MustCompile(`₹\s*([0-9]+(?:\.[0-9]+)?)`)
	spelledRupeeRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*(?:rupees|rs)\b`)
)

// Decomposer turns query text plus a join plan into an ExecutionPlan.
type Decomposer struct {
	threshold int
}

func NewDecomposer(threshold int) *Decomposer {
	if threshold <= 0 {
		threshold = DefaultComplexityThreshold
	}
	return &Decomposer{threshold: threshold}
}

// ComplexityScore counts comparison, aggregation, and budget signals in the
// query text. Token matching keeps "vs" from firing inside unrelated words.
func ComplexityScore(query string) int {
	lower := strings.ToLower(query)
	tokens := tokenize(lower)

	score := 0
	for _, w := range comparisonWords {
		score += tokens[w]
	}
	for _, w := range aggregationWords {
		score += tokens[w]
	}
	for _, w := range budgetWords {
		score += tokens[w]
	}
	score += strings.Count(lower, "₹")
	if _, ok := ExtractBudget(query); ok {
		score++
	}
	return score
}

// ExtractBudget parses a stated budget amount, either "₹1000" or
// "1000 rupees". Returns false when the query states no amount.
func ExtractBudget(query string) (float64, bool) {
	lower := strings.ToLower(query)
	for _, re := range []*regexp.Regexp{rupeeAmountRe, spelledRupeeRe} {
		if m := re.FindStringSubmatch(lower); m != nil {
			amount, err := strconv.ParseFloat(m[1], 64)
			if err == nil && amount > 0 {
				return amount, true
			}
		}
	}
	return 0, false
}

// Decompose builds the execution plan for a query. Simple queries become a
// single direct step delegated whole to the query runner; complex ones
// become a validated identify/pricing chain with optional comparison and
// budget steps hanging off the pricing step.
func (d *Decomposer) Decompose(query string, join domain.JoinPlan) (domain.ExecutionPlan, error) {
	if strings.TrimSpace(query) == "" {
		return domain.ExecutionPlan{}, domain.ErrValidation("query text is empty")
	}

	plan := domain.ExecutionPlan{
		ID:     uuid.New(),
		Query:  query,
		Tables: join.Tables,
	}

	if ComplexityScore(query) < d.threshold {
		plan.Steps = []domain.QueryStep{{
			Number:      1,
			Kind:        domain.StepDirect,
			Description: query,
			Status:      domain.StepPending,
		}}
		plan.EstimatedDuration = 2 * time.Second
		return plan, nil
	}

	steps := []domain.QueryStep{
		{
			Number:      1,
			Kind:        domain.StepIdentify,
			Description: fmt.Sprintf("identify products matching: %s", query),
			Validate:    []domain.ValidationRule{{Kind: domain.ValidateMinRows, Limit: 1}},
			Status:      domain.StepPending,
		},
		{
			Number:      2,
			Kind:        domain.StepPricing,
			Description: "attach current prices and availability for the identified products",
			Validate:    []domain.ValidationRule{{Kind: domain.ValidatePositivePrices}},
			DependsOn:   []int{1},
			Status:      domain.StepPending,
		},
	}

	if hasAnyToken(query, comparisonWords) {
		steps = append(steps, domain.QueryStep{
			Number:      len(steps) + 1,
			Kind:        domain.StepComparison,
			Description: "compare prices for the identified products across platforms",
			Validate:    []domain.ValidationRule{{Kind: domain.ValidateMinPlatforms, Limit: 2}},
			DependsOn:   []int{2},
			Status:      domain.StepPending,
		})
	}

	// A budget step needs a stated amount to validate against; a budget
	// word alone only raises the complexity score.
	if amount, ok := ExtractBudget(query); ok {
		steps = append(steps, domain.QueryStep{
			Number:      len(steps) + 1,
			Kind:        domain.StepBudget,
			Description: fmt.Sprintf("select the best combination of deals within a total budget of ₹%v", amount),
			Validate:    []domain.ValidationRule{{Kind: domain.ValidateWithinBudget, Limit: amount}},
			DependsOn:   []int{2},
			Status:      domain.StepPending,
		})
	}

	plan.Steps = steps
	plan.EstimatedDuration = time.Duration(len(steps)) * 2 * time.Second
	return plan, nil
}

func tokenize(lower string) map[string]int {
	counts := make(map[string]int)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		counts[f]++
	}
	return counts
}

func hasAnyToken(query string, words []string) bool {
	tokens := tokenize(strings.ToLower(query))
	for _, w := range words {
		if tokens[w] > 0 {
			return true
		}
	}
	return false
}

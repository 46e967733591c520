// Package planner orders candidate tables into a join sequence using a
// greedy most-connected-first heuristic over the relationship graph.
package planner

import (
	"fmt"
	"sort"

	"dealquery/internal/catalog"
	"dealquery/internal/domain"
)

// Planner builds join plans from catalog snapshots. It never fails: every
// candidate set gets a plan, even a pessimal one, so the pipeline never
// blocks at the planning stage.
type Planner struct {
	catalog *catalog.Catalog
}

// New creates a Planner reading the given catalog.
func New(cat *catalog.Catalog) *Planner {
	return &Planner{catalog: cat}
}

// Plan produces an ordered join sequence for the candidate tables. With at
// most one table the plan is trivial: no joins, cost exactly 1.0.
//
// Ordering is greedy: at each step pick the unplaced table with the most
// edges into the candidate set, preferring connections to tables already
// placed. The candidate count per query is small (<=10) and edge weights
// are coarse estimates, so a full cost-based search would buy nothing that
// this explainable heuristic does not.
func (p *Planner) Plan(candidates domain.CandidateSet) domain.JoinPlan {
	tables := candidates.Tables()
	if len(tables) <= 1 {
		return domain.JoinPlan{Tables: tables, EstimatedCost: 1.0}
	}

	snap := p.catalog.Current()
	edges := snap.EdgesAmong(tables)

	degree := make(map[string]int, len(tables))
	for _, e := range edges {
		degree[e.TableA]++
		degree[e.TableB]++
	}

	order := make([]string, 0, len(tables))
	placed := make(map[string]bool, len(tables))
	remaining := append([]string(nil), tables...)

	for len(remaining) > 0 {
		best := -1
		for i, t := range remaining {
			if best < 0 || p.better(snap, degree, placed, edges, t, remaining[best]) {
				best = i
			}
		}
		chosen := remaining[best]
		order = append(order, chosen)
		placed[chosen] = true
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	plan := domain.JoinPlan{
		Tables:        order,
		EstimatedCost: totalCost(order, edges),
	}
	plan.Notes = p.notes(snap, order, edges, degree)
	return plan
}

// better reports whether table a should be placed before table b: more
// edges into already-placed tables first, then higher overall connectivity,
// then smaller row count, then name, so plans are deterministic.
func (p *Planner) better(snap *catalog.Snapshot, degree map[string]int, placed map[string]bool, edges []domain.RelationshipEdge, a, b string) bool {
	pa, pb := placedDegree(edges, placed, a), placedDegree(edges, placed, b)
	if pa != pb {
		return pa > pb
	}
	if degree[a] != degree[b] {
		return degree[a] > degree[b]
	}
	ra, rb := snap.RowCount(a), snap.RowCount(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

func placedDegree(edges []domain.RelationshipEdge, placed map[string]bool, table string) int {
	n := 0
	for _, e := range edges {
		if e.Touches(table) && placed[e.Other(table)] {
			n++
		}
	}
	return n
}

// totalCost sums, for each table after the first, the cheapest edge joining
// it to any already-placed table. Costs are reported, never used to reject a
// plan.
func totalCost(order []string, edges []domain.RelationshipEdge) float64 {
	var cost float64
	placed := map[string]bool{}
	if len(order) > 0 {
		placed[order[0]] = true
	}
	for i := 1; i < len(order); i++ {
		best := 0.0
		for _, e := range edges {
			if !e.Touches(order[i]) || !placed[e.Other(order[i])] {
				continue
			}
			if best == 0 || e.EstimatedCost < best {
				best = e.EstimatedCost
			}
		}
		cost += best
		placed[order[i]] = true
	}
	if cost == 0 {
		cost = 1.0
	}
	return cost
}

func (p *Planner) notes(snap *catalog.Snapshot, order []string, edges []domain.RelationshipEdge, degree map[string]int) []string {
	var notes []string

	var disconnected []string
	for _, t := range order {
		if degree[t] == 0 {
			disconnected = append(disconnected, t)
		}
	}
	sort.Strings(disconnected)
	for _, t := range disconnected {
		notes = append(notes, fmt.Sprintf("table %s has no known relationship to the other candidates", t))
	}

	for _, e := range edges {
		if e.EstimatedCost > 100 {
			notes = append(notes, fmt.Sprintf("high-cost join between %s and %s, consider narrowing the query", e.TableA, e.TableB))
		}
	}
	for _, t := range order {
		if snap.RowCount(t) > 1_000_000 {
			notes = append(notes, fmt.Sprintf("large table %s in plan, expect slow joins without early filters", t))
		}
	}
	if len(order) > 5 {
		notes = append(notes, "plan spans more than five tables, results may be slow")
	}
	return notes
}

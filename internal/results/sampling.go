package results

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"dealquery/internal/domain"
)

// DefaultLargeResultThreshold is the row count above which sampling kicks
// in. Below it the full result set is cheap enough to process as is.
const DefaultLargeResultThreshold = 1000

// sample reduces rows according to spec. It never increases the row count
// and preserves the original row order except for top_n, where order is the
// point. Callers have already validated spec.
func sample(rows []domain.Row, spec domain.SampleSpec) []domain.Row {
	if spec.Size >= len(rows) {
		return rows
	}
	switch spec.Method {
	case domain.SampleRandom:
		return randomSample(rows, spec.Size)
	case domain.SampleSystematic:
		return systematicSample(rows, spec.Size)
	case domain.SampleStratified:
		return stratifiedSample(rows, spec.StratifyColumn, spec.Size)
	case domain.SampleTopN:
		return rows[:spec.Size]
	}
	return rows
}

// randomSample draws size rows without replacement, keeping relative order.
func randomSample(rows []domain.Row, size int) []domain.Row {
	picked := rand.Perm(len(rows))[:size]
	sort.Ints(picked)
	out := make([]domain.Row, 0, size)
	for _, i := range picked {
		out = append(out, rows[i])
	}
	return out
}

// systematicSample takes every interval-th row starting at the first, where
// interval is ceil(N/size). Depending on divisibility this can yield
// slightly fewer than size rows, never more.
func systematicSample(rows []domain.Row, size int) []domain.Row {
	interval := (len(rows) + size - 1) / size
	out := make([]domain.Row, 0, size)
	for i := 0; i < len(rows) && len(out) < size; i += interval {
		out = append(out, rows[i])
	}
	return out
}

// stratifiedSample allocates the sample proportionally across the distinct
// values of column, within one row of the exact proportion per stratum.
// Every stratum contributes at least one row.
func stratifiedSample(rows []domain.Row, column string, size int) []domain.Row {
	strata := make(map[string][]int)
	var keys []string
	for i, row := range rows {
		key := "unknown"
		if v, ok := row[column]; ok {
			key = fmt.Sprint(v)
		}
		if _, seen := strata[key]; !seen {
			keys = append(keys, key)
		}
		strata[key] = append(strata[key], i)
	}
	sort.Strings(keys)

	total := float64(len(rows))
	var picked []int
	for _, key := range keys {
		idx := strata[key]
		want := int(math.Round(float64(len(idx)) / total * float64(size)))
		if want < 1 {
			want = 1
		}
		if want >= len(idx) {
			picked = append(picked, idx...)
			continue
		}
		for _, j := range rand.Perm(len(idx))[:want] {
			picked = append(picked, idx[j])
		}
	}

	// Per-stratum rounding can overshoot the requested size by a handful
	// of rows; reduce at random so no stratum is systematically favored.
	if len(picked) > size {
		reduced := make([]int, 0, size)
		for _, j := range rand.Perm(len(picked))[:size] {
			reduced = append(reduced, picked[j])
		}
		picked = reduced
	}
	sort.Ints(picked)

	out := make([]domain.Row, 0, len(picked))
	for _, i := range picked {
		out = append(out, rows[i])
	}
	return out
}

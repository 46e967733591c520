package results

import (
	"fmt"
	"sort"

	"dealquery/internal/domain"
)

// formatRows dispatches to the transformation for the given format tag.
// Callers have already checked format.Valid().
func formatRows(rows []domain.Row, format domain.Format) []domain.Row {
	switch format {
	case domain.FormatStructured:
		return formatStructured(rows)
	case domain.FormatSummary:
		return formatSummary(rows)
	case domain.FormatComparison:
		return formatComparison(rows)
	case domain.FormatChartData:
		return formatChartData(rows)
	default:
		return rows
	}
}

// formatStructured normalizes every row to a fixed field set and computes
// savings where an original price is known.
func formatStructured(rows []domain.Row) []domain.Row {
	out := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		price, _ := row.Price()
		formatted := domain.Row{
			"id":                  row["product_id"],
			"product_name":        row.Product(),
			"platform_name":       row.Platform(),
			"current_price":       price,
			"original_price":      nil,
			"discount_percentage": nil,
			"is_available":        true,
			"savings":             nil,
		}
		if formatted["id"] == nil {
			formatted["id"] = row["id"]
		}
		if orig, ok := numeric(row["original_price"]); ok {
			formatted["original_price"] = orig
			if orig > price {
				formatted["savings"] = orig - price
			}
		}
		if pct, ok := numeric(row["discount_percentage"]); ok {
			formatted["discount_percentage"] = pct
		}
		if avail, ok := row["is_available"].(bool); ok {
			formatted["is_available"] = avail
		}
		out = append(out, formatted)
	}
	return out
}

// formatSummary collapses the rows into a single statistics row.
func formatSummary(rows []domain.Row) []domain.Row {
	if len(rows) == 0 {
		return []domain.Row{{"summary": "no results found"}}
	}

	var prices []float64
	platformSet := make(map[string]bool)
	productSet := make(map[string]bool)
	var products []string
	for _, row := range rows {
		if p, ok := row.Price(); ok {
			prices = append(prices, p)
		}
		if pl := row.Platform(); pl != "" {
			platformSet[pl] = true
		}
		if pr := row.Product(); pr != "" && !productSet[pr] {
			productSet[pr] = true
			products = append(products, pr)
		}
	}

	platforms := make([]string, 0, len(platformSet))
	for pl := range platformSet {
		platforms = append(platforms, pl)
	}
	sort.Strings(platforms)
	if len(products) > 10 {
		products = products[:10]
	}

	return []domain.Row{{
		"total_results":    len(rows),
		"unique_products":  len(productSet),
		"unique_platforms": len(platforms),
		"price_statistics": domain.Row{
			"min_price":     minOf(prices),
			"max_price":     maxOf(prices),
			"average_price": meanOf(prices),
			"median_price":  medianOf(prices),
		},
		"platforms":       platforms,
		"sample_products": products,
	}}
}

// formatComparison groups rows by product and ranks platforms by price.
func formatComparison(rows []domain.Row) []domain.Row {
	groups := make(map[string][]domain.Row)
	var order []string
	for _, row := range rows {
		name := row.Product()
		if name == "" {
			name = "unknown"
		}
		if _, seen := groups[name]; !seen {
			order = append(order, name)
		}
		groups[name] = append(groups[name], row)
	}
	sort.Strings(order)

	out := make([]domain.Row, 0, len(order))
	for _, name := range order {
		group := groups[name]
		sort.SliceStable(group, func(i, j int) bool {
			a, _ := group[i].Price()
			b, _ := group[j].Price()
			return a < b
		})

		var prices []float64
		platforms := make([]domain.Row, 0, len(group))
		for _, row := range group {
			price, _ := row.Price()
			prices = append(prices, price)
			entry := domain.Row{
				"platform_name": row.Platform(),
				"price":         price,
			}
			if orig, ok := numeric(row["original_price"]); ok {
				entry["original_price"] = orig
			}
			if pct, ok := numeric(row["discount_percentage"]); ok {
				entry["discount_percentage"] = pct
			}
			platforms = append(platforms, entry)
		}

		out = append(out, domain.Row{
			"product_name":            name,
			"platforms":               platforms,
			"cheapest_platform":       group[0].Platform(),
			"most_expensive_platform": group[len(group)-1].Platform(),
			"price_range":             domain.Row{"min": minOf(prices), "max": maxOf(prices)},
			"average_price":           meanOf(prices),
		})
	}
	return out
}

// formatChartData emits one row of label/value series: a ten-bucket price
// histogram plus per-platform aggregates.
func formatChartData(rows []domain.Row) []domain.Row {
	if len(rows) == 0 {
		return nil
	}

	var prices []float64
	perPlatform := make(map[string][]float64)
	var platformOrder []string
	for _, row := range rows {
		p, ok := row.Price()
		if !ok {
			continue
		}
		prices = append(prices, p)
		pl := row.Platform()
		if pl == "" {
			pl = "unknown"
		}
		if _, seen := perPlatform[pl]; !seen {
			platformOrder = append(platformOrder, pl)
		}
		perPlatform[pl] = append(perPlatform[pl], p)
	}
	sort.Strings(platformOrder)

	var distribution []domain.Row
	if len(prices) > 0 {
		lo, hi := minOf(prices), maxOf(prices)
		bucketSize := (hi - lo) / 10
		if bucketSize <= 0 {
			bucketSize = 1
		}
		counts := make(map[int]int)
		for _, p := range prices {
			bucket := int((p - lo) / bucketSize)
			if bucket > 9 {
				bucket = 9
			}
			counts[bucket]++
		}
		buckets := make([]int, 0, len(counts))
		for b := range counts {
			buckets = append(buckets, b)
		}
		sort.Ints(buckets)
		for _, b := range buckets {
			distribution = append(distribution, domain.Row{
				"range": fmt.Sprintf("₹%.0f-₹%.0f", lo+float64(b)*bucketSize, lo+float64(b+1)*bucketSize),
				"count": counts[b],
			})
		}
	}

	comparison := make([]domain.Row, 0, len(platformOrder))
	for _, pl := range platformOrder {
		ps := perPlatform[pl]
		comparison = append(comparison, domain.Row{
			"platform":      pl,
			"average_price": meanOf(ps),
			"min_price":     minOf(ps),
			"max_price":     maxOf(ps),
			"product_count": len(ps),
		})
	}

	return []domain.Row{{
		"price_distribution":  distribution,
		"platform_comparison": comparison,
	}}
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func minOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func medianOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

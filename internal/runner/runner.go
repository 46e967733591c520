// Package runner is the built-in query runner: it turns step descriptions
// into parameterized SQL against the deals schema. It stands in for the
// external language-model SQL service behind the same domain.QueryRunner
// port, so swapping in a real service touches nothing else.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"dealquery/internal/domain"
)

const resultLimit = 50

// Known product vocabulary for name extraction. Anything outside it falls
// back to the word following a search keyword.
var knownProducts = []string{
	"onion", "onions", "tomato", "tomatoes", "potato", "potatoes",
	"apple", "apples", "banana", "bananas", "milk", "bread", "rice",
	"oil", "sugar", "salt", "flour", "dal", "pulses",
}

var searchKeywords = map[string]bool{
	"cheapest": true, "cost": true, "find": true, "show": true, "search": true,
}

var stopwords = map[string]bool{
	"and": true, "the": true, "of": true, "for": true, "on": true,
	"in": true, "a": true, "me": true, "all": true,
}

var identifySQL = fmt.Sprintf(`
SELECT p.id AS product_id, p.name AS product_name
FROM products p
WHERE LOWER(p.name) LIKE $1
LIMIT %d`, resultLimit)

var pricedSQL = fmt.Sprintf(`
SELECT p.id AS product_id, p.name AS product_name, pl.name AS platform_name,
       cp.price AS current_price, cp.original_price, cp.discount_percentage,
       cp.is_available
FROM products p
JOIN current_prices cp ON cp.product_id = p.id
JOIN platforms pl ON pl.id = cp.platform_id
WHERE LOWER(p.name) LIKE $1 AND cp.is_available
ORDER BY cp.price ASC
LIMIT %d`, resultLimit)

var pricedOuterSQL = fmt.Sprintf(`
SELECT p.id AS product_id, p.name AS product_name, pl.name AS platform_name,
       cp.price AS current_price, cp.original_price, cp.discount_percentage,
       cp.is_available
FROM products p
LEFT JOIN current_prices cp ON cp.product_id = p.id
LEFT JOIN platforms pl ON pl.id = cp.platform_id
WHERE LOWER(p.name) LIKE $1
ORDER BY cp.price ASC
LIMIT %d`, resultLimit)

// SQLRunner implements domain.QueryRunner against a relational store.
type SQLRunner struct {
	q      Querier
	logger *slog.Logger
}

func NewSQLRunner(q Querier, logger *slog.Logger) *SQLRunner {
	return &SQLRunner{q: q, logger: logger}
}

// Run maps the step description onto one of the prepared query shapes.
// Relaxed retries widen the name filter and drop the availability filter;
// outer-join retries switch the join type.
func (r *SQLRunner) Run(ctx context.Context, description string, tables []string) ([]domain.Row, error) {
	lower := strings.ToLower(description)
	relaxed := strings.Contains(lower, "relaxed")
	outer := strings.Contains(lower, "outer join")

	pattern := "%"
	if product := ExtractProduct(description); product != "" && !relaxed {
		pattern = "%" + strings.ToLower(product) + "%"
	}

	sqlText := pricedSQL
	switch {
	case strings.HasPrefix(lower, "identify"):
		sqlText = identifySQL
	case outer, relaxed:
		sqlText = pricedOuterSQL
	}

	r.logger.Debug("running step query", "pattern", pattern, "tables", len(tables), "relaxed", relaxed, "outer", outer)
	return r.q.Query(ctx, sqlText, pattern)
}

// ExtractProduct pulls a product name out of free-form text: a known
// product word wins, otherwise the word following a search keyword.
// Matching is whole-word so "prices" never matches "rice".
func ExtractProduct(text string) string {
	words := strings.Fields(strings.ToLower(text))
	for i := range words {
		words[i] = strings.Trim(words[i], ".,:?")
	}
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}
	for _, product := range knownProducts {
		if wordSet[product] {
			// Prefer the singular so the LIKE pattern also matches it.
			if singular := strings.TrimSuffix(product, "s"); singular != product && knownProduct(singular) {
				return singular
			}
			return product
		}
	}
	for i, word := range words {
		if searchKeywords[word] && i+1 < len(words) && !stopwords[words[i+1]] {
			return words[i+1]
		}
	}
	return ""
}

func knownProduct(word string) bool {
	for _, p := range knownProducts {
		if p == word {
			return true
		}
	}
	return false
}

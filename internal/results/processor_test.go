package results_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealquery/internal/domain"
	"dealquery/internal/results"
	"dealquery/internal/testutil"
)

func newProcessor(t *testing.T, threshold int) (*results.Processor, *testutil.MockCache) {
	t.Helper()
	cache := &testutil.MockCache{}
	p := results.NewProcessor(cache, slog.New(slog.NewTextHandler(io.Discard, nil)), results.Options{LargeResultThreshold: threshold})
	return p, cache
}

func priceRows(n int) []domain.Row {
	platforms := []string{"blinkit", "zepto", "instamart"}
	rows := make([]domain.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, domain.Row{
			"product_name":  fmt.Sprintf("product_%03d", i),
			"platform_name": platforms[i%len(platforms)],
			"current_price": float64(10 + i),
		})
	}
	return rows
}

func TestProcess_RejectsBadSamplingConfig(t *testing.T) {
	p, _ := newProcessor(t, 10)

	_, err := p.Process(context.Background(), nil, "q",
		domain.SampleSpec{Method: "bogus", Size: 5}, domain.PageSpec{}, domain.FormatRaw)
	var serr *domain.SamplingConfigError
	require.ErrorAs(t, err, &serr)

	_, err = p.Process(context.Background(), nil, "q",
		domain.SampleSpec{Method: domain.SampleStratified, Size: 5}, domain.PageSpec{}, domain.FormatRaw)
	require.ErrorAs(t, err, &serr)
}

func TestProcess_RejectsUnknownFormat(t *testing.T) {
	p, _ := newProcessor(t, 10)
	_, err := p.Process(context.Background(), nil, "q",
		domain.SampleSpec{Method: domain.SampleNone}, domain.PageSpec{}, "csv")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestProcess_SamplingOnlyAboveThreshold(t *testing.T) {
	p, _ := newProcessor(t, 10)
	spec := domain.SampleSpec{Method: domain.SampleTopN, Size: 5}

	small, err := p.Process(context.Background(), priceRows(10), "small", spec, domain.PageSpec{}, domain.FormatRaw)
	require.NoError(t, err)
	assert.False(t, small.Sampled)
	assert.Equal(t, 10, small.TotalResults)

	large, err := p.Process(context.Background(), priceRows(20), "large", spec, domain.PageSpec{}, domain.FormatRaw)
	require.NoError(t, err)
	assert.True(t, large.Sampled)
	assert.Equal(t, domain.SampleTopN, large.SamplingMethod)
	assert.Equal(t, 5, large.TotalResults)
	// top_n keeps the prefix in order
	assert.Equal(t, "product_000", large.Data[0].Product())
}

func TestProcess_SystematicSamplingEvenlySpaced(t *testing.T) {
	p, _ := newProcessor(t, 10)
	spec := domain.SampleSpec{Method: domain.SampleSystematic, Size: 10}

	res, err := p.Process(context.Background(), priceRows(100), "sys", spec,
		domain.PageSpec{PageSize: 100}, domain.FormatRaw)
	require.NoError(t, err)
	require.Equal(t, 10, res.TotalResults)
	assert.Equal(t, "product_000", res.Data[0].Product())
	assert.Equal(t, "product_010", res.Data[1].Product())
	assert.Equal(t, "product_090", res.Data[9].Product())
}

func TestProcess_StratifiedProportionalWithinOne(t *testing.T) {
	p, _ := newProcessor(t, 10)
	var rows []domain.Row
	for i := 0; i < 60; i++ {
		rows = append(rows, domain.Row{"product_name": fmt.Sprintf("a%d", i), "platform_name": "blinkit", "current_price": 10.0})
	}
	for i := 0; i < 30; i++ {
		rows = append(rows, domain.Row{"product_name": fmt.Sprintf("b%d", i), "platform_name": "zepto", "current_price": 20.0})
	}

	spec := domain.SampleSpec{Method: domain.SampleStratified, Size: 9, StratifyColumn: "platform_name"}
	res, err := p.Process(context.Background(), rows, "strat", spec, domain.PageSpec{PageSize: 100}, domain.FormatRaw)
	require.NoError(t, err)
	require.True(t, res.Sampled)
	require.LessOrEqual(t, res.TotalResults, 9)

	counts := map[string]int{}
	for _, row := range res.Data {
		counts[row.Platform()]++
	}
	// 2:1 population split, so a sample of 9 allocates 6 and 3, within one.
	assert.InDelta(t, 6, counts["blinkit"], 1)
	assert.InDelta(t, 3, counts["zepto"], 1)
}

func TestProcess_PaginationPastEndIsEmptyNotError(t *testing.T) {
	p, _ := newProcessor(t, 1000)
	res, err := p.Process(context.Background(), priceRows(3), "page-past-end",
		domain.SampleSpec{Method: domain.SampleNone}, domain.PageSpec{Page: 50, PageSize: 20}, domain.FormatRaw)
	require.NoError(t, err)
	assert.Empty(t, res.Data)
	assert.Equal(t, 3, res.TotalResults)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, 50, res.Page)
}

func TestProcess_PagesConcatenateToWholeResult(t *testing.T) {
	p, _ := newProcessor(t, 1000)
	rows := priceRows(45)

	var seen []string
	for page := 1; page <= 3; page++ {
		res, err := p.Process(context.Background(), rows, "concat",
			domain.SampleSpec{Method: domain.SampleNone},
			domain.PageSpec{Page: page, PageSize: 20}, domain.FormatRaw)
		require.NoError(t, err)
		assert.Equal(t, 45, res.TotalResults)
		assert.Equal(t, 3, res.TotalPages)
		for _, row := range res.Data {
			seen = append(seen, row.Product())
		}
	}
	assert.Len(t, seen, 45)
}

func TestProcess_ComparisonPicksCheapestPlatform(t *testing.T) {
	p, _ := newProcessor(t, 1000)
	rows := []domain.Row{
		{"product_name": "onion", "platform_name": "blinkit", "current_price": 45.0},
		{"product_name": "onion", "platform_name": "zepto", "current_price": 42.0},
		{"product_name": "onion", "platform_name": "instamart", "current_price": 48.0},
	}

	res, err := p.Process(context.Background(), rows, "cmp",
		domain.SampleSpec{Method: domain.SampleNone}, domain.PageSpec{}, domain.FormatComparison)
	require.NoError(t, err)
	require.Len(t, res.Data, 1)

	cmp := res.Data[0]
	assert.Equal(t, "zepto", cmp["cheapest_platform"])
	assert.Equal(t, "instamart", cmp["most_expensive_platform"])
	priceRange, ok := cmp["price_range"].(domain.Row)
	require.True(t, ok)
	assert.Equal(t, 42.0, priceRange["min"])
	assert.Equal(t, 48.0, priceRange["max"])
}

func TestProcess_SummaryStatistics(t *testing.T) {
	p, _ := newProcessor(t, 1000)
	rows := []domain.Row{
		{"product_name": "a", "platform_name": "blinkit", "current_price": 10.0},
		{"product_name": "b", "platform_name": "zepto", "current_price": 20.0},
		{"product_name": "c", "platform_name": "blinkit", "current_price": 30.0},
		{"product_name": "d", "platform_name": "zepto", "current_price": 40.0},
	}

	res, err := p.Process(context.Background(), rows, "sum",
		domain.SampleSpec{Method: domain.SampleNone}, domain.PageSpec{}, domain.FormatSummary)
	require.NoError(t, err)
	require.Len(t, res.Data, 1)

	stats, ok := res.Data[0]["price_statistics"].(domain.Row)
	require.True(t, ok)
	assert.Equal(t, 10.0, stats["min_price"])
	assert.Equal(t, 40.0, stats["max_price"])
	assert.Equal(t, 25.0, stats["average_price"])
	assert.Equal(t, 25.0, stats["median_price"])
	assert.Equal(t, 4, res.Data[0]["unique_products"])
	assert.Equal(t, 2, res.Data[0]["unique_platforms"])
}

func TestProcess_StructuredComputesSavings(t *testing.T) {
	p, _ := newProcessor(t, 1000)
	rows := []domain.Row{
		{"product_name": "onion", "platform_name": "blinkit", "current_price": 45.0, "original_price": 60.0},
		{"product_name": "milk", "platform_name": "zepto", "current_price": 30.0},
	}

	res, err := p.Process(context.Background(), rows, "structured",
		domain.SampleSpec{Method: domain.SampleNone}, domain.PageSpec{}, domain.FormatStructured)
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, 15.0, res.Data[0]["savings"])
	assert.Nil(t, res.Data[1]["savings"])
}

func TestProcess_ChartDataBucketsAndPlatformAverages(t *testing.T) {
	p, _ := newProcessor(t, 1000)
	res, err := p.Process(context.Background(), priceRows(30), "chart",
		domain.SampleSpec{Method: domain.SampleNone}, domain.PageSpec{PageSize: 100}, domain.FormatChartData)
	require.NoError(t, err)
	require.Len(t, res.Data, 1)

	dist, ok := res.Data[0]["price_distribution"].([]domain.Row)
	require.True(t, ok)
	assert.NotEmpty(t, dist)

	cmp, ok := res.Data[0]["platform_comparison"].([]domain.Row)
	require.True(t, ok)
	assert.Len(t, cmp, 3)
}

func TestProcess_CacheRoundTrip(t *testing.T) {
	p, _ := newProcessor(t, 1000)
	rows := priceRows(5)
	spec := domain.SampleSpec{Method: domain.SampleNone}
	page := domain.PageSpec{Page: 1, PageSize: 20}

	first, err := p.Process(context.Background(), rows, "cached query", spec, page, domain.FormatRaw)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := p.Process(context.Background(), nil, "cached query", spec, page, domain.FormatRaw)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.TotalResults, second.TotalResults)
	assert.Len(t, second.Data, 5)

	// A different page is a different key, so the empty row set shows.
	other, err := p.Process(context.Background(), nil, "cached query", spec, domain.PageSpec{Page: 2, PageSize: 20}, domain.FormatRaw)
	require.NoError(t, err)
	assert.False(t, other.FromCache)
	assert.Equal(t, 0, other.TotalResults)
}

func TestProcess_NotesCachedWithResult(t *testing.T) {
	p, _ := newProcessor(t, 1000)
	rows := priceRows(3)
	spec := domain.SampleSpec{Method: domain.SampleNone}
	page := domain.PageSpec{Page: 1, PageSize: 20}

	first, err := p.Process(context.Background(), rows, "noted query", spec, page, domain.FormatRaw,
		"high-cost join between products and price_history, consider narrowing the query")
	require.NoError(t, err)
	require.Len(t, first.Notes, 1)

	second, err := p.Process(context.Background(), nil, "noted query", spec, page, domain.FormatRaw)
	require.NoError(t, err)
	require.True(t, second.FromCache)
	assert.Equal(t, first.Notes, second.Notes)
}

func TestProcess_CacheFailuresDegrade(t *testing.T) {
	cache := &testutil.MockCache{GetErr: errors.New("cache down"), SetErr: errors.New("cache down")}
	p := results.NewProcessor(cache, slog.New(slog.NewTextHandler(io.Discard, nil)), results.Options{})

	res, err := p.Process(context.Background(), priceRows(5), "degraded",
		domain.SampleSpec{Method: domain.SampleNone}, domain.PageSpec{}, domain.FormatRaw)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, 5, res.TotalResults)
}

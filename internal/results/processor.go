// Package results shapes raw execution rows into a bounded, reproducible,
// cache-friendly response: statistical sampling for oversized result sets,
// pagination, a closed set of output formats, and TTL caching of the fully
// processed payload.
package results

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"dealquery/internal/domain"
)

// DefaultCacheTTL bounds staleness of processed payloads.
const DefaultCacheTTL = 5 * time.Minute

// Processor applies the cache/sample/page/format chain. Cache failures are
// never fatal; the processor degrades to computing every request.
type Processor struct {
	cache     domain.Cache
	logger    *slog.Logger
	threshold int
	ttl       time.Duration
}

type Options struct {
	LargeResultThreshold int
	CacheTTL             time.Duration
}

func NewProcessor(cache domain.Cache, logger *slog.Logger, opts Options) *Processor {
	threshold := opts.LargeResultThreshold
	if threshold <= 0 {
		threshold = DefaultLargeResultThreshold
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Processor{cache: cache, logger: logger, threshold: threshold, ttl: ttl}
}

// Cached returns the processed payload for an identical earlier request, if
// present. Callers use this to skip plan execution entirely on a hit.
func (p *Processor) Cached(ctx context.Context, queryText string, sampleSpec domain.SampleSpec, pageSpec domain.PageSpec, format domain.Format) (domain.ProcessedResult, bool) {
	if format == "" {
		format = domain.FormatStructured
	}
	key := domain.CacheKey(queryText, sampleSpec, pageSpec.Normalize(), format)
	return p.cacheGet(ctx, key)
}

// Process runs the full chain for one request. Identical requests hit the
// cache and skip every stage. Two concurrent misses for the same key may
// both compute and write; the writes are idempotent so neither is wrong.
// Notes are folded into the result before the cache write so a later hit
// replays the same diagnostics the first caller saw.
func (p *Processor) Process(ctx context.Context, rows []domain.Row, queryText string, sampleSpec domain.SampleSpec, pageSpec domain.PageSpec, format domain.Format, notes ...string) (domain.ProcessedResult, error) {
	if format == "" {
		format = domain.FormatStructured
	}
	if !format.Valid() {
		return domain.ProcessedResult{}, domain.ErrValidation("unknown result format %q", format)
	}
	if err := sampleSpec.Validate(); err != nil {
		return domain.ProcessedResult{}, err
	}
	pageSpec = pageSpec.Normalize()

	key := domain.CacheKey(queryText, sampleSpec, pageSpec, format)
	if cached, ok := p.cacheGet(ctx, key); ok {
		return cached, nil
	}

	sampled := false
	if len(rows) > p.threshold && sampleSpec.Method != domain.SampleNone && sampleSpec.Method != "" {
		before := len(rows)
		rows = sample(rows, sampleSpec)
		sampled = len(rows) < before
	}

	pageRows, totalResults, totalPages := paginate(rows, pageSpec)

	result := domain.ProcessedResult{
		Data:         formatRows(pageRows, format),
		TotalResults: totalResults,
		TotalPages:   totalPages,
		Page:         pageSpec.Page,
		PageSize:     pageSpec.PageSize,
		Sampled:      sampled,
		Format:       format,
		ProcessedAt:  time.Now().UTC(),
	}
	if sampled {
		result.SamplingMethod = sampleSpec.Method
	}
	result.Notes = append(result.Notes, notes...)

	p.cacheSet(ctx, key, result)
	return result, nil
}

// paginate slices one page out of rows. A page past the end yields empty
// data with the totals intact rather than an error.
func paginate(rows []domain.Row, spec domain.PageSpec) ([]domain.Row, int, int) {
	total := len(rows)
	totalPages := (total + spec.PageSize - 1) / spec.PageSize

	start := (spec.Page - 1) * spec.PageSize
	if start >= total {
		return nil, total, totalPages
	}
	end := start + spec.PageSize
	if end > total {
		end = total
	}
	return rows[start:end], total, totalPages
}

func (p *Processor) cacheGet(ctx context.Context, key string) (domain.ProcessedResult, bool) {
	if p.cache == nil {
		return domain.ProcessedResult{}, false
	}
	payload, hit, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("cache read failed, computing without cache", "error", err)
		return domain.ProcessedResult{}, false
	}
	if !hit {
		return domain.ProcessedResult{}, false
	}
	var result domain.ProcessedResult
	if err := json.Unmarshal(payload, &result); err != nil {
		p.logger.Warn("cache payload unreadable, treating as miss", "key", key, "error", err)
		return domain.ProcessedResult{}, false
	}
	result.FromCache = true
	return result, true
}

func (p *Processor) cacheSet(ctx context.Context, key string, result domain.ProcessedResult) {
	if p.cache == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		p.logger.Warn("cache marshal failed, skipping write", "error", err)
		return
	}
	if err := p.cache.Set(ctx, key, payload, p.ttl); err != nil {
		p.logger.Warn("cache write failed, response served uncached", "error", err)
	}
}

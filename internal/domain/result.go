package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Product returns the row's product name, tolerating both the joined and
// the bare column spelling.
func (r Row) Product() string {
	if v, ok := r["product_name"].(string); ok {
		return v
	}
	if v, ok := r["name"].(string); ok {
		return v
	}
	return ""
}

// Platform returns the row's platform name, or "" when absent.
func (r Row) Platform() string {
	v, _ := r["platform_name"].(string)
	return v
}

// Price returns the row's current price. ok is false when the value is
// missing or not numeric.
func (r Row) Price() (float64, bool) {
	for _, key := range []string{"current_price", "price"} {
		switch v := r[key].(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
	}
	return 0, false
}

// SampleMethod selects one of the supported statistical sampling methods.
type SampleMethod string

const (
	SampleNone       SampleMethod = "none"
	SampleRandom     SampleMethod = "random"
	SampleSystematic SampleMethod = "systematic"
	SampleStratified SampleMethod = "stratified"
	SampleTopN       SampleMethod = "top_n"
)

// SampleSpec configures statistical sampling of large result sets.
type SampleSpec struct {
	Method         SampleMethod
	Size           int
	StratifyColumn string
}

// Validate rejects invalid method/size combinations before any execution.
func (s SampleSpec) Validate() error {
	switch s.Method {
	case SampleNone, "":
		return nil
	case SampleRandom, SampleSystematic, SampleTopN:
	case SampleStratified:
		if s.StratifyColumn == "" {
			return ErrSamplingConfig("stratified sampling requires a stratify column")
		}
	default:
		return ErrSamplingConfig("unknown sampling method %q", s.Method)
	}
	if s.Size < 1 {
		return ErrSamplingConfig("sample size must be >= 1, got %d", s.Size)
	}
	return nil
}

// Pagination bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageSpec selects one page of the processed result set.
type PageSpec struct {
	Page     int
	PageSize int
}

// Normalize clamps the spec into valid bounds, applying defaults for zero
// values.
func (p PageSpec) Normalize() PageSpec {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Format is the closed set of result output shapes, each backed by one
// transformation function in the result processor.
type Format string

const (
	FormatRaw        Format = "raw"
	FormatStructured Format = "structured"
	FormatSummary    Format = "summary"
	FormatComparison Format = "comparison"
	FormatChartData  Format = "chart_data"
)

// Valid reports whether f names a known format.
func (f Format) Valid() bool {
	switch f {
	case FormatRaw, FormatStructured, FormatSummary, FormatComparison, FormatChartData:
		return true
	}
	return false
}

// ProcessedResult is the bounded, cache-friendly response produced by the
// result processor.
type ProcessedResult struct {
	Data           []Row        `json:"data"`
	TotalResults   int          `json:"total_results"`
	TotalPages     int          `json:"total_pages"`
	Page           int          `json:"page"`
	PageSize       int          `json:"page_size"`
	Sampled        bool         `json:"sampled"`
	SamplingMethod SampleMethod `json:"sampling_method,omitempty"`
	Format         Format       `json:"format"`
	FromCache      bool         `json:"from_cache"`
	ProcessedAt    time.Time    `json:"processed_at"`
	Notes          []string     `json:"notes,omitempty"`
}

// CacheKey is a deterministic hash of the normalized query text plus all
// spec parameters. Identical requests always map to the same key.
func CacheKey(query string, sample SampleSpec, page PageSpec, format Format) string {
	page = page.Normalize()
	parts := []string{
		normalizeQuery(query),
		fmt.Sprintf("sample_%s_%d_%s", sample.Method, sample.Size, sample.StratifyColumn),
		fmt.Sprintf("page_%d_%d", page.Page, page.PageSize),
		fmt.Sprintf("format_%s", format),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"dealquery/internal/domain"
)

// Catalog holds the current schema snapshot and rebuilds it wholesale on
// demand. Rebuild uses copy-then-swap: in-flight queries keep reading the
// old snapshot until the new one is fully built.
type Catalog struct {
	source   domain.SchemaSource
	embedder domain.Embedder
	hints    *Hints
	limiter  *rate.Limiter
	logger   *slog.Logger

	current atomic.Pointer[Snapshot]
	version atomic.Int64
}

// Options tunes catalog construction.
type Options struct {
	// EmbedRateLimit bounds calls per second to the embedding service
	// during a rebuild. Zero means no limit.
	EmbedRateLimit float64
}

// New creates an empty catalog. Call Rebuild before serving queries.
func New(source domain.SchemaSource, embedder domain.Embedder, hints *Hints, logger *slog.Logger, opts Options) *Catalog {
	if hints == nil {
		hints = &Hints{}
	}
	var limiter *rate.Limiter
	if opts.EmbedRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.EmbedRateLimit), 1)
	}
	c := &Catalog{
		source:   source,
		embedder: embedder,
		hints:    hints,
		limiter:  limiter,
		logger:   logger,
	}
	c.current.Store(newSnapshot(0, nil, nil))
	return c
}

// Current returns the active snapshot. Never nil.
func (c *Catalog) Current() *Snapshot {
	return c.current.Load()
}

// Hints returns the catalog hints (core tables, synonyms).
func (c *Catalog) Hints() *Hints {
	return c.hints
}

// Rebuild introspects the schema source, recomputes edge costs from fresh
// row-count statistics, re-embeds every table descriptor, and atomically
// swaps in the new snapshot.
func (c *Catalog) Rebuild(ctx context.Context) error {
	tables, err := c.source.Tables(ctx)
	if err != nil {
		return fmt.Errorf("introspect tables: %w", err)
	}
	edges, err := c.source.Relationships(ctx)
	if err != nil {
		return fmt.Errorf("introspect relationships: %w", err)
	}
	edges = append(edges, c.virtualEdges(tables)...)

	rows := make(map[string]int64, len(tables))
	for _, t := range tables {
		rows[t.Name] = t.RowCount
	}
	for i := range edges {
		edges[i].EstimatedCost = joinCost(rows[edges[i].TableA], rows[edges[i].TableB])
	}

	for i := range tables {
		if tables[i].Description == "" {
			tables[i].Description = c.describe(&tables[i])
		}
	}

	if err := c.embedAll(ctx, tables); err != nil {
		return fmt.Errorf("embed descriptors: %w", err)
	}

	snap := newSnapshot(c.version.Add(1), tables, edges)
	c.current.Store(snap)
	c.logger.Info("catalog rebuilt",
		"version", snap.Version,
		"tables", len(snap.Tables),
		"edges", len(snap.Edges))
	return nil
}

// virtualEdges materializes hint-declared relations between known tables.
func (c *Catalog) virtualEdges(tables []domain.TableDescriptor) []domain.RelationshipEdge {
	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		known[t.Name] = true
	}
	var out []domain.RelationshipEdge
	for _, vr := range c.hints.VirtualRelations {
		if !known[vr.TableA] || !known[vr.TableB] {
			continue
		}
		out = append(out, domain.RelationshipEdge{
			TableA:     vr.TableA,
			TableB:     vr.TableB,
			JoinColumn: vr.JoinColumn,
		})
	}
	return out
}

func (c *Catalog) embedAll(ctx context.Context, tables []domain.TableDescriptor) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range tables {
		i := i
		g.Go(func() error {
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			vec, err := c.embedder.Embed(ctx, tables[i].Description)
			if err != nil {
				return fmt.Errorf("embed %s: %w", tables[i].Name, err)
			}
			tables[i].Embedding = vec
			return nil
		})
	}
	return g.Wait()
}

// describe derives the descriptor text a table is embedded under: humanized
// name, domain keyword expansion, and a bounded column summary.
func (c *Catalog) describe(t *domain.TableDescriptor) string {
	var parts []string
	parts = append(parts, "Table: "+humanize(t.Name))

	if override, ok := c.hints.Descriptions[t.Name]; ok {
		parts = append(parts, "Purpose: "+override)
	}

	// Sorted so descriptor text (and therefore embeddings) is stable.
	keys := make([]string, 0, len(c.hints.Synonyms))
	for key := range c.hints.Synonyms {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.Contains(t.Name, key) {
			parts = append(parts, "Related terms: "+strings.Join(c.hints.Synonyms[key], ", "))
		}
	}

	cols := make([]string, 0, len(t.Columns))
	for i, col := range t.Columns {
		if i >= 10 {
			break
		}
		cols = append(cols, col.Name+" ("+columnKind(col)+")")
	}
	if len(cols) > 0 {
		parts = append(parts, "Contains: "+strings.Join(cols, ", "))
	}
	return strings.Join(parts, ". ")
}

// columnKind maps a declared type to the coarse kind used in descriptor
// text, so the embedding sees "price/amount" rather than "numeric(10,2)".
func columnKind(c domain.ColumnDescriptor) string {
	t := strings.ToLower(c.Type)
	switch {
	case strings.Contains(t, "char") || strings.Contains(t, "text"):
		return "text"
	case strings.Contains(t, "decimal") || strings.Contains(t, "numeric") || strings.Contains(t, "real") || strings.Contains(t, "float") || strings.Contains(t, "double"):
		return "price/amount"
	case strings.Contains(t, "int"):
		return "number"
	case strings.Contains(t, "bool"):
		return "yes/no"
	case strings.Contains(t, "timestamp") || strings.Contains(t, "date"):
		return "date/time"
	default:
		return t
	}
}

func humanize(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

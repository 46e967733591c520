package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealquery/internal/catalog"
	"dealquery/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func demoCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	tables, edges := testutil.DemoSchema()
	hints := loadDemoHints(t)
	c := catalog.New(
		&catalog.StaticSource{TableSet: tables, EdgeSet: edges},
		&testutil.HashEmbedder{},
		hints,
		discardLogger(),
		catalog.Options{},
	)
	require.NoError(t, c.Rebuild(context.Background()))
	return c
}

func loadDemoHints(t *testing.T) *catalog.Hints {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hints.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testutil.DemoHintsYAML), 0o600))
	hints, err := catalog.LoadHints(path)
	require.NoError(t, err)
	return hints
}

func TestLoadHints(t *testing.T) {
	hints := loadDemoHints(t)

	assert.Equal(t, []string{"products", "current_prices", "platforms"}, hints.CoreTables)
	assert.Contains(t, hints.Synonyms["price"], "savings")
	assert.Len(t, hints.VirtualRelations, 1)
}

func TestLoadHints_EmptyPath(t *testing.T) {
	hints, err := catalog.LoadHints("")
	require.NoError(t, err)
	assert.Empty(t, hints.CoreTables)
}

func TestRebuild_BuildsSnapshot(t *testing.T) {
	c := demoCatalog(t)
	snap := c.Current()

	assert.EqualValues(t, 1, snap.Version)
	assert.Len(t, snap.Tables, 7)
	// FK edges plus the virtual relation from the hints file.
	assert.Len(t, snap.Edges, 8)

	prices, ok := snap.Table("current_prices")
	require.True(t, ok)
	assert.NotEmpty(t, prices.Embedding)
	assert.Contains(t, prices.Description, "cost")             // synonym expansion
	assert.Contains(t, prices.Description, "price/amount")     // column kind summary
	assert.Contains(t, prices.Description, "tracks real-time") // hints override
}

func TestRebuild_EdgeCostsMonotone(t *testing.T) {
	c := demoCatalog(t)
	snap := c.Current()

	var histCost, discountCost float64
	for _, e := range snap.EdgesAmong([]string{"price_history", "discounts", "products"}) {
		switch {
		case e.Touches("price_history"):
			histCost = e.EstimatedCost
		case e.Touches("discounts"):
			discountCost = e.EstimatedCost
		}
	}
	require.Positive(t, histCost)
	require.Positive(t, discountCost)
	// price_history is orders of magnitude larger than discounts, so its
	// join with products must cost more.
	assert.Greater(t, histCost, discountCost)
}

func TestRebuild_SwapKeepsOldSnapshotOnFailure(t *testing.T) {
	tables, edges := testutil.DemoSchema()
	embedder := &testutil.HashEmbedder{}
	c := catalog.New(
		&catalog.StaticSource{TableSet: tables, EdgeSet: edges},
		embedder, &catalog.Hints{}, discardLogger(), catalog.Options{},
	)
	require.NoError(t, c.Rebuild(context.Background()))
	first := c.Current()

	embedder.Err = errors.New("embedding service down")
	require.Error(t, c.Rebuild(context.Background()))
	assert.Same(t, first, c.Current())
}

func TestEdgesAmong_RestrictsToSet(t *testing.T) {
	c := demoCatalog(t)
	edges := c.Current().EdgesAmong([]string{"products", "current_prices"})

	require.Len(t, edges, 1)
	assert.Equal(t, "product_id", edges[0].JoinColumn)
}

func TestSQLiteSource(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "demo.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ddl := `
		CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT);
		CREATE TABLE current_prices (
			product_id INTEGER REFERENCES products(id),
			price NUMERIC
		);
		INSERT INTO products (name) VALUES ('onion'), ('milk');
	`
	_, err = db.Exec(ddl)
	require.NoError(t, err)

	src := catalog.NewSQLiteSource(db)
	ctx := context.Background()

	tables, err := src.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	byName := map[string]int64{}
	for _, tbl := range tables {
		byName[tbl.Name] = tbl.RowCount
	}
	assert.EqualValues(t, 2, byName["products"])
	assert.EqualValues(t, 0, byName["current_prices"])

	edges, err := src.Relationships(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "current_prices", edges[0].TableA)
	assert.Equal(t, "products", edges[0].TableB)
	assert.Equal(t, "product_id", edges[0].JoinColumn)
}

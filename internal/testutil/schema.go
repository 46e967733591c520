package testutil

import "dealquery/internal/domain"

// DemoSchema returns a small quick-commerce schema used across tests: the
// core price-lookup tables plus a few satellites, with FK-shaped edges.
func DemoSchema() ([]domain.TableDescriptor, []domain.RelationshipEdge) {
	tables := []domain.TableDescriptor{
		{
			Name:     "products",
			RowCount: 50000,
			Columns: []domain.ColumnDescriptor{
				{Name: "id", Type: "integer"},
				{Name: "name", Type: "text"},
				{Name: "brand_id", Type: "integer"},
				{Name: "category_id", Type: "integer"},
			},
		},
		{
			Name:     "platforms",
			RowCount: 12,
			Columns: []domain.ColumnDescriptor{
				{Name: "id", Type: "integer"},
				{Name: "name", Type: "text"},
				{Name: "is_active", Type: "boolean"},
			},
		},
		{
			Name:     "current_prices",
			RowCount: 600000,
			Columns: []domain.ColumnDescriptor{
				{Name: "product_id", Type: "integer"},
				{Name: "platform_id", Type: "integer"},
				{Name: "price", Type: "numeric"},
				{Name: "original_price", Type: "numeric"},
				{Name: "discount_percentage", Type: "numeric"},
				{Name: "is_available", Type: "boolean"},
				{Name: "last_updated", Type: "timestamp"},
			},
		},
		{
			Name:     "price_history",
			RowCount: 9000000,
			Columns: []domain.ColumnDescriptor{
				{Name: "product_id", Type: "integer"},
				{Name: "platform_id", Type: "integer"},
				{Name: "price", Type: "numeric"},
				{Name: "recorded_at", Type: "timestamp"},
			},
		},
		{
			Name:     "discounts",
			RowCount: 8000,
			Columns: []domain.ColumnDescriptor{
				{Name: "id", Type: "integer"},
				{Name: "product_id", Type: "integer"},
				{Name: "percentage", Type: "numeric"},
				{Name: "is_active", Type: "boolean"},
			},
		},
		{
			Name:     "product_categories",
			RowCount: 300,
			Columns: []domain.ColumnDescriptor{
				{Name: "id", Type: "integer"},
				{Name: "name", Type: "text"},
			},
		},
		{
			Name:     "delivery_estimates",
			RowCount: 4000,
			Columns: []domain.ColumnDescriptor{
				{Name: "platform_id", Type: "integer"},
				{Name: "minutes", Type: "integer"},
			},
		},
	}

	edges := []domain.RelationshipEdge{
		{TableA: "current_prices", TableB: "products", JoinColumn: "product_id"},
		{TableA: "current_prices", TableB: "platforms", JoinColumn: "platform_id"},
		{TableA: "price_history", TableB: "products", JoinColumn: "product_id"},
		{TableA: "price_history", TableB: "platforms", JoinColumn: "platform_id"},
		{TableA: "discounts", TableB: "products", JoinColumn: "product_id"},
		{TableA: "products", TableB: "product_categories", JoinColumn: "category_id"},
		{TableA: "delivery_estimates", TableB: "platforms", JoinColumn: "platform_id"},
	}

	return tables, edges
}

// DemoHintsYAML is a catalog hints file matching DemoSchema.
const DemoHintsYAML = `core_tables:
  - products
  - current_prices
  - platforms
synonyms:
  price:
    - cost
    - discount
    - savings
  discount:
    - deal
    - offer
    - sale
descriptions:
  products: stores product catalog information including names, brands, categories
  current_prices: tracks real-time product prices across different platforms
virtual_relations:
  - table_a: delivery_estimates
    table_b: current_prices
    join_column: platform_id
`

package domain

// ColumnDescriptor describes one column of a catalog table.
type ColumnDescriptor struct {
	Name        string
	Type        string
	Description string
}

// TableDescriptor identifies one catalog entry. Immutable after catalog
// build; the whole catalog snapshot is rebuilt when the schema changes.
type TableDescriptor struct {
	Name        string
	Description string
	Columns     []ColumnDescriptor
	Embedding   []float32
	RowCount    int64
}

// Column returns the named column descriptor, or false if absent.
func (t *TableDescriptor) Column(name string) (ColumnDescriptor, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// RelationshipEdge is an undirected join link between two tables. Cost is a
// symmetric, monotonic function of both tables' approximate row counts and
// is recomputed only when row-count statistics are refreshed, not per query.
type RelationshipEdge struct {
	TableA        string
	TableB        string
	JoinColumn    string
	EstimatedCost float64
}

// Other returns the edge endpoint that is not the given table.
func (e RelationshipEdge) Other(table string) string {
	if e.TableA == table {
		return e.TableB
	}
	return e.TableA
}

// Touches reports whether the edge connects the given table.
func (e RelationshipEdge) Touches(table string) bool {
	return e.TableA == table || e.TableB == table
}

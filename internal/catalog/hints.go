package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VirtualRelation declares a join relationship the store's foreign keys do
// not capture. Injected into the relationship graph as an extra edge.
type VirtualRelation struct {
	TableA     string `yaml:"table_a"`
	TableB     string `yaml:"table_b"`
	JoinColumn string `yaml:"join_column"`
}

// Hints is hand-authored catalog metadata: the core table set every query
// falls back to, domain keyword synonyms used when building descriptor
// text, and virtual relations.
type Hints struct {
	// CoreTables is the minimal table set needed for any price lookup.
	// The selector always unions these into its candidate set.
	CoreTables []string `yaml:"core_tables"`

	// Synonyms maps a substring of a table name to domain words appended
	// to its descriptor text (e.g. price -> cost, discount, savings).
	Synonyms map[string][]string `yaml:"synonyms"`

	// Descriptions overrides the derived description for named tables.
	Descriptions map[string]string `yaml:"descriptions"`

	VirtualRelations []VirtualRelation `yaml:"virtual_relations"`
}

// LoadHints reads hints from a YAML file. An empty path yields empty hints.
func LoadHints(path string) (*Hints, error) {
	if path == "" {
		return &Hints{}, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("read hints %s: %w", path, err)
	}
	var h Hints
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parse hints %s: %w", path, err)
	}
	return &h, nil
}

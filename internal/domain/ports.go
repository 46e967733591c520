package domain

import (
	"context"
	"time"
)

// Embedder turns text into a fixed-length vector. It must be available at
// catalog-build time and at query time; implementations wrap an external
// embedding service.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// QueryRunner executes one step description against the relational store,
// scoped to the given tables. This is where the language-model SQL layer
// lives; it is entirely external to this module.
type QueryRunner interface {
	Run(ctx context.Context, stepDescription string, tables []string) ([]Row, error)
}

// Cache is the external cache service. Get returns (payload, true, nil) on
// a hit and (nil, false, nil) on a miss; errors mean the service is
// unavailable and callers must degrade rather than fail.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// SchemaSource provides table/column metadata, approximate row counts, and
// known relationships from the relational store's introspection interface.
type SchemaSource interface {
	Tables(ctx context.Context) ([]TableDescriptor, error)
	Relationships(ctx context.Context) ([]RelationshipEdge, error)
}

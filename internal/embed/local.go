// Package embed provides a local, deterministic embedder. It hashes words
// into a fixed-length bag-of-words vector, which gives texts that share
// vocabulary a high cosine similarity. It stands in wherever a real
// embedding service is not configured; the catalog and selector only see
// the domain.Embedder interface.
package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

const DefaultDim = 256

// Local implements domain.Embedder without any network dependency.
type Local struct {
	Dim int
}

// Embed hashes each word of text into a bucket and L2-normalizes the
// resulting count vector. Deterministic for identical input.
func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	dim := l.Dim
	if dim <= 0 {
		dim = DefaultDim
	}
	vec := make([]float32, dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(word, ".,:()")))
		vec[h.Sum32()%uint32(dim)]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= n
		}
	}
	return vec, nil
}

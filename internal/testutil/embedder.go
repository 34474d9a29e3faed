// Package testutil provides shared test doubles.
package testutil

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// EmbedderDim is the dimensionality of WordEmbedder vectors.
const EmbedderDim = 64

// WordEmbedder is a deterministic ai.Embedder for tests: bag-of-words
// vectors hashed into a fixed dimension. Identical text embeds identically;
// texts with disjoint vocabularies embed near-orthogonally. No network.
type WordEmbedder struct {
	Err       error // returned by Embed when set
	CallCount int
}

func (e *WordEmbedder) Name() string { return "test-word-embedder" }

func (e *WordEmbedder) Register(r api.Registry) {}

func (e *WordEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	e.CallCount++
	if e.Err != nil {
		return nil, e.Err
	}

	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text strings.Builder
		for _, p := range doc.Content {
			text.WriteString(p.Text)
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: WordVector(text.String()),
		})
	}
	return resp, nil
}

// WordVector hashes each lowercased token into one of EmbedderDim buckets.
func WordVector(text string) []float32 {
	vec := make([]float32, EmbedderDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%EmbedderDim]++
	}
	return vec
}

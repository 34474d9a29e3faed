package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/firebase/genkit/go/ai"
	chromem "github.com/philippgille/chromem-go"
)

// Collection names for the two indices.
const (
	CatalogCollection = "catalog"
	ContentCollection = "content"
)

// NewEmbeddingFunc bridges a Genkit ai.Embedder to chromem-go's
// EmbeddingFunc. Documents written through ChromemIndex always carry
// precomputed embeddings, so chromem only calls this as a fallback.
//
// chromem-go normalizes vectors itself, so no manual normalization is done.
func NewEmbeddingFunc(embedder ai.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
			Input: []*ai.Document{ai.DocumentFromText(text, nil)},
		})
		if err != nil {
			return nil, fmt.Errorf("embed failed: %w", err)
		}
		if len(resp.Embeddings) == 0 {
			return nil, fmt.Errorf("no embeddings returned")
		}
		return resp.Embeddings[0].Embedding, nil
	}
}

// ChromemIndex adapts a chromem-go collection to the Index interface.
//
// chromem-go has no transactions, so Replace takes a write lock for the
// whole delete-and-insert sequence and Query takes a read lock. Document IDs
// are tracked alongside the collection because ingestion repopulates every
// collection at process start.
type ChromemIndex struct {
	mu   sync.RWMutex
	coll *chromem.Collection
	ids  map[string]struct{}
}

// NewChromemIndex creates or opens the named collection in db.
func NewChromemIndex(db *chromem.DB, name string, embedFn chromem.EmbeddingFunc) (*ChromemIndex, error) {
	coll, err := db.GetOrCreateCollection(name, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("opening collection %q: %w", name, err)
	}
	return &ChromemIndex{coll: coll, ids: make(map[string]struct{})}, nil
}

func (x *ChromemIndex) Upsert(ctx context.Context, docs []Document) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.add(ctx, docs)
}

func (x *ChromemIndex) Replace(ctx context.Context, filter map[string]string, docs []Document) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(filter) > 0 {
		// Prune the ID set before the documents disappear from the
		// collection.
		for id := range x.ids {
			if matchesFilter(x.idMeta(ctx, id), filter) {
				delete(x.ids, id)
			}
		}
		if err := x.coll.Delete(ctx, filter, nil); err != nil {
			return fmt.Errorf("deleting by filter: %w", err)
		}
	}
	return x.add(ctx, docs)
}

func (x *ChromemIndex) Query(ctx context.Context, vector []float32, filter map[string]string, k int) ([]Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	// chromem rejects nResults greater than the document count.
	if count := x.coll.Count(); count < k {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := x.coll.QueryEmbedding(ctx, vector, k, filter, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: r.Metadata,
			Score:    r.Similarity,
		})
	}
	return hits, nil
}

func (x *ChromemIndex) Count(ctx context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.coll.Count(), nil
}

func (x *ChromemIndex) IDs(ctx context.Context) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	ids := make([]string, 0, len(x.ids))
	for id := range x.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// add writes docs under an already-held write lock.
func (x *ChromemIndex) add(ctx context.Context, docs []Document) error {
	for _, d := range docs {
		err := x.coll.AddDocument(ctx, chromem.Document{
			ID:        d.ID,
			Content:   d.Content,
			Embedding: d.Embedding,
			Metadata:  d.Metadata,
		})
		if err != nil {
			return fmt.Errorf("adding document %q: %w", d.ID, err)
		}
		x.ids[d.ID] = struct{}{}
	}
	return nil
}

// idMeta fetches a document's metadata for filter pruning; a missing
// document yields nil, which never matches a non-empty filter.
func (x *ChromemIndex) idMeta(ctx context.Context, id string) map[string]string {
	doc, err := x.coll.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return doc.Metadata
}

func matchesFilter(meta, filter map[string]string) bool {
	if len(filter) == 0 {
		return false
	}
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}

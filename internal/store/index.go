package store

import "context"

// Document is one vector-index entry: an identity, the raw text it was
// embedded from, the embedding itself, and string metadata used for
// filtering and attribution.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// Hit is one nearest-neighbor result. Score is similarity, higher is closer,
// 1.0 for an identical vector.
type Hit struct {
	ID       string
	Content  string
	Metadata map[string]string
	Score    float32
}

// Index is the vector-index boundary the store depends on. Implementations
// must be safe for concurrent use; Replace must be atomic with respect to
// Query, so readers never observe a half-written course.
type Index interface {
	// Upsert writes documents, replacing any existing entry with the same ID.
	Upsert(ctx context.Context, docs []Document) error

	// Replace atomically deletes all documents whose metadata matches filter
	// and inserts docs in their place.
	Replace(ctx context.Context, filter map[string]string, docs []Document) error

	// Query returns up to k nearest neighbors of vector, restricted to
	// documents whose metadata matches filter (nil = no restriction),
	// ordered by descending similarity.
	Query(ctx context.Context, vector []float32, filter map[string]string, k int) ([]Hit, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// IDs returns all document IDs in lexical order.
	IDs(ctx context.Context) ([]string, error)
}

// Metadata keys shared by both indices.
const (
	metaCourseTitle  = "course_title"
	metaLessonNumber = "lesson_number"
	metaChunkIndex   = "chunk_index"
	metaLink         = "link"
	metaInstructor   = "instructor"
	metaLessons      = "lessons"
)

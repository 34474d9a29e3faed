// Package store implements the dual-index semantic store: a catalog index
// with one vector per course, used to resolve fuzzy course references, and a
// content index with one vector per chunk, used for passage retrieval.
//
// Separating the two lets a query like "the beginner Python one" be resolved
// semantically to a canonical course title first, then constrain content
// search to that course. Both indices sit behind the Index interface, with
// chromem-go and PostgreSQL/pgvector implementations.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/firebase/genkit/go/ai"

	"github.com/lecternhq/lectern/internal/course"
)

// resolveCandidates is how many catalog entries are fetched when resolving a
// course name. More than one so ties can be broken deterministically.
const resolveCandidates = 3

// Match is one ranked content-search result.
type Match struct {
	Text         string
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
	Score        float32
}

// CourseMeta is the structural metadata kept per catalog entry, enough to
// reconstruct lesson context without re-reading the source document.
type CourseMeta struct {
	Title      string          `json:"title"`
	Link       string          `json:"link,omitempty"`
	Instructor string          `json:"instructor,omitempty"`
	Lessons    []course.Lesson `json:"lessons,omitempty"`
}

// Stats summarizes the catalog for the read-only stats entry point.
type Stats struct {
	CourseCount  int
	CourseTitles []string
}

// Store composes an embedder with the catalog and content indices.
//
// Store is safe for concurrent use. Ingestion-time writes and query-time
// reads may run concurrently; per-course atomicity is delegated to the Index
// implementations.
type Store struct {
	embedder ai.Embedder
	catalog  Index
	content  Index
	floor    float32
	logger   *slog.Logger

	// metaMu guards meta, an in-process cache of catalog entries keyed by
	// title. It is warmed by UpsertCourse; ingestion runs at startup, so
	// the cache covers every course for the life of the process.
	metaMu sync.RWMutex
	meta   map[string]CourseMeta
}

// New creates a Store. floor is the minimum similarity a catalog match must
// clear during course resolution; below it, resolution reports not-found
// rather than guessing.
func New(embedder ai.Embedder, catalog, content Index, floor float32, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		embedder: embedder,
		catalog:  catalog,
		content:  content,
		floor:    floor,
		logger:   logger,
		meta:     make(map[string]CourseMeta),
	}
}

// UpsertCourse writes or replaces the catalog entry for c, keyed by title.
// The embedded text composes title, instructor, and lesson titles so fuzzy
// references to any of them resolve to the course.
func (s *Store) UpsertCourse(ctx context.Context, c *course.Course) error {
	vec, err := s.embed(ctx, c.CatalogText())
	if err != nil {
		return fmt.Errorf("embedding catalog entry for %q: %w", c.Title, err)
	}

	lessons, err := json.Marshal(c.Lessons)
	if err != nil {
		return fmt.Errorf("encoding lessons for %q: %w", c.Title, err)
	}

	doc := Document{
		ID:        c.Title,
		Content:   c.CatalogText(),
		Embedding: vec,
		Metadata: map[string]string{
			metaCourseTitle: c.Title,
			metaLink:        c.Link,
			metaInstructor:  c.Instructor,
			metaLessons:     string(lessons),
		},
	}
	if err := s.catalog.Upsert(ctx, []Document{doc}); err != nil {
		return fmt.Errorf("%w: writing catalog entry for %q: %v", ErrRetrievalUnavailable, c.Title, err)
	}

	s.metaMu.Lock()
	s.meta[c.Title] = CourseMeta{
		Title:      c.Title,
		Link:       c.Link,
		Instructor: c.Instructor,
		Lessons:    c.Lessons,
	}
	s.metaMu.Unlock()

	s.logger.Debug("catalog entry upserted", "course", c.Title, "lessons", len(c.Lessons))
	return nil
}

// UpsertChunks embeds and stores chunks in the content index. Chunks are
// grouped by course title and each course's chunk set is replaced
// atomically, so re-ingesting a course is idempotent and readers never see a
// half-written course.
func (s *Store) UpsertChunks(ctx context.Context, chunks []course.Chunk) error {
	byCourse := make(map[string][]course.Chunk)
	var titles []string
	for _, c := range chunks {
		if _, ok := byCourse[c.CourseTitle]; !ok {
			titles = append(titles, c.CourseTitle)
		}
		byCourse[c.CourseTitle] = append(byCourse[c.CourseTitle], c)
	}
	sort.Strings(titles)

	for _, title := range titles {
		docs := make([]Document, 0, len(byCourse[title]))
		for _, c := range byCourse[title] {
			vec, err := s.embed(ctx, c.Text)
			if err != nil {
				return fmt.Errorf("embedding chunk %d of %q: %w", c.Index, title, err)
			}

			meta := map[string]string{
				metaCourseTitle: c.CourseTitle,
				metaChunkIndex:  strconv.Itoa(c.Index),
			}
			if c.LessonNumber != nil {
				meta[metaLessonNumber] = strconv.Itoa(*c.LessonNumber)
			}
			docs = append(docs, Document{
				ID:        c.ID(),
				Content:   c.Text,
				Embedding: vec,
				Metadata:  meta,
			})
		}

		filter := map[string]string{metaCourseTitle: title}
		if err := s.content.Replace(ctx, filter, docs); err != nil {
			return fmt.Errorf("%w: replacing content for %q: %v", ErrRetrievalUnavailable, title, err)
		}
		s.logger.Debug("course content replaced", "course", title, "chunks", len(docs))
	}
	return nil
}

// ResolveCourse resolves a fuzzy course reference to a canonical title. The
// closest catalog entry wins if its similarity clears the floor; otherwise
// ErrCourseNotFound is returned, never a low-confidence guess. Equal scores
// break by lexical title order so resolution is deterministic.
func (s *Store) ResolveCourse(ctx context.Context, name string) (string, error) {
	vec, err := s.embed(ctx, name)
	if err != nil {
		return "", fmt.Errorf("embedding course query %q: %w", name, err)
	}

	hits, err := s.catalog.Query(ctx, vec, nil, resolveCandidates)
	if err != nil {
		return "", fmt.Errorf("%w: querying catalog: %v", ErrRetrievalUnavailable, err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) == 0 || hits[0].Score < s.floor {
		s.logger.Debug("course resolution below floor", "query", name, "candidates", len(hits))
		return "", fmt.Errorf("%w: %q", ErrCourseNotFound, name)
	}
	return hits[0].ID, nil
}

// SearchContent retrieves up to topK chunks ranked by descending similarity
// to query, optionally restricted to a course title and lesson number. Equal
// scores break by ascending chunk index.
func (s *Store) SearchContent(ctx context.Context, query string, courseTitle string, lessonNumber *int, topK int) ([]Match, error) {
	vec, err := s.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding content query: %w", err)
	}

	filter := map[string]string{}
	if courseTitle != "" {
		filter[metaCourseTitle] = courseTitle
	}
	if lessonNumber != nil {
		filter[metaLessonNumber] = strconv.Itoa(*lessonNumber)
	}
	if len(filter) == 0 {
		filter = nil
	}

	hits, err := s.content.Query(ctx, vec, filter, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: querying content: %v", ErrRetrievalUnavailable, err)
	}

	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		m := Match{
			Text:        h.Content,
			CourseTitle: h.Metadata[metaCourseTitle],
			Score:       h.Score,
		}
		if v, ok := h.Metadata[metaChunkIndex]; ok {
			if idx, err := strconv.Atoi(v); err == nil {
				m.ChunkIndex = idx
			}
		}
		if v, ok := h.Metadata[metaLessonNumber]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				m.LessonNumber = &n
			}
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ChunkIndex < matches[j].ChunkIndex
	})
	return matches, nil
}

// Outline resolves a fuzzy course reference and returns the catalog
// metadata for the winning course.
func (s *Store) Outline(ctx context.Context, name string) (*CourseMeta, error) {
	title, err := s.ResolveCourse(ctx, name)
	if err != nil {
		return nil, err
	}

	if meta, ok := s.courseMeta(title); ok {
		return &meta, nil
	}
	return nil, fmt.Errorf("%w: %q has no catalog metadata", ErrCourseNotFound, title)
}

// LessonLink returns the link to attribute to a chunk: the lesson's own link
// when present, otherwise the course link, otherwise empty.
func (s *Store) LessonLink(courseTitle string, lessonNumber *int) string {
	meta, ok := s.courseMeta(courseTitle)
	if !ok {
		return ""
	}
	if lessonNumber != nil {
		for _, l := range meta.Lessons {
			if l.Number == *lessonNumber && l.Link != "" {
				return l.Link
			}
		}
	}
	return meta.Link
}

// CourseStats reports course count and titles from the catalog index. It is
// read-only and has no side effects.
func (s *Store) CourseStats(ctx context.Context) (*Stats, error) {
	titles, err := s.catalog.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing catalog: %v", ErrRetrievalUnavailable, err)
	}
	return &Stats{CourseCount: len(titles), CourseTitles: titles}, nil
}

func (s *Store) courseMeta(title string) (CourseMeta, bool) {
	s.metaMu.RLock()
	defer s.metaMu.RUnlock()
	meta, ok := s.meta[title]
	return meta, ok
}

// embed generates one embedding. Any failure maps to ErrRetrievalUnavailable
// since the store cannot distinguish transient from permanent embedder
// faults.
func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", ErrRetrievalUnavailable)
	}
	return resp.Embeddings[0].Embedding, nil
}

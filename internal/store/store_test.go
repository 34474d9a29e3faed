package store

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/firebase/genkit/go/ai"
	chromem "github.com/philippgille/chromem-go"

	"github.com/lecternhq/lectern/internal/course"
	"github.com/lecternhq/lectern/internal/testutil"
)

func newTestStore(t *testing.T, embedder ai.Embedder) *Store {
	t.Helper()
	db := chromem.NewDB()
	catalog, err := NewChromemIndex(db, CatalogCollection, nil)
	if err != nil {
		t.Fatalf("NewChromemIndex(catalog) error = %v", err)
	}
	content, err := NewChromemIndex(db, ContentCollection, nil)
	if err != nil {
		t.Fatalf("NewChromemIndex(content) error = %v", err)
	}
	return New(embedder, catalog, content, 0.55, slog.New(slog.DiscardHandler))
}

func intPtr(n int) *int { return &n }

func testCourse() *course.Course {
	return &course.Course{
		Title:      "Intro to Testing",
		Link:       "https://example.com/testing",
		Instructor: "Grace Hopper",
		Lessons: []course.Lesson{
			{Number: 1, Title: "Assertions", Link: "https://example.com/testing/1"},
			{Number: 2, Title: "Fixtures"},
		},
	}
}

func testChunks(title string) []course.Chunk {
	return []course.Chunk{
		{Text: "Assertions compare expected and actual values.", CourseTitle: title, LessonNumber: intPtr(1), Index: 0},
		{Text: "Fixtures prepare shared state before tests run.", CourseTitle: title, LessonNumber: intPtr(2), Index: 1},
	}
}

func TestResolveCourseExactMatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &testutil.WordEmbedder{})

	// Title-only course so the catalog text equals the query exactly.
	if err := s.UpsertCourse(ctx, &course.Course{Title: "Intro to Testing"}); err != nil {
		t.Fatalf("UpsertCourse() error = %v", err)
	}

	got, err := s.ResolveCourse(ctx, "Intro to Testing")
	if err != nil {
		t.Fatalf("ResolveCourse() error = %v", err)
	}
	if got != "Intro to Testing" {
		t.Errorf("ResolveCourse() = %q, want %q", got, "Intro to Testing")
	}
}

func TestResolveCourseBelowFloor(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &testutil.WordEmbedder{})

	if err := s.UpsertCourse(ctx, &course.Course{Title: "Marine Biology Fundamentals"}); err != nil {
		t.Fatalf("UpsertCourse() error = %v", err)
	}

	_, err := s.ResolveCourse(ctx, "quantum chromodynamics seminar")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("ResolveCourse() error = %v, want ErrCourseNotFound", err)
	}
}

func TestResolveCourseEmptyCatalog(t *testing.T) {
	s := newTestStore(t, &testutil.WordEmbedder{})

	_, err := s.ResolveCourse(context.Background(), "anything")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("ResolveCourse() error = %v, want ErrCourseNotFound", err)
	}
}

func TestSearchContentFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &testutil.WordEmbedder{})

	c := testCourse()
	if err := s.UpsertCourse(ctx, c); err != nil {
		t.Fatalf("UpsertCourse() error = %v", err)
	}
	if err := s.UpsertChunks(ctx, testChunks(c.Title)); err != nil {
		t.Fatalf("UpsertChunks() error = %v", err)
	}

	matches, err := s.SearchContent(ctx, "compare expected and actual values", c.Title, nil, 5)
	if err != nil {
		t.Fatalf("SearchContent() error = %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("SearchContent() returned no matches")
	}
	if matches[0].ChunkIndex != 0 || matches[0].LessonNumber == nil || *matches[0].LessonNumber != 1 {
		t.Errorf("top match = %+v, want chunk 0 of lesson 1", matches[0])
	}

	// Lesson filter excludes the other lesson entirely.
	matches, err = s.SearchContent(ctx, "compare expected and actual values", c.Title, intPtr(2), 5)
	if err != nil {
		t.Fatalf("SearchContent() error = %v", err)
	}
	for _, m := range matches {
		if m.LessonNumber == nil || *m.LessonNumber != 2 {
			t.Errorf("lesson filter leaked match %+v", m)
		}
	}
}

func TestSearchContentTieBreak(t *testing.T) {
	s := New(&testutil.WordEmbedder{}, nil, &scriptedIndex{hits: []Hit{
		{ID: "c::5", Content: "later", Metadata: map[string]string{metaCourseTitle: "c", metaChunkIndex: "5"}, Score: 0.8},
		{ID: "c::1", Content: "earlier", Metadata: map[string]string{metaCourseTitle: "c", metaChunkIndex: "1"}, Score: 0.8},
		{ID: "c::9", Content: "best", Metadata: map[string]string{metaCourseTitle: "c", metaChunkIndex: "9"}, Score: 0.9},
	}}, 0.55, slog.New(slog.DiscardHandler))

	matches, err := s.SearchContent(context.Background(), "q", "", nil, 5)
	if err != nil {
		t.Fatalf("SearchContent() error = %v", err)
	}
	wantOrder := []int{9, 1, 5}
	if len(matches) != len(wantOrder) {
		t.Fatalf("len(matches) = %d, want %d", len(matches), len(wantOrder))
	}
	for i, want := range wantOrder {
		if matches[i].ChunkIndex != want {
			t.Errorf("matches[%d].ChunkIndex = %d, want %d (descending score, ties by ascending index)", i, matches[i].ChunkIndex, want)
		}
	}
}

func TestIdempotentReingestion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &testutil.WordEmbedder{})

	c := testCourse()
	for i := 0; i < 2; i++ {
		if err := s.UpsertCourse(ctx, c); err != nil {
			t.Fatalf("UpsertCourse() round %d error = %v", i, err)
		}
		if err := s.UpsertChunks(ctx, testChunks(c.Title)); err != nil {
			t.Fatalf("UpsertChunks() round %d error = %v", i, err)
		}
	}

	stats, err := s.CourseStats(ctx)
	if err != nil {
		t.Fatalf("CourseStats() error = %v", err)
	}
	if stats.CourseCount != 1 {
		t.Errorf("CourseCount = %d, want 1 after re-ingestion", stats.CourseCount)
	}

	count, err := s.content.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != len(testChunks(c.Title)) {
		t.Errorf("content count = %d, want %d after re-ingestion", count, len(testChunks(c.Title)))
	}
}

func TestEmbedderFailureMapsToRetrievalUnavailable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &testutil.WordEmbedder{Err: errors.New("connection refused")})

	if err := s.UpsertCourse(ctx, testCourse()); !errors.Is(err, ErrRetrievalUnavailable) {
		t.Errorf("UpsertCourse() error = %v, want ErrRetrievalUnavailable", err)
	}
	if _, err := s.ResolveCourse(ctx, "anything"); !errors.Is(err, ErrRetrievalUnavailable) {
		t.Errorf("ResolveCourse() error = %v, want ErrRetrievalUnavailable", err)
	}
	if _, err := s.SearchContent(ctx, "anything", "", nil, 5); !errors.Is(err, ErrRetrievalUnavailable) {
		t.Errorf("SearchContent() error = %v, want ErrRetrievalUnavailable", err)
	}
}

func TestOutlineAndLessonLink(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &testutil.WordEmbedder{})

	c := testCourse()
	if err := s.UpsertCourse(ctx, c); err != nil {
		t.Fatalf("UpsertCourse() error = %v", err)
	}

	meta, err := s.Outline(ctx, "Intro to Testing taught by Grace Hopper Assertions Fixtures")
	if err != nil {
		t.Fatalf("Outline() error = %v", err)
	}
	if meta.Title != c.Title || len(meta.Lessons) != 2 {
		t.Errorf("Outline() = %+v", meta)
	}

	if got := s.LessonLink(c.Title, intPtr(1)); got != "https://example.com/testing/1" {
		t.Errorf("LessonLink(lesson 1) = %q, want lesson link", got)
	}
	// Lesson 2 has no link of its own.
	if got := s.LessonLink(c.Title, intPtr(2)); got != c.Link {
		t.Errorf("LessonLink(lesson 2) = %q, want course link fallback", got)
	}
	if got := s.LessonLink("Unknown Course", nil); got != "" {
		t.Errorf("LessonLink(unknown) = %q, want empty", got)
	}
}

func TestCourseStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &testutil.WordEmbedder{})

	for _, title := range []string{"Zeta Course", "Alpha Course"} {
		if err := s.UpsertCourse(ctx, &course.Course{Title: title}); err != nil {
			t.Fatalf("UpsertCourse(%q) error = %v", title, err)
		}
	}

	stats, err := s.CourseStats(ctx)
	if err != nil {
		t.Fatalf("CourseStats() error = %v", err)
	}
	if stats.CourseCount != 2 {
		t.Errorf("CourseCount = %d, want 2", stats.CourseCount)
	}
	if len(stats.CourseTitles) != 2 || stats.CourseTitles[0] != "Alpha Course" || stats.CourseTitles[1] != "Zeta Course" {
		t.Errorf("CourseTitles = %v, want sorted titles", stats.CourseTitles)
	}
}

// scriptedIndex returns preset hits regardless of the query vector.
type scriptedIndex struct {
	hits []Hit
}

func (f *scriptedIndex) Upsert(ctx context.Context, docs []Document) error { return nil }

func (f *scriptedIndex) Replace(ctx context.Context, filter map[string]string, docs []Document) error {
	return nil
}

func (f *scriptedIndex) Query(ctx context.Context, vector []float32, filter map[string]string, k int) ([]Hit, error) {
	if k > len(f.hits) {
		k = len(f.hits)
	}
	return f.hits[:k], nil
}

func (f *scriptedIndex) Count(ctx context.Context) (int, error) { return len(f.hits), nil }

func (f *scriptedIndex) IDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.hits))
	for _, h := range f.hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

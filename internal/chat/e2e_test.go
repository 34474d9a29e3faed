package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/lecternhq/lectern/internal/course"
	"github.com/lecternhq/lectern/internal/session"
	"github.com/lecternhq/lectern/internal/store"
	"github.com/lecternhq/lectern/internal/testutil"
	"github.com/lecternhq/lectern/internal/tools"
)

// TestQueryEndToEnd wires a real store, chunker output, and tool registry
// under the orchestrator, with only the generative model scripted.
func TestQueryEndToEnd(t *testing.T) {
	ctx := context.Background()

	doc := "Course Title: Intro\nCourse Link: https://example.com/intro\nCourse Instructor: Pat\nLesson 1: Basics\nA. B. C."
	c, chunks, err := course.ParseDocument(doc, course.NewChunker(800, 100))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want the whole lesson in one chunk", len(chunks))
	}

	db := chromem.NewDB()
	catalog, err := store.NewChromemIndex(db, store.CatalogCollection, nil)
	if err != nil {
		t.Fatalf("NewChromemIndex() error = %v", err)
	}
	content, err := store.NewChromemIndex(db, store.ContentCollection, nil)
	if err != nil {
		t.Fatalf("NewChromemIndex() error = %v", err)
	}
	// Floor low enough that the single-token query "Intro" clears it
	// against the composed catalog text.
	st := store.New(&testutil.WordEmbedder{}, catalog, content, 0.4, nopLogger())

	if err := st.UpsertCourse(ctx, c); err != nil {
		t.Fatalf("UpsertCourse() error = %v", err)
	}
	if err := st.UpsertChunks(ctx, chunks); err != nil {
		t.Fatalf("UpsertChunks() error = %v", err)
	}

	registry := tools.NewRegistry(nopLogger())
	if err := registry.Register(tools.NewSearchTool(st, 5, nopLogger())); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := registry.Register(tools.NewOutlineTool(st)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	model := &scriptedModel{responses: []*ai.ModelResponse{
		toolCallResponse(tools.SearchToolName, map[string]any{
			"query":         "Basics A B C",
			"course_name":   "Intro",
			"lesson_number": 1,
		}),
		textResponse("Lesson 1 of Intro covers A, B, and C."),
	}}

	sessions := session.NewManager(5, nopLogger())
	o := New(model, registry, nil, sessions, Config{MaxToolRounds: 2, Retry: fastRetry()}, nopLogger())

	ans, err := o.Query(ctx, uuid.Nil, "what is covered in lesson 1 of Intro?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if ans.Text != "Lesson 1 of Intro covers A, B, and C." {
		t.Errorf("Text = %q", ans.Text)
	}

	// The tool result the model saw must hold the formatted chunk.
	var toolOutput string
	for _, msg := range model.requests[1].Messages {
		for _, p := range msg.Content {
			if p.ToolResponse != nil {
				toolOutput, _ = p.ToolResponse.Output.(string)
			}
		}
	}
	if !strings.Contains(toolOutput, "[Intro - Lesson 1]") {
		t.Errorf("tool output missing header: %q", toolOutput)
	}
	if !strings.Contains(toolOutput, "A. B. C.") {
		t.Errorf("tool output missing original sentences: %q", toolOutput)
	}

	if len(ans.Sources) != 1 {
		t.Fatalf("Sources = %+v, want one attribution", ans.Sources)
	}
	src := ans.Sources[0]
	if src.CourseTitle != "Intro" || src.LessonNumber == nil || *src.LessonNumber != 1 {
		t.Errorf("attribution = %+v", src)
	}
	if src.Link != "https://example.com/intro" {
		t.Errorf("attribution link = %q, want course link fallback", src.Link)
	}
}

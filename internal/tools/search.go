package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/lecternhq/lectern/internal/store"
)

// SearchToolName is the identifier the model uses to invoke content search.
const SearchToolName = "search_course_content"

// Searcher is the semantic-store surface the tools need.
type Searcher interface {
	ResolveCourse(ctx context.Context, name string) (string, error)
	SearchContent(ctx context.Context, query, courseTitle string, lessonNumber *int, topK int) ([]store.Match, error)
	Outline(ctx context.Context, name string) (*store.CourseMeta, error)
	LessonLink(courseTitle string, lessonNumber *int) string
}

// SearchInput is the search tool's argument schema.
type SearchInput struct {
	Query        string `json:"query" jsonschema_description:"What to search for in the course content"`
	CourseName   string `json:"course_name,omitempty" jsonschema_description:"Course title, may be partial or approximate"`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema_description:"Restrict the search to one lesson number"`
}

// SearchTool composes course resolution and content retrieval into one
// ranked, formatted result. A fuzzy course name is resolved against the
// catalog first; only then is the content index searched with the resolved
// filter.
type SearchTool struct {
	store  Searcher
	topK   int
	logger *slog.Logger
}

// NewSearchTool creates the search tool. topK bounds how many chunks one
// invocation may return.
func NewSearchTool(s Searcher, topK int, logger *slog.Logger) *SearchTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchTool{store: s, topK: topK, logger: logger}
}

func (t *SearchTool) Name() string { return SearchToolName }

func (t *SearchTool) Description() string {
	return "Search course materials for specific content. Supports fuzzy course names and optional lesson filtering."
}

func (t *SearchTool) Definition(g *genkit.Genkit) ai.Tool {
	return genkit.DefineTool(g, t.Name(), t.Description(),
		func(ctx *ai.ToolContext, in SearchInput) (string, error) {
			res, err := t.run(ctx, in)
			if err != nil {
				return "", err
			}
			return res.Text, nil
		})
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	in, err := decodeArgs[SearchInput](args)
	if err != nil {
		return Result{}, err
	}
	return t.run(ctx, in)
}

func (t *SearchTool) run(ctx context.Context, in SearchInput) (Result, error) {
	var courseTitle string
	if in.CourseName != "" {
		title, err := t.store.ResolveCourse(ctx, in.CourseName)
		switch {
		case errors.Is(err, store.ErrCourseNotFound):
			// Recoverable: the model sees this and can ask the user to
			// clarify.
			return Result{Text: fmt.Sprintf("No matching course found for '%s'", in.CourseName)}, nil
		case err != nil:
			return Result{}, err
		}
		courseTitle = title
	}

	matches, err := t.store.SearchContent(ctx, in.Query, courseTitle, in.LessonNumber, t.topK)
	if err != nil {
		return Result{}, err
	}

	if len(matches) == 0 {
		return Result{Text: emptyResultText(in)}, nil
	}

	t.logger.Debug("content search", "query", in.Query, "course", courseTitle, "matches", len(matches))
	return t.format(matches), nil
}

// emptyResultText distinguishes "nothing matched" from a resolution failure
// and names the filters that were applied.
func emptyResultText(in SearchInput) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if in.CourseName != "" {
		fmt.Fprintf(&b, " in course '%s'", in.CourseName)
	}
	if in.LessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *in.LessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

// format renders one paragraph per chunk, each prefixed with its course and
// lesson header, and records one attribution per chunk.
func (t *SearchTool) format(matches []store.Match) Result {
	var (
		blocks  []string
		sources []Attribution
	)
	for _, m := range matches {
		header := "[" + m.CourseTitle
		if m.LessonNumber != nil {
			header += fmt.Sprintf(" - Lesson %d", *m.LessonNumber)
		}
		header += "]"
		blocks = append(blocks, header+"\n"+m.Text)

		sources = append(sources, Attribution{
			CourseTitle:  m.CourseTitle,
			LessonNumber: m.LessonNumber,
			Link:         t.store.LessonLink(m.CourseTitle, m.LessonNumber),
		})
	}
	return Result{Text: strings.Join(blocks, "\n\n"), Sources: sources}
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/lecternhq/lectern/internal/store"
)

// OutlineToolName is the identifier the model uses to fetch a course
// outline.
const OutlineToolName = "get_course_outline"

// OutlineInput is the outline tool's argument schema.
type OutlineInput struct {
	CourseName string `json:"course_name" jsonschema_description:"Course title, may be partial or approximate"`
}

// OutlineTool returns a course's structure from catalog metadata alone: the
// canonical title, the course link, and every lesson's number and title. No
// content search happens.
type OutlineTool struct {
	store Searcher
}

// NewOutlineTool creates the outline tool.
func NewOutlineTool(s Searcher) *OutlineTool {
	return &OutlineTool{store: s}
}

func (t *OutlineTool) Name() string { return OutlineToolName }

func (t *OutlineTool) Description() string {
	return "Get the complete outline of a course: its title, link, and full lesson list."
}

func (t *OutlineTool) Definition(g *genkit.Genkit) ai.Tool {
	return genkit.DefineTool(g, t.Name(), t.Description(),
		func(ctx *ai.ToolContext, in OutlineInput) (string, error) {
			res, err := t.run(ctx, in)
			if err != nil {
				return "", err
			}
			return res.Text, nil
		})
}

func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	in, err := decodeArgs[OutlineInput](args)
	if err != nil {
		return Result{}, err
	}
	return t.run(ctx, in)
}

func (t *OutlineTool) run(ctx context.Context, in OutlineInput) (Result, error) {
	meta, err := t.store.Outline(ctx, in.CourseName)
	switch {
	case errors.Is(err, store.ErrCourseNotFound):
		return Result{Text: fmt.Sprintf("No matching course found for '%s'", in.CourseName)}, nil
	case err != nil:
		return Result{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", meta.Title)
	if meta.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", meta.Link)
	}
	fmt.Fprintf(&b, "Lessons (%d):", len(meta.Lessons))
	for _, l := range meta.Lessons {
		fmt.Fprintf(&b, "\n%d. %s", l.Number, l.Title)
	}

	return Result{
		Text: b.String(),
		Sources: []Attribution{{
			CourseTitle: meta.Title,
			Link:        meta.Link,
		}},
	}, nil
}

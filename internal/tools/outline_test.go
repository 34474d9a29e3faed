package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/lecternhq/lectern/internal/course"
	"github.com/lecternhq/lectern/internal/store"
)

func TestOutlineToolFormatsOutline(t *testing.T) {
	fake := &fakeSearcher{
		meta: &store.CourseMeta{
			Title: "Intro to Testing",
			Link:  "https://example.com/testing",
			Lessons: []course.Lesson{
				{Number: 1, Title: "Assertions"},
				{Number: 2, Title: "Fixtures"},
			},
		},
	}
	tool := NewOutlineTool(fake)

	res, err := tool.Execute(context.Background(), map[string]any{"course_name": "testing"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{
		"Course: Intro to Testing",
		"Course Link: https://example.com/testing",
		"Lessons (2):",
		"1. Assertions",
		"2. Fixtures",
	} {
		if !strings.Contains(res.Text, want) {
			t.Errorf("outline missing %q:\n%s", want, res.Text)
		}
	}

	if len(res.Sources) != 1 || res.Sources[0].CourseTitle != "Intro to Testing" {
		t.Errorf("Sources = %+v, want one course attribution", res.Sources)
	}
	if res.Sources[0].LessonNumber != nil {
		t.Errorf("outline attribution has lesson number %v", res.Sources[0].LessonNumber)
	}
}

func TestOutlineToolCourseNotFound(t *testing.T) {
	fake := &fakeSearcher{outlineErr: store.ErrCourseNotFound}
	tool := NewOutlineTool(fake)

	res, err := tool.Execute(context.Background(), map[string]any{"course_name": "ghost"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Text != "No matching course found for 'ghost'" {
		t.Errorf("Text = %q", res.Text)
	}
}

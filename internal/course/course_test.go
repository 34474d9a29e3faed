package course

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const sampleDocument = `Course Title: Building Web Applications
Course Link: https://example.com/webapps
Course Instructor: Ada Lovelace

Lesson 1: Getting Started
Lesson Link: https://example.com/webapps/lesson-1
Web applications respond to HTTP requests. Each request carries a method and a path.

Lesson 2: Routing
Routers map paths to handlers. Handlers produce responses.
`

func TestParseDocumentHeaders(t *testing.T) {
	ck := NewChunker(DefaultChunkSize, DefaultOverlap)

	course, chunks, err := ParseDocument(sampleDocument, ck)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	if course.Title != "Building Web Applications" {
		t.Errorf("Title = %q", course.Title)
	}
	if course.Link != "https://example.com/webapps" {
		t.Errorf("Link = %q", course.Link)
	}
	if course.Instructor != "Ada Lovelace" {
		t.Errorf("Instructor = %q", course.Instructor)
	}

	if len(course.Lessons) != 2 {
		t.Fatalf("len(Lessons) = %d, want 2", len(course.Lessons))
	}
	if got := course.Lessons[0]; got.Number != 1 || got.Title != "Getting Started" || got.Link != "https://example.com/webapps/lesson-1" {
		t.Errorf("Lessons[0] = %+v", got)
	}
	if got := course.Lessons[1]; got.Number != 2 || got.Title != "Routing" || got.Link != "" {
		t.Errorf("Lessons[1] = %+v", got)
	}

	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if chunks[0].LessonNumber == nil || *chunks[0].LessonNumber != 1 {
		t.Errorf("chunks[0].LessonNumber = %v, want 1", chunks[0].LessonNumber)
	}
	if chunks[1].LessonNumber == nil || *chunks[1].LessonNumber != 2 {
		t.Errorf("chunks[1].LessonNumber = %v, want 2", chunks[1].LessonNumber)
	}
	if !strings.Contains(chunks[0].Text, "HTTP requests") {
		t.Errorf("chunks[0].Text = %q", chunks[0].Text)
	}
}

func TestParseDocumentOptionalHeaders(t *testing.T) {
	doc := "Course Title: Minimal\n\nLesson 1: Only\nSome text here."

	course, chunks, err := ParseDocument(doc, NewChunker(0, 0))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if course.Link != "" || course.Instructor != "" {
		t.Errorf("optional headers not empty: link=%q instructor=%q", course.Link, course.Instructor)
	}
	if len(chunks) != 1 || chunks[0].Text != "Some text here." {
		t.Errorf("chunks = %+v", chunks)
	}
}

func TestParseDocumentMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty document", doc: ""},
		{name: "whitespace only", doc: "\n  \n"},
		{name: "no title header", doc: "Just some prose without headers.\nMore prose."},
		{name: "empty title value", doc: "Course Title:\nCourse Link: x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseDocument(tt.doc, NewChunker(0, 0)); !errors.Is(err, ErrMalformedDocument) {
				t.Errorf("ParseDocument() error = %v, want ErrMalformedDocument", err)
			}
		})
	}
}

func TestParseDocumentEmptyBody(t *testing.T) {
	doc := "Course Title: Shell\nCourse Link: https://example.com\nCourse Instructor: Nobody\n"

	course, chunks, err := ParseDocument(doc, NewChunker(0, 0))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if course.Title != "Shell" {
		t.Errorf("Title = %q", course.Title)
	}
	if len(chunks) != 0 {
		t.Errorf("len(chunks) = %d, want 0", len(chunks))
	}
}

func TestParseDocumentPreambleChunks(t *testing.T) {
	doc := "Course Title: Preamble\nCourse Link: x\nCourse Instructor: y\nIntroductory text before any lesson.\nLesson 1: First\nLesson body."

	_, chunks, err := ParseDocument(doc, NewChunker(0, 0))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if chunks[0].LessonNumber != nil {
		t.Errorf("preamble chunk has LessonNumber = %v, want nil", chunks[0].LessonNumber)
	}
	if chunks[1].LessonNumber == nil || *chunks[1].LessonNumber != 1 {
		t.Errorf("chunks[1].LessonNumber = %v, want 1", chunks[1].LessonNumber)
	}
}

func TestChunkIndexMonotonic(t *testing.T) {
	var b strings.Builder
	b.WriteString("Course Title: Long\nCourse Link: x\nCourse Instructor: y\n")
	for lesson := 1; lesson <= 3; lesson++ {
		fmt.Fprintf(&b, "Lesson %d: Part\n", lesson)
		for s := 0; s < 40; s++ {
			b.WriteString("This sentence pads the lesson body with enough text to force multiple chunks. ")
		}
		b.WriteString("\n")
	}

	_, chunks, err := ParseDocument(b.String(), NewChunker(200, 50))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if len(chunks) < 6 {
		t.Fatalf("len(chunks) = %d, want multiple chunks per lesson", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunks[%d].Index = %d, indices must be contiguous from 0", i, c.Index)
		}
	}
}

func TestCatalogText(t *testing.T) {
	course := &Course{
		Title:      "Intro to Testing",
		Instructor: "Grace Hopper",
		Lessons: []Lesson{
			{Number: 1, Title: "Assertions"},
			{Number: 2, Title: "Fixtures"},
		},
	}

	got := course.CatalogText()
	for _, want := range []string{"Intro to Testing", "Grace Hopper", "Assertions", "Fixtures"} {
		if !strings.Contains(got, want) {
			t.Errorf("CatalogText() = %q, missing %q", got, want)
		}
	}
}

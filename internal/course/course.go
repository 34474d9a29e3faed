// Package course parses structured course documents and splits their lesson
// bodies into overlapping, sentence-aligned chunks suitable for embedding.
//
// A course document has three header lines in fixed order (Course Title,
// Course Link, Course Instructor), followed by lesson blocks introduced by
// "Lesson <N>: <title>" markers. The title is mandatory; the other headers
// are optional.
package course

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedDocument is returned when a document has no course title header.
// Ingestion treats it as a per-document failure: the document is skipped and
// logged, and the remaining documents are still processed.
var ErrMalformedDocument = errors.New("malformed course document")

// Header prefixes of a course document, matched on the first three non-empty
// lines in this order.
const (
	titlePrefix      = "Course Title:"
	linkPrefix       = "Course Link:"
	instructorPrefix = "Course Instructor:"
	lessonLinkPrefix = "Lesson Link:"
	lessonPrefix     = "Lesson "
)

// Course is the descriptor parsed from one document. It is immutable after
// ingestion and identified canonically by its title.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

// Lesson is one lesson block of a course. Number is unique within the course,
// not globally.
type Lesson struct {
	Number int
	Title  string
	Link   string
}

// Chunk is a bounded, sentence-aligned slice of lesson text. Index increases
// monotonically across the whole course, so (CourseTitle, Index) is a stable
// identity. LessonNumber is nil for body text that precedes the first lesson
// marker.
type Chunk struct {
	Text         string
	CourseTitle  string
	LessonNumber *int
	Index        int
}

// ID returns the chunk's stable identity key.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s::%d", c.CourseTitle, c.Index)
}

// CatalogText composes the string embedded for course-name resolution:
// title, instructor, and all lesson titles.
func (c *Course) CatalogText() string {
	var b strings.Builder
	b.WriteString(c.Title)
	if c.Instructor != "" {
		b.WriteString(" taught by ")
		b.WriteString(c.Instructor)
	}
	for _, l := range c.Lessons {
		b.WriteString(" ")
		b.WriteString(l.Title)
	}
	return b.String()
}

// ParseDocument parses one raw document into a course descriptor and the
// ordered chunks of its lesson bodies, using the given chunker for splitting.
//
// A document missing its title header fails with ErrMalformedDocument. An
// empty document (headers only) yields a course with zero chunks.
func ParseDocument(raw string, ck *Chunker) (*Course, []Chunk, error) {
	lines := strings.Split(raw, "\n")

	course, bodyStart, err := parseHeaders(lines)
	if err != nil {
		return nil, nil, err
	}

	var (
		chunks     []Chunk
		chunkIndex int
	)
	emit := func(body []string, lessonNumber *int) {
		text := strings.Join(body, "\n")
		for _, piece := range ck.Split(text) {
			chunks = append(chunks, Chunk{
				Text:         piece,
				CourseTitle:  course.Title,
				LessonNumber: lessonNumber,
				Index:        chunkIndex,
			})
			chunkIndex++
		}
	}

	var (
		body          []string
		currentLesson *int
	)
	for i := bodyStart; i < len(lines); i++ {
		line := lines[i]

		number, title, ok := parseLessonMarker(line)
		if !ok {
			body = append(body, line)
			continue
		}

		emit(body, currentLesson)
		body = nil

		lesson := Lesson{Number: number, Title: title}
		// An optional link line directly follows the marker.
		if i+1 < len(lines) {
			if link, ok := strings.CutPrefix(strings.TrimSpace(lines[i+1]), lessonLinkPrefix); ok {
				lesson.Link = strings.TrimSpace(link)
				i++
			}
		}
		course.Lessons = append(course.Lessons, lesson)

		n := number
		currentLesson = &n
	}
	emit(body, currentLesson)

	return course, chunks, nil
}

// parseHeaders interprets the first three non-empty lines positionally as
// title, link, and instructor. Only the title is mandatory; a non-matching
// line ends the header block and belongs to the body.
func parseHeaders(lines []string) (*Course, int, error) {
	course := &Course{}
	bodyStart := 0
	seen := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch seen {
		case 0:
			value, ok := strings.CutPrefix(trimmed, titlePrefix)
			if !ok {
				return nil, 0, fmt.Errorf("%w: first line is not a %q header", ErrMalformedDocument, titlePrefix)
			}
			course.Title = strings.TrimSpace(value)
			if course.Title == "" {
				return nil, 0, fmt.Errorf("%w: empty course title", ErrMalformedDocument)
			}
		case 1:
			value, ok := strings.CutPrefix(trimmed, linkPrefix)
			if !ok {
				return course, i, nil
			}
			course.Link = strings.TrimSpace(value)
		case 2:
			value, ok := strings.CutPrefix(trimmed, instructorPrefix)
			if !ok {
				return course, i, nil
			}
			course.Instructor = strings.TrimSpace(value)
		}

		seen++
		bodyStart = i + 1
		if seen == 3 {
			break
		}
	}

	if seen == 0 {
		return nil, 0, fmt.Errorf("%w: document is empty", ErrMalformedDocument)
	}
	return course, bodyStart, nil
}

// parseLessonMarker recognizes lines of the form "Lesson <N>: <title>".
func parseLessonMarker(line string) (number int, title string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(line), lessonPrefix)
	if !found {
		return 0, "", false
	}
	numStr, title, found := strings.Cut(rest, ":")
	if !found {
		return 0, "", false
	}
	number, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil {
		return 0, "", false
	}
	return number, strings.TrimSpace(title), true
}

package store

import "errors"

var (
	// ErrRetrievalUnavailable indicates the embedding service or vector
	// index failed. The current tool call aborts; an empty result is never
	// substituted, since it would be indistinguishable from "nothing
	// matched".
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrCourseNotFound indicates no catalog entry cleared the similarity
	// floor for a fuzzy course name. It is an expected, recoverable outcome
	// surfaced to the model as ordinary tool output.
	ErrCourseNotFound = errors.New("course not found")
)

package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/lecternhq/lectern/internal/store"
)

// StatsProvider reports course analytics from the catalog.
type StatsProvider interface {
	CourseStats(ctx context.Context) (*store.Stats, error)
}

// CoursesResponse is the body of GET /api/courses.
type CoursesResponse struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

type coursesHandler struct {
	stats  StatsProvider
	logger *slog.Logger
}

// courses returns the number of ingested courses and their titles.
func (h *coursesHandler) courses(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.CourseStats(r.Context())
	if err != nil {
		h.logger.Error("failed to load course stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load course statistics")
		return
	}

	titles := stats.CourseTitles
	if titles == nil {
		titles = []string{}
	}

	writeJSON(w, http.StatusOK, CoursesResponse{
		TotalCourses: stats.CourseCount,
		CourseTitles: titles,
	})
}

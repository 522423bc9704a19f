package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lumina-learn/lumina/internal/course"
)

const maxCoursePageSize = 100

// ListCourses lists the courses the caller may read
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param category query string false "Category"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} course.Course
// @Failure 403 {object} map[string]string
// @Router /courses [get]
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := course.ListOptions{Category: q.Get("category")}

	var err error
	if opts.Limit, err = parsePageParam(q.Get("limit")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if opts.Offset, err = parsePageParam(q.Get("offset")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	if opts.Limit == 0 || opts.Limit > maxCoursePageSize {
		opts.Limit = maxCoursePageSize
	}

	user, _ := GetUser(r.Context())
	courses, err := h.courses.List(r.Context(), user, opts)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if courses == nil {
		courses = []*course.Course{}
	}
	respondJSON(w, http.StatusOK, courses)
}

// GetCourse returns a single course within the caller's scope
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r.Context())
	c, err := h.courses.Get(r.Context(), user, chi.URLParam(r, "courseID"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func parsePageParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/lumina-learn/lumina/internal/course"
	"github.com/lumina-learn/lumina/internal/query"
)

// CourseRepository implements course.Repository by evaluating the
// statement's predicates against each stored course.
type CourseRepository struct {
	s *Store
}

func NewCourseRepository(s *Store) *CourseRepository {
	return &CourseRepository{s: s}
}

func (r *CourseRepository) List(_ context.Context, sel *query.Select) ([]*course.Course, error) {
	if sel.Table() != course.Table {
		return nil, fmt.Errorf("unexpected table %q", sel.Table())
	}
	if sel.Denied() {
		return []*course.Course{}, nil
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*course.Course{}
	for _, c := range r.s.courses {
		if sel.Matches(c.Row()) {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})

	if off := sel.OffsetValue(); off > 0 {
		if off >= len(out) {
			return []*course.Course{}, nil
		}
		out = out[off:]
	}
	if lim := sel.LimitValue(); lim > 0 && lim < len(out) {
		out = out[:lim]
	}
	return out, nil
}

func (r *CourseRepository) GetByID(_ context.Context, id string) (*course.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.courses[id]
	if !ok {
		return nil, course.ErrCourseNotFound
	}
	return &c, nil
}

func (r *CourseRepository) Create(_ context.Context, c *course.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.courses[c.ID]; ok {
		return fmt.Errorf("course %s already exists", c.ID)
	}
	r.s.courses[c.ID] = *c
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lumina-learn/lumina/internal/course"
	"github.com/lumina-learn/lumina/internal/id"
	"github.com/lumina-learn/lumina/internal/query"
)

// CourseRepository implements course.Repository
type CourseRepository struct {
	db *DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func scanCourse(row pgx.Row) (*course.Course, error) {
	var c course.Course
	if err := row.Scan(&c.ID, &c.Title, &c.Category, &c.InstructorID, &c.Published, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List runs a scoped statement. Denied statements never reach the database.
func (r *CourseRepository) List(ctx context.Context, sel *query.Select) ([]*course.Course, error) {
	if sel.Denied() {
		return []*course.Course{}, nil
	}

	sql, args := sel.Build()
	rows, err := r.db.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	courses := []*course.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, courseID string) (*course.Course, error) {
	if !id.IsValid(courseID) {
		return nil, course.ErrCourseNotFound
	}
	sql, args := query.From(course.Table).Columns(course.Columns...).Where(query.Eq("id", courseID)).Build()
	c, err := scanCourse(r.db.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, course.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return c, nil
}

// Create inserts a course
func (r *CourseRepository) Create(ctx context.Context, c *course.Course) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO courses (id, title, category, instructor_id, published, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.Title, c.Category, c.InstructorID, c.Published, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

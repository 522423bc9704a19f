package course

import (
	"context"
	"errors"
	"time"

	"github.com/lumina-learn/lumina/internal/query"
)

// Domain errors
var (
	ErrCourseNotFound = errors.New("course not found")
	ErrAccessDenied   = errors.New("access denied")
)

// Course is a published or draft course taught by one instructor.
type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	InstructorID string    `json:"instructor_id"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"created_at"`
}

// Table and columns of the courses relation.
const Table = "courses"

var Columns = []string{"id", "title", "category", "instructor_id", "published", "created_at"}

// Entity scopes courses by their instructor.
var Entity = query.Entity[*Course]{
	Table:     Table,
	Ownership: query.Ownership{Column: "instructor_id"},
	OwnerOf:   func(c *Course) string { return c.InstructorID },
}

// Row exposes the course for in-memory predicate evaluation.
func (c *Course) Row() query.Row {
	return query.Row{
		"id":            c.ID,
		"title":         c.Title,
		"category":      c.Category,
		"instructor_id": c.InstructorID,
		"published":     c.Published,
		"created_at":    c.CreatedAt,
	}
}

// Repository defines the interface for course persistence
type Repository interface {
	// List executes sel. A denied statement returns no rows without a query.
	List(ctx context.Context, sel *query.Select) ([]*Course, error)

	// GetByID returns ErrCourseNotFound for unknown IDs.
	GetByID(ctx context.Context, id string) (*Course, error)

	Create(ctx context.Context, c *Course) error
}

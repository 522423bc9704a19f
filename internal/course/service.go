// Copyright 2026 The Lumina Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/identity"
	"github.com/lumina-learn/lumina/internal/observability/logger"
	"github.com/lumina-learn/lumina/internal/query"
)

// Authorizer runs fn under a resolved decision.
type Authorizer interface {
	Authorize(ctx context.Context, user identity.User, permissionKey string, fn func(ctx context.Context, d authz.Decision) error) error
}

// Service lists and loads courses within the caller's course:READ scope.
type Service struct {
	authz Authorizer
	repo  Repository
}

// NewService creates a new course service
func NewService(authorizer Authorizer, repo Repository) *Service {
	return &Service{authz: authorizer, repo: repo}
}

// ListOptions narrows a course listing.
type ListOptions struct {
	Category string
	Limit    int
	Offset   int
}

// List returns the courses the user may read, optionally by category.
func (s *Service) List(ctx context.Context, user identity.User, opts ListOptions) ([]*Course, error) {
	var courses []*Course
	err := s.authz.Authorize(ctx, user, authz.PermCourseRead, func(ctx context.Context, d authz.Decision) error {
		if !d.Allowed() {
			return ErrAccessDenied
		}

		sel := query.From(Table).Columns(Columns...).OrderBy("title", "id")
		if opts.Category != "" {
			sel.Where(query.Eq("category", opts.Category))
		}
		if opts.Limit > 0 {
			sel.Limit(opts.Limit)
		}
		if opts.Offset > 0 {
			sel.Offset(opts.Offset)
		}
		sel = query.ApplyFilter(ctx, sel, Entity.Ownership)

		var err error
		courses, err = s.repo.List(ctx, sel)
		if err != nil {
			return fmt.Errorf("failed to list courses: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			slog.InfoContext(ctx, "course listing denied",
				logger.Component("course"),
				logger.UserID(user.ID),
			)
		}
		return nil, err
	}
	return courses, nil
}

// Get returns one course. Courses outside the caller's scope are reported
// as not found.
func (s *Service) Get(ctx context.Context, user identity.User, id string) (*Course, error) {
	var found *Course
	err := s.authz.Authorize(ctx, user, authz.PermCourseRead, func(ctx context.Context, d authz.Decision) error {
		if !d.Allowed() {
			return ErrAccessDenied
		}
		c, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrCourseNotFound) {
				return ErrCourseNotFound
			}
			return fmt.Errorf("failed to get course: %w", err)
		}
		if !query.Allows(ctx, Entity, c) {
			return ErrCourseNotFound
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

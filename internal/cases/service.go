package cases

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gavelhq/gavel/internal/shared"
)

// Service owns docket behavior above storage. Visibility rules live here:
// sealed cases exist for the public only as 404.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService wires the docket service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// File opens a new case in the caller's court.
func (s *Service) File(ctx context.Context, authz shared.AuthzContext, caseNumber, title string) (*Case, error) {
	c := &Case{
		CourtID:    authz.CourtID,
		CaseNumber: caseNumber,
		Title:      title,
		Status:     StatusOpen,
		FiledBy:    authz.Principal.UserID,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get fetches one case. A sealed case is indistinguishable from a missing one
// unless the caller's role satisfies Clerk.
func (s *Service) Get(ctx context.Context, authz shared.AuthzContext, id int64) (*Case, error) {
	c, err := s.repo.FindByID(ctx, authz.CourtID, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusSealed && !authz.Role.Satisfies(shared.RoleClerk) {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

// List returns one page of the court's docket. Sealed cases are filtered the
// same way Get hides them.
func (s *Service) List(ctx context.Context, authz shared.AuthzContext, page, perPage int) ([]Case, shared.Pagination, error) {
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	items, total, err := s.repo.List(ctx, authz.CourtID, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if !authz.Role.Satisfies(shared.RoleClerk) {
		visible := items[:0]
		for _, c := range items {
			if c.Status != StatusSealed {
				visible = append(visible, c)
			}
		}
		items = visible
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// SetStatus transitions a case to the given status.
func (s *Service) SetStatus(ctx context.Context, authz shared.AuthzContext, id int64, status string) (*Case, error) {
	if !validStatus(status) {
		return nil, errors.New("cases: unknown status")
	}
	if err := s.repo.UpdateStatus(ctx, authz.CourtID, id, status); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, authz.CourtID, id)
}

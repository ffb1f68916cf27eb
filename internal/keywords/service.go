package keywords

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service wraps Repository with creation/update validation: keyword
// normalization, uniqueness, non-empty auto-response, and list existence.
type Service struct {
	repo        *Repository
	listExists  func(ctx context.Context, id uuid.UUID) (bool, error)
}

// NewService builds a Service. listExists should report whether a given
// list id is a real, current list (typically lists.Repository.GetByID
// adapted to a boolean).
func NewService(repo *Repository, listExists func(ctx context.Context, id uuid.UUID) (bool, error)) *Service {
	return &Service{repo: repo, listExists: listExists}
}

func normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Create validates and inserts a new signup keyword.
func (s *Service) Create(ctx context.Context, k *SignupKeyword) error {
	k.Keyword = normalize(k.Keyword)
	if err := s.validate(ctx, k); err != nil {
		return err
	}
	if _, err := s.repo.FindByKeyword(ctx, k.Keyword); err == nil {
		return ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.repo.Create(ctx, k)
}

// Update validates and persists changes to an existing keyword, rejecting
// if another active or inactive row already owns the new keyword text.
func (s *Service) Update(ctx context.Context, k *SignupKeyword) error {
	k.Keyword = normalize(k.Keyword)
	if err := s.validate(ctx, k); err != nil {
		return err
	}
	if _, err := s.repo.FindByKeywordExcludingID(ctx, k.Keyword, k.ID); err == nil {
		return ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.repo.Update(ctx, k)
}

func (s *Service) validate(ctx context.Context, k *SignupKeyword) error {
	if k.Keyword == "" {
		return fmt.Errorf("%w: keyword is required", ErrInvalidInput)
	}
	if strings.TrimSpace(k.AutoResponse) == "" {
		return fmt.Errorf("%w: autoResponse is required", ErrInvalidInput)
	}
	if k.ListID != nil && s.listExists != nil {
		ok, err := s.listExists(ctx, *k.ListID)
		if err != nil {
			return fmt.Errorf("keywords: checking list existence: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: list %s does not exist", ErrInvalidInput, *k.ListID)
		}
	}
	return nil
}

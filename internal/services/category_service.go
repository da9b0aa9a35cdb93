package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"orderdesk/internal/apperror"
	"orderdesk/internal/models"
	"orderdesk/internal/policy"
	"orderdesk/internal/repositories"
)

// CategoryService handles business logic related to categories.
type CategoryService struct {
	repo   repositories.CategoryRepository
	policy policy.Policy
	log    *zap.Logger
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository, pol policy.Policy, log *zap.Logger) *CategoryService {
	return &CategoryService{repo: repo, policy: pol, log: log}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CategoryService) CreateCategory(ctx context.Context, identity policy.Identity, name string) (*models.Category, error) {
	if err := s.policy.Authorize(identity, policy.ManageCatalog, nil); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	s.log.Info("category created", zap.String("category_id", category.ID), zap.String("name", name))
	return category, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, identity policy.Identity, id, name string) (*models.Category, error) {
	if err := s.policy.Authorize(identity, policy.ManageCatalog, nil); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}

	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category.Name == name {
		return category, nil
	}
	if err := s.ensureNameFree(ctx, name, category.ID); err != nil {
		return nil, err
	}

	category.Name = name
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	s.log.Info("category updated", zap.String("category_id", id))
	return s.repo.GetByID(ctx, id)
}

// DeleteCategory hard-deletes a category that no product references.
// Tombstoned products count as references because their orders still
// expand to the category.
func (s *CategoryService) DeleteCategory(ctx context.Context, identity policy.Identity, id string) error {
	if err := s.policy.Authorize(identity, policy.ManageCatalog, nil); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.Conflict(apperror.CodeCategoryInUse, "category %s is used by %d product(s)", id, count)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("category deleted", zap.String("category_id", id))
	return nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.GetByName(ctx, name)
	switch {
	case err == nil && existing.ID != selfID:
		return apperror.Conflict(apperror.CodeAlreadyExists, "category name '%s' already taken", name)
	case err == nil, errors.Is(err, apperror.ErrNotFound):
		return nil
	default:
		return err
	}
}

func validateCategoryName(name string) error {
	switch {
	case name == "":
		return apperror.Validation("invalid category", map[string]string{"name": "name is required"})
	case len([]rune(name)) > 255:
		return apperror.Validation("invalid category", map[string]string{"name": "name must be at most 255 characters"})
	}
	return nil
}

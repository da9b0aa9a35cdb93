package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"orderdesk/internal/apperror"
	"orderdesk/internal/models"
	"orderdesk/internal/policy"
	"orderdesk/internal/repositories"
)

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Name       string
	Price      decimal.Decimal
	Quantity   int
	CategoryID string
}

// ProductPatch carries the fields to change on a product; nil fields are
// left untouched.
type ProductPatch struct {
	Name       *string
	Price      *decimal.Decimal
	Quantity   *int
	CategoryID *string
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo       repositories.ProductRepository
	categories repositories.CategoryRepository
	policy     policy.Policy
	log        *zap.Logger
	pageSize   int
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categories repositories.CategoryRepository, pol policy.Policy, log *zap.Logger, pageSize int) *ProductService {
	if pageSize <= 0 {
		pageSize = 15
	}
	return &ProductService{
		repo:       repo,
		categories: categories,
		policy:     pol,
		log:        log,
		pageSize:   pageSize,
	}
}

// ListProducts returns one page of live products with their category.
func (s *ProductService) ListProducts(ctx context.Context, page int) (models.Page[models.Product], error) {
	if page < 1 {
		page = 1
	}
	products, total, err := s.repo.List(ctx, models.Offset(page, s.pageSize), s.pageSize)
	if err != nil {
		return models.Page[models.Product]{}, err
	}
	return models.NewPage(products, total, page, s.pageSize), nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, identity policy.Identity, input ProductInput) (*models.Product, error) {
	if err := s.policy.Authorize(identity, policy.ManageCatalog, nil); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:       strings.TrimSpace(input.Name),
		Price:      models.NewMoney(input.Price),
		Quantity:   input.Quantity,
		CategoryID: input.CategoryID,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, product.Name, ""); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, product.CategoryID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.log.Info("product created", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return s.repo.GetByID(ctx, product.ID)
}

// UpdateProduct applies patch to an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, identity policy.Identity, id string, patch ProductPatch) (*models.Product, error) {
	if err := s.policy.Authorize(identity, policy.ManageCatalog, nil); err != nil {
		return nil, err
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name != product.Name {
			if err := s.ensureNameFree(ctx, name, product.ID); err != nil {
				return nil, err
			}
		}
		product.Name = name
	}
	if patch.Price != nil {
		product.Price = models.NewMoney(*patch.Price)
	}
	if patch.Quantity != nil {
		product.Quantity = *patch.Quantity
	}
	if patch.CategoryID != nil && *patch.CategoryID != product.CategoryID {
		if err := s.ensureCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *patch.CategoryID
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.log.Info("product updated", zap.String("product_id", product.ID))
	return s.repo.GetByID(ctx, product.ID)
}

// DeleteProduct soft-deletes a product. Orders that contain it keep
// referencing it.
func (s *ProductService) DeleteProduct(ctx context.Context, identity policy.Identity, id string) error {
	if err := s.policy.Authorize(identity, policy.ManageCatalog, nil); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", zap.String("product_id", id))
	return nil
}

// RestoreProduct brings a soft-deleted product back into the catalog.
func (s *ProductService) RestoreProduct(ctx context.Context, identity policy.Identity, id string) (*models.Product, error) {
	if err := s.policy.Authorize(identity, policy.ManageCatalog, nil); err != nil {
		return nil, err
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		return nil, err
	}
	s.log.Info("product restored", zap.String("product_id", id))
	return s.repo.GetByID(ctx, id)
}

func (s *ProductService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.GetByName(ctx, name)
	switch {
	case err == nil && existing.ID != selfID:
		return apperror.Conflict(apperror.CodeAlreadyExists, "product name '%s' already taken", name)
	case err == nil, errors.Is(err, apperror.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *ProductService) ensureCategory(ctx context.Context, categoryID string) error {
	_, err := s.categories.GetByID(ctx, categoryID)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.Validation("category does not exist", map[string]string{
			"category_id": "category does not exist",
		})
	}
	return err
}

func validateProduct(p *models.Product) error {
	fields := make(map[string]string)
	if p.Name == "" {
		fields["name"] = "name is required"
	} else if len([]rune(p.Name)) > 255 {
		fields["name"] = "name must be at most 255 characters"
	}
	if !p.Price.IsPositive() {
		fields["price"] = "price must be greater than 0"
	}
	if p.Quantity < 0 {
		fields["quantity"] = "quantity must be 0 or more"
	}
	if p.CategoryID == "" {
		fields["category_id"] = "category_id is required"
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid product", fields)
	}
	return nil
}

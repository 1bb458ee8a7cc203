package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ghostlounge_backend/internal/database"
	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/repositories"
	"ghostlounge_backend/pkg/money"
)

// --- Catalog DTOs ---
type CategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type CreateProductRequest struct {
	Name        string      `json:"name" binding:"required"`
	CategoryID  *int64      `json:"category_id"`
	Price       money.Cents `json:"price" binding:"required"`
	GhostPoints int64       `json:"ghost_points"`
	Description *string     `json:"description"`
	IsActive    *bool       `json:"is_active"`
}

type UpdateProductRequest struct {
	Name        *string      `json:"name"`
	CategoryID  *int64       `json:"category_id"`
	Price       *money.Cents `json:"price"`
	GhostPoints *int64       `json:"ghost_points"`
	Description *string      `json:"description"`
	IsActive    *bool        `json:"is_active"`
}

// --- CatalogService Interface ---
type CatalogService interface {
	CreateCategory(ctx context.Context, req CategoryRequest) (*models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id int64, req CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// --- catalogService Implementation ---
type catalogService struct {
	catalogRepo repositories.CatalogRepository
	db          *sql.DB
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(repo repositories.CatalogRepository, db *sql.DB) CatalogService {
	return &catalogService{catalogRepo: repo, db: db}
}

// duplicateAsName turns a unique violation into ErrDuplicateName.
func duplicateAsName(err error, notFound error, op string) error {
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return ErrDuplicateName
	}
	return storeErr(err, notFound, op)
}

func (s *catalogService) CreateCategory(ctx context.Context, req CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationf("category name cannot be empty")
	}
	now := database.Now()
	category := &models.Category{Name: name, Description: optional(req.Description), CreatedAt: now, UpdatedAt: now}
	if _, err := s.catalogRepo.CreateCategory(ctx, s.db, category); err != nil {
		return nil, duplicateAsName(err, nil, "creating category")
	}
	return s.GetCategory(ctx, category.ID)
}

func (s *catalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.catalogRepo.GetCategoryByID(ctx, s.db, id)
	if err != nil {
		return nil, storeErr(err, ErrCategoryNotFound, "getting category")
	}
	return category, nil
}

func (s *catalogService) GetCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.catalogRepo.GetCategories(ctx)
	return categories, storeErr(err, nil, "listing categories")
}

func (s *catalogService) UpdateCategory(ctx context.Context, id int64, req CategoryRequest) (*models.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationf("category name cannot be empty")
	}
	category.Name = name
	category.Description = optional(req.Description)
	category.UpdatedAt = database.Now()
	if err := s.catalogRepo.UpdateCategory(ctx, s.db, category); err != nil {
		return nil, duplicateAsName(err, ErrCategoryNotFound, "updating category")
	}
	return s.GetCategory(ctx, id)
}

func (s *catalogService) DeleteCategory(ctx context.Context, id int64) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.catalogRepo.GetCategoryByID(ctx, tx, id); err != nil {
			return storeErr(err, ErrCategoryNotFound, "loading category")
		}
		inUse, err := s.catalogRepo.CategoryHasProducts(ctx, tx, id)
		if err != nil {
			return storeErr(err, nil, "checking category products")
		}
		if inUse {
			return ErrCategoryInUse
		}
		return storeErr(s.catalogRepo.DeleteCategory(ctx, tx, id), ErrCategoryNotFound, "deleting category")
	})
}

func validateProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return validationf("product name cannot be empty")
	}
	if !p.Price.IsPositive() {
		return validationf("price must be greater than zero")
	}
	if p.GhostPoints < 0 {
		return validationf("ghost_points cannot be negative")
	}
	return nil
}

func (s *catalogService) checkCategory(ctx context.Context, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.catalogRepo.GetCategoryByID(ctx, s.db, *categoryID); err != nil {
		return storeErr(err, ErrCategoryNotFound, "loading category")
	}
	return nil
}

func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	now := database.Now()
	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		CategoryID:  req.CategoryID,
		Price:       req.Price,
		GhostPoints: req.GhostPoints,
		Description: optional(req.Description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, product.CategoryID); err != nil {
		return nil, err
	}
	if _, err := s.catalogRepo.CreateProduct(ctx, s.db, product); err != nil {
		return nil, storeErr(err, nil, "creating product")
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.catalogRepo.GetProductByID(ctx, s.db, id)
	if err != nil {
		return nil, storeErr(err, ErrProductNotFound, "getting product")
	}
	return product, nil
}

func (s *catalogService) GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, error) {
	products, err := s.catalogRepo.GetProducts(ctx, filters)
	return products, storeErr(err, nil, "listing products")
}

// UpdateProduct changes catalog data. Past transactions keep their captured unit price.
func (s *catalogService) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.GhostPoints != nil {
		product.GhostPoints = *req.GhostPoints
	}
	if req.Description != nil {
		product.Description = optional(req.Description)
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, product.CategoryID); err != nil {
		return nil, err
	}

	product.UpdatedAt = database.Now()
	if err := s.catalogRepo.UpdateProduct(ctx, s.db, product); err != nil {
		return nil, storeErr(err, ErrProductNotFound, "updating product")
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct fails once any transaction references the product; deactivate it instead.
func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.catalogRepo.GetProductByID(ctx, tx, id); err != nil {
			return storeErr(err, ErrProductNotFound, "loading product")
		}
		used, err := s.catalogRepo.ProductHasTransactions(ctx, tx, id)
		if err != nil {
			return storeErr(err, nil, "checking product transactions")
		}
		if used {
			return ErrProductHasHistory
		}
		return storeErr(s.catalogRepo.DeleteProduct(ctx, tx, id), ErrProductNotFound, "deleting product")
	})
}

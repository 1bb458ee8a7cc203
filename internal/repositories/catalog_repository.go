package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ghostlounge_backend/internal/models"
)

// CatalogRepository defines category and product persistence.
type CatalogRepository interface {
	CreateCategory(ctx context.Context, executor SQLExecutor, category *models.Category) (int64, error)
	GetCategoryByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Category, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, executor SQLExecutor, category *models.Category) error
	DeleteCategory(ctx context.Context, executor SQLExecutor, id int64) error
	CategoryHasProducts(ctx context.Context, executor SQLExecutor, id int64) (bool, error)

	CreateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Product, error)
	GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, error)
	UpdateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error
	DeleteProduct(ctx context.Context, executor SQLExecutor, id int64) error
	ProductHasTransactions(ctx context.Context, executor SQLExecutor, id int64) (bool, error)
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	var description sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Description = nullString(description)
	return &c, nil
}

func (r *catalogRepository) CreateCategory(ctx context.Context, executor SQLExecutor, category *models.Category) (int64, error) {
	err := executor.QueryRowContext(ctx,
		`INSERT INTO categories (name, description, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		category.Name, category.Description, category.CreatedAt, category.UpdatedAt,
	).Scan(&category.ID)
	if err != nil {
		return 0, classifyError(err, "creating category")
	}
	return category.ID, nil
}

func (r *catalogRepository) GetCategoryByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Category, error) {
	c, err := scanCategory(executor.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting category ID %d", id))
	}
	return c, nil
}

func (r *catalogRepository) GetCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating category rows: %v", ErrDatabaseError, err)
	}
	return categories, nil
}

func (r *catalogRepository) UpdateCategory(ctx context.Context, executor SQLExecutor, category *models.Category) error {
	op := fmt.Sprintf("updating category ID %d", category.ID)
	result, err := executor.ExecContext(ctx,
		`UPDATE categories SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		category.Name, category.Description, category.UpdatedAt, category.ID)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *catalogRepository) DeleteCategory(ctx context.Context, executor SQLExecutor, id int64) error {
	op := fmt.Sprintf("deleting category ID %d", id)
	result, err := executor.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *catalogRepository) CategoryHasProducts(ctx context.Context, executor SQLExecutor, id int64) (bool, error) {
	return exists(ctx, executor, `SELECT COUNT(*) FROM products WHERE category_id = $1`, id)
}

const selectProductFields = `p.id, p.name, p.category_id, cat.name, p.price, p.ghost_points, p.description, p.is_active, p.created_at, p.updated_at
	FROM products p
	LEFT JOIN categories cat ON cat.id = p.category_id`

func scanProduct(row scanner) (*models.Product, error) {
	var p models.Product
	var categoryID sql.NullInt64
	var categoryName, description sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &categoryID, &categoryName, &p.Price, &p.GhostPoints, &description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CategoryID = nullInt64(categoryID)
	p.CategoryName = nullString(categoryName)
	p.Description = nullString(description)
	return &p, nil
}

func (r *catalogRepository) CreateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products (name, category_id, price, ghost_points, description, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		product.Name, product.CategoryID, int64(product.Price), product.GhostPoints,
		product.Description, product.IsActive, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		return 0, classifyError(err, "creating product")
	}
	return product.ID, nil
}

func (r *catalogRepository) GetProductByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Product, error) {
	p, err := scanProduct(executor.QueryRowContext(ctx, `SELECT `+selectProductFields+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting product ID %d", id))
	}
	return p, nil
}

func (r *catalogRepository) GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + selectProductFields)

	var conditions []string
	var args []interface{}
	argCount := 1

	if term := strings.TrimSpace(filters.Search); term != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(p.name) LIKE $%d", argCount))
		args = append(args, "%"+strings.ToLower(term)+"%")
		argCount++
	}
	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argCount))
		args = append(args, *filters.CategoryID)
		argCount++
	}
	if filters.ActiveOnly {
		conditions = append(conditions, fmt.Sprintf("p.is_active = $%d", argCount))
		args = append(args, true)
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY p.name ASC, p.id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *catalogRepository) UpdateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error {
	op := fmt.Sprintf("updating product ID %d", product.ID)
	query := `UPDATE products SET name = $1, category_id = $2, price = $3, ghost_points = $4,
	            description = $5, is_active = $6, updated_at = $7
	          WHERE id = $8`
	result, err := executor.ExecContext(ctx, query,
		product.Name, product.CategoryID, int64(product.Price), product.GhostPoints,
		product.Description, product.IsActive, product.UpdatedAt, product.ID)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *catalogRepository) DeleteProduct(ctx context.Context, executor SQLExecutor, id int64) error {
	op := fmt.Sprintf("deleting product ID %d", id)
	result, err := executor.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *catalogRepository) ProductHasTransactions(ctx context.Context, executor SQLExecutor, id int64) (bool, error) {
	return exists(ctx, executor, `SELECT COUNT(*) FROM transactions WHERE product_id = $1`, id)
}

// exists runs a COUNT(*) query and reports a non-zero result.
func exists(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) (bool, error) {
	var n int64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("%w: counting rows: %v", ErrDatabaseError, err)
	}
	return n > 0, nil
}

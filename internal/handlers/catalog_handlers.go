package handlers

import (
	"net/http"

	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves product categories and products.
type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// --- Categories ---

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req services.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.catalogService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Creating category")
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, category)
}

func (h *CatalogHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalogService.GetCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Listing categories")
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	utils.RespondWithSuccess(c, http.StatusOK, categories)
}

func (h *CatalogHandler) GetCategoryByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	category, err := h.catalogService.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Loading category")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, category)
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Updating category")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, category)
}

// DeleteCategory refuses while products still reference the category.
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Deleting category")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// --- Products ---

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.catalogService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Creating product")
		return
	}
	utils.RespondWithSuccess(c, http.StatusCreated, product)
}

// GetProducts supports ?search=, ?category_id= and ?active_only=true.
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	var filters models.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	products, err := h.catalogService.GetProducts(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "Listing products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	utils.RespondWithSuccess(c, http.StatusOK, products)
}

func (h *CatalogHandler) GetProductByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Loading product")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Updating product")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Deleting product")
		return
	}
	utils.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

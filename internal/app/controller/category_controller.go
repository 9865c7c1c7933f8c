package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/avyhea/avyhea-backend/internal/app/service"
	apperrors "github.com/avyhea/avyhea-backend/internal/errors"
	"github.com/avyhea/avyhea-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{
		categoryService: categoryService,
	}
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// GetCategories lists all categories
// GET /api/v1/categories
func (ctrl *CategoryController) GetCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.categoryService.GetCategories()
	if err != nil {
		log.Error("Failed to fetch categories", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetCategoryByID returns one category
// GET /api/v1/categories/:id
func (ctrl *CategoryController) GetCategoryByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid category ID")
		return
	}

	category, err := ctrl.categoryService.GetCategoryByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			apperrors.NotFound(c, apperrors.CategoryNotFound, "Category not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
	})
}

// CreateCategory creates a category (admin)
// POST /api/v1/admin/categories
func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Category name is required")
		return
	}

	category, err := ctrl.categoryService.CreateCategory(req.Name, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrCategoryExists) {
			apperrors.Conflict(c, apperrors.CategoryAlreadyExists, "A category with this name already exists")
			return
		}
		log.Error("Failed to create category", err, map[string]interface{}{
			"name": req.Name,
		})
		apperrors.ParseAndRespond(c, err, "create category")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Category created",
		"category": category,
	})
}

// UpdateCategory updates a category (admin)
// PUT /api/v1/admin/categories/:id
func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid category ID")
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Category name is required")
		return
	}

	category, err := ctrl.categoryService.UpdateCategory(uint(id), req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			apperrors.NotFound(c, apperrors.CategoryNotFound, "Category not found")
		case errors.Is(err, service.ErrCategoryExists):
			apperrors.Conflict(c, apperrors.CategoryAlreadyExists, "A category with this name already exists")
		default:
			log.Error("Failed to update category", err, map[string]interface{}{
				"category_id": id,
			})
			apperrors.ParseAndRespond(c, err, "update category")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Category updated",
		"category": category,
	})
}

// DeleteCategory deletes a category and everything under it (admin)
// DELETE /api/v1/admin/categories/:id
func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid category ID")
		return
	}

	if err := ctrl.categoryService.DeleteCategory(uint(id)); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			apperrors.NotFound(c, apperrors.CategoryNotFound, "Category not found")
			return
		}
		log.Error("Failed to delete category", err, map[string]interface{}{
			"category_id": id,
		})
		apperrors.ParseAndRespond(c, err, "delete category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category deleted",
	})
}

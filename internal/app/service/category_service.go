package service

import (
	"errors"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

type CategoryService interface {
	CreateCategory(name, description string) (*model.Category, error)
	UpdateCategory(id uint, name, description string) (*model.Category, error)
	DeleteCategory(id uint) error
	GetCategories() ([]model.Category, error)
	GetCategoryByID(id uint) (*model.Category, error)
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

func (s *categoryService) CreateCategory(name, description string) (*model.Category, error) {
	if _, err := s.categoryRepo.FindByName(name); err == nil {
		logger.Warn("Category creation failed: name taken", map[string]interface{}{
			"name": name,
		})
		return nil, ErrCategoryExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := &model.Category{
		Name:        name,
		Description: description,
	}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}

	logger.Info("Category created", map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
	})
	return category, nil
}

func (s *categoryService) UpdateCategory(id uint, name, description string) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	if name != "" && name != category.Name {
		if _, err := s.categoryRepo.FindByName(name); err == nil {
			return nil, ErrCategoryExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		category.Name = name
	}
	if description != "" {
		category.Description = description
	}

	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes the category and cascade-deletes every product
// in it, along with the order lines, cart lines and reviews that
// reference those products
func (s *categoryService) DeleteCategory(id uint) error {
	category, err := s.categoryRepo.FindByID(id, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	productIDs := make([]uint, 0, len(category.Products))
	for _, product := range category.Products {
		productIDs = append(productIDs, product.ID)
	}

	logger.Info("Deleting category with products", map[string]interface{}{
		"category_id":   id,
		"product_count": len(productIDs),
	})

	if err := s.productRepo.DeleteCascade(productIDs); err != nil {
		return err
	}
	return s.categoryRepo.Delete(id)
}

func (s *categoryService) GetCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}

func (s *categoryService) GetCategoryByID(id uint) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

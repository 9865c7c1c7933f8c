package service

import (
	"errors"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	CategoryID  uint
	Images      []string
	Colors      []string
}

type ProductService interface {
	CreateProduct(input ProductInput) (*model.Product, error)
	UpdateProduct(id uint, input ProductInput) (*model.Product, error)
	DeleteProduct(id uint) error
	GetProducts(filter repository.ProductFilter) ([]model.Product, int64, error)
	GetProductByID(id uint) (*model.Product, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *productService) CreateProduct(input ProductInput) (*model.Product, error) {
	if _, err := s.categoryRepo.FindByID(input.CategoryID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product creation failed: category not found", map[string]interface{}{
				"category_id": input.CategoryID,
			})
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	product := &model.Product{
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		Stock:         input.Stock,
		CategoryID:    input.CategoryID,
		Images:        input.Images,
		Colors:        input.Colors,
		AverageRating: model.DefaultProductRating,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

func (s *productService) UpdateProduct(id uint, input ProductInput) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if input.CategoryID != 0 && input.CategoryID != product.CategoryID {
		if _, err := s.categoryRepo.FindByID(input.CategoryID, false); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		product.CategoryID = input.CategoryID
	}

	if input.Name != "" {
		product.Name = input.Name
	}
	if input.Description != "" {
		product.Description = input.Description
	}
	if input.Price > 0 {
		product.Price = input.Price
	}
	if input.Stock >= 0 {
		product.Stock = input.Stock
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.Colors != nil {
		product.Colors = input.Colors
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
	})
	return product, nil
}

// DeleteProduct removes the product together with its reviews and the
// order and cart lines that reference it
func (s *productService) DeleteProduct(id uint) error {
	if _, err := s.productRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	logger.Info("Deleting product", map[string]interface{}{
		"product_id": id,
	})
	return s.productRepo.DeleteCascade([]uint{id})
}

func (s *productService) GetProducts(filter repository.ProductFilter) ([]model.Product, int64, error) {
	return s.productRepo.FindAll(filter)
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

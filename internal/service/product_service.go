package service

import (
	"context"

	"github.com/fastkart-next/internal/cache"
	"github.com/fastkart-next/internal/models"
	"github.com/fastkart-next/internal/repository"
)

// ProductService 商品服务
type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService 创建商品服务实例
func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// List 商品列表
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// GetByID 商品详情（优先走缓存）
func (s *ProductService) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	if cached, ok := cache.GetCachedProduct(ctx, id); ok {
		return cached, nil
	}
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	cache.CacheProduct(ctx, product)
	return product, nil
}

// GetBySlug 按 slug 获取商品详情
func (s *ProductService) GetBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(product *models.Product) error {
	return s.productRepo.Create(product)
}

// Update 更新商品（同时失效缓存）
func (s *ProductService) Update(ctx context.Context, product *models.Product) error {
	if err := s.productRepo.Update(product); err != nil {
		return err
	}
	cache.InvalidateProduct(ctx, product.ID)
	return nil
}

// Delete 删除商品
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if err := s.productRepo.Delete(id); err != nil {
		return err
	}
	cache.InvalidateProduct(ctx, id)
	return nil
}

// ListCategories 分类列表
func (s *ProductService) ListCategories() ([]models.Category, error) {
	return s.categoryRepo.List()
}

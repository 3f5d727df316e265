package admin

import (
	"errors"
	"strconv"

	"github.com/fastkart-next/internal/http/response"
	"github.com/fastkart-next/internal/models"
	"github.com/fastkart-next/internal/repository"
	"github.com/fastkart-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	CategoryID    uint     `json:"category_id" binding:"required"`
	Slug          string   `json:"slug" binding:"required"`
	SKU           string   `json:"sku"`
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	PriceAmount   float64  `json:"price_amount" binding:"required"`
	OriginalPrice float64  `json:"original_price"`
	Images        []string `json:"images"`
	Stock         int      `json:"stock"`
	IsActive      *bool    `json:"is_active"`
	SortOrder     int      `json:"sort_order"`
}

// CategoryRequest 分类创建/更新请求
type CategoryRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	SortOrder   int    `json:"sort_order"`
}

// ListProducts 管理端商品列表（含下架商品）
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := parsePagination(c)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 32)

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		CategoryID: uint(categoryID),
		Keyword:    c.Query("keyword"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "fetch products failed", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"items": products}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetProduct 管理端商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}
	product, err := h.ProductService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "fetch product failed", err)
		return
	}
	response.Success(c, gin.H{"product": product})
}

func (req *ProductRequest) apply(product *models.Product) {
	product.CategoryID = req.CategoryID
	product.Slug = req.Slug
	product.SKU = req.SKU
	product.Name = req.Name
	product.Description = req.Description
	product.PriceAmount = models.NewMoneyFromDecimal(decimal.NewFromFloat(req.PriceAmount))
	product.OriginalPrice = models.NewMoneyFromDecimal(decimal.NewFromFloat(req.OriginalPrice))
	product.Images = models.StringArray(req.Images)
	product.Stock = req.Stock
	product.SortOrder = req.SortOrder
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}
	if req.PriceAmount < 0 || req.Stock < 0 {
		respondError(c, response.CodeBadRequest, "invalid price or stock", nil)
		return
	}

	product := &models.Product{IsActive: true}
	req.apply(product)
	if err := h.ProductService.Create(product); err != nil {
		respondError(c, response.CodeInternal, "create product failed", err)
		return
	}
	response.Success(c, gin.H{"product": product})
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}
	if req.PriceAmount < 0 || req.Stock < 0 {
		respondError(c, response.CodeBadRequest, "invalid price or stock", nil)
		return
	}

	product, err := h.ProductService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "fetch product failed", err)
		return
	}

	req.apply(product)
	if err := h.ProductService.Update(c.Request.Context(), product); err != nil {
		respondError(c, response.CodeInternal, "update product failed", err)
		return
	}
	response.Success(c, gin.H{"product": product})
}

// DeleteProduct 删除商品（软删除）
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}
	if err := h.ProductService.Delete(c.Request.Context(), uint(id)); err != nil {
		respondError(c, response.CodeInternal, "delete product failed", err)
		return
	}
	response.Success(c, nil)
}

// ListCategories 管理端分类列表
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.ProductService.ListCategories()
	if err != nil {
		respondError(c, response.CodeInternal, "fetch categories failed", err)
		return
	}
	response.Success(c, gin.H{"items": categories})
}

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}

	category := &models.Category{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
	}
	if err := h.CategoryRepo.Create(category); err != nil {
		respondError(c, response.CodeInternal, "create category failed", err)
		return
	}
	response.Success(c, gin.H{"category": category})
}

// UpdateCategory 更新分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid category id", nil)
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", nil)
		return
	}

	category, err := h.CategoryRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, response.CodeInternal, "fetch category failed", err)
		return
	}
	if category == nil {
		respondError(c, response.CodeNotFound, "category not found", nil)
		return
	}

	category.Slug = req.Slug
	category.Name = req.Name
	category.Description = req.Description
	category.Icon = req.Icon
	category.SortOrder = req.SortOrder
	if err := h.CategoryRepo.Update(category); err != nil {
		respondError(c, response.CodeInternal, "update category failed", err)
		return
	}
	response.Success(c, gin.H{"category": category})
}

// DeleteCategory 删除分类
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid category id", nil)
		return
	}
	if err := h.CategoryRepo.Delete(uint(id)); err != nil {
		respondError(c, response.CodeInternal, "delete category failed", err)
		return
	}
	response.Success(c, nil)
}

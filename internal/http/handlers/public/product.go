package public

import (
	"strconv"

	handlershared "github.com/fastkart-next/internal/http/handlers/shared"
	"github.com/fastkart-next/internal/http/response"
	"github.com/fastkart-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListProducts 商品列表（仅上架商品）
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 32)

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		CategoryID: uint(categoryID),
		Keyword:    c.Query("keyword"),
		ActiveOnly: true,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "fetch products failed", err)
		return
	}

	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, gin.H{"items": products}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}
	product, err := h.ProductService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		respondCartError(c, err)
		return
	}
	if !product.IsActive {
		respondError(c, response.CodeNotFound, "product not found", nil)
		return
	}
	response.Success(c, gin.H{"product": product})
}

// ListCategories 分类列表
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.ProductService.ListCategories()
	if err != nil {
		respondError(c, response.CodeInternal, "fetch categories failed", err)
		return
	}
	response.Success(c, gin.H{"items": categories})
}

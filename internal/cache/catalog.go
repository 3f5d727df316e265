package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/fastkart-next/internal/models"
)

const productCacheTTL = 10 * time.Minute

func productKey(productID uint) string {
	return fmt.Sprintf("catalog:product:%d", productID)
}

// CacheProduct 缓存商品快照（Redis 未启用时为空操作）
func CacheProduct(ctx context.Context, product *models.Product) {
	if product == nil || !Enabled() {
		return
	}
	_ = SetJSON(ctx, productKey(product.ID), product, productCacheTTL)
}

// GetCachedProduct 读取商品快照缓存
func GetCachedProduct(ctx context.Context, productID uint) (*models.Product, bool) {
	if !Enabled() {
		return nil, false
	}
	var product models.Product
	ok, err := GetJSON(ctx, productKey(productID), &product)
	if err != nil || !ok {
		return nil, false
	}
	return &product, true
}

// InvalidateProduct 删除商品快照缓存（库存/价格变动后调用）
func InvalidateProduct(ctx context.Context, productID uint) {
	if !Enabled() {
		return
	}
	_ = Del(ctx, productKey(productID))
}

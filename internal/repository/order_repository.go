package repository

import (
	"errors"
	"strconv"
	"strings"

	"github.com/fastkart-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem, history *models.OrderStatusHistory) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateStatusIf(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error)
	AppendStatusHistory(entry *models.OrderStatusHistory) error
	MaxSeqByPrefix(prefix string) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withDetail(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_status_histories.id asc")
		})
}

// Create 创建订单（订单项与首条状态历史一并写入）
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem, history *models.OrderStatusHistory) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	if history != nil {
		history.OrderID = order.ID
		if err := r.db.Create(history).Error; err != nil {
			return err
		}
		order.StatusHistory = []models.OrderStatusHistory{*history}
	}
	return nil
}

// GetByID 根据ID获取订单（含订单项与状态历史）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 根据ID获取用户自己的订单
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	err := r.withDetail(r.db).Where("id = ? AND user_id = ?", id, userID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单编号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.withDetail(r.db).Where("order_no = ?", orderNo).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter OrderListFilter) *gorm.DB {
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at < ?", *filter.CreatedTo)
	}
	return query
}

// ListByUser 获取用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.applyFilter(r.db.Model(&models.Order{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Items").Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListAdmin 获取后台订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	return r.ListByUser(filter)
}

// UpdateStatusIf 条件更新订单状态，返回受影响行数
// 以当前状态作为条件，并发下只有一个更新能生效
func (r *GormOrderRepository) UpdateStatusIf(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = toStatus
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// AppendStatusHistory 追加状态历史
func (r *GormOrderRepository) AppendStatusHistory(entry *models.OrderStatusHistory) error {
	return r.db.Create(entry).Error
}

// MaxSeqByPrefix 返回指定编号前缀下已占用的最大序号
// 含已软删订单（order_no 唯一索引对它们同样生效），无匹配时返回 0
func (r *GormOrderRepository) MaxSeqByPrefix(prefix string) (int64, error) {
	var orderNos []string
	err := r.db.Unscoped().Model(&models.Order{}).
		Where("order_no LIKE ?", prefix+"%").
		Order("order_no desc").
		Limit(1).
		Pluck("order_no", &orderNos).Error
	if err != nil {
		return 0, err
	}
	if len(orderNos) == 0 {
		return 0, nil
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(orderNos[0], prefix), 10, 64)
	if err != nil {
		// 非标准编号不参与序号推进
		return 0, nil
	}
	return seq, nil
}

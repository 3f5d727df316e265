package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fastkart-next/internal/cache"
	"github.com/fastkart-next/internal/constants"
	"github.com/fastkart-next/internal/logger"
	"github.com/fastkart-next/internal/repository"
)

const orderSeqTTL = 48 * time.Hour

// OrderNumberAllocator 订单编号分配器
// 编号格式 FK<yy><mm><dd><seq>，seq 为当日原子递增序号
// Redis 可用时走 INCR，否则回退到数据库日计数器；
// 回退前用当日已占用的最大编号抬升计数器，避免与 Redis 已发出的序号冲突
type OrderNumberAllocator struct {
	counterRepo repository.OrderCounterRepository
	orderRepo   repository.OrderRepository
	maxRetries  int
}

// NewOrderNumberAllocator 创建编号分配器
func NewOrderNumberAllocator(counterRepo repository.OrderCounterRepository, orderRepo repository.OrderRepository, maxRetries int) *OrderNumberAllocator {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &OrderNumberAllocator{
		counterRepo: counterRepo,
		orderRepo:   orderRepo,
		maxRetries:  maxRetries,
	}
}

// Next 分配一个订单编号
func (a *OrderNumberAllocator) Next(ctx context.Context, now time.Time) (string, error) {
	seq, err := a.nextSeq(ctx, now)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%04d", constants.OrderNoPrefix, now.Format(constants.OrderNoDayLayout), seq), nil
}

func (a *OrderNumberAllocator) nextSeq(ctx context.Context, now time.Time) (int64, error) {
	if cache.Enabled() {
		seq, err := a.nextSeqRedis(ctx, now)
		if err == nil {
			return seq, nil
		}
		logger.Warnw("order_seq_redis_failed_fallback_db", "error", err)
	}
	return a.nextSeqDB(now)
}

func (a *OrderNumberAllocator) nextSeqRedis(ctx context.Context, now time.Time) (int64, error) {
	key := fmt.Sprintf("fk:order:seq:%s", now.Format(constants.OrderCounterLayout))
	client := cache.Client()
	seq, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if seq == 1 {
		// 日键只在首次分配时设置过期
		if err := client.Expire(ctx, key, orderSeqTTL).Err(); err != nil {
			logger.Warnw("order_seq_expire_failed", "key", key, "error", err)
		}
	}
	return seq, nil
}

func (a *OrderNumberAllocator) nextSeqDB(now time.Time) (int64, error) {
	day := now.Format(constants.OrderCounterLayout)
	if err := a.seedCounter(day, now); err != nil {
		logger.Warnw("order_seq_seed_failed", "day", day, "error", err)
	}
	var lastErr error
	for i := 0; i < a.maxRetries; i++ {
		seq, err := a.counterRepo.Next(day)
		if err == nil {
			return seq, nil
		}
		lastErr = err
	}
	logger.Errorw("order_seq_db_exhausted", "day", day, "retries", a.maxRetries, "error", lastErr)
	return 0, ErrConcurrencyConflict
}

// seedCounter 用当日订单的最大序号抬升计数器
// Redis 分配过的编号只存在于订单表里，回退前先对齐
func (a *OrderNumberAllocator) seedCounter(day string, now time.Time) error {
	if a.orderRepo == nil {
		return nil
	}
	prefix := fmt.Sprintf("%s%s", constants.OrderNoPrefix, now.Format(constants.OrderNoDayLayout))
	seq, err := a.orderRepo.MaxSeqByPrefix(prefix)
	if err != nil {
		return err
	}
	if seq == 0 {
		return nil
	}
	return a.counterRepo.EnsureAtLeast(day, seq)
}

package service

import (
	"strings"

	"github.com/fastkart-next/internal/constants"
)

// allowedTransitions 订单状态机：当前状态 -> 可达状态集合
// cancelled 只能从 pending / confirmed 进入；delivered 与 cancelled 为终态
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
	},
	constants.OrderStatusDelivered: {},
	constants.OrderStatusCancelled: {},
}

// estimatedDeliveryDays 各状态下的预计送达天数（自当前时刻起）
var estimatedDeliveryDays = map[string]int{
	constants.OrderStatusPending:    7,
	constants.OrderStatusConfirmed:  6,
	constants.OrderStatusProcessing: 5,
	constants.OrderStatusShipped:    3,
	constants.OrderStatusDelivered:  0,
	constants.OrderStatusCancelled:  0,
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// isValidStatus 是否为已知状态
func isValidStatus(status string) bool {
	_, ok := allowedTransitions[normalizeStatus(status)]
	return ok
}

// isTransitionAllowed 校验状态迁移是否合法
func isTransitionAllowed(current, target string) bool {
	next, ok := allowedTransitions[normalizeStatus(current)]
	if !ok {
		return false
	}
	return next[normalizeStatus(target)]
}

package service

import (
	"strings"

	"github.com/checkout-next/internal/constants"
)

// 订单状态流转表，未列出的组合一律拒绝；已取消与已退货为终态
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusDelivering: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusDelivering: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusReturned: true,
	},
	constants.OrderStatusCancelled: {},
	constants.OrderStatusReturned:  {},
}

// OrderStatuses 全部订单状态
func OrderStatuses() []string {
	return []string{
		constants.OrderStatusPending,
		constants.OrderStatusProcessing,
		constants.OrderStatusDelivering,
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled,
		constants.OrderStatusReturned,
	}
}

func normalizeOrderStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func isKnownOrderStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func isTransitionAllowed(current, next string) bool {
	return allowedTransitions[current][next]
}

// releasesInventory 进入该状态时需要回补库存
func releasesInventory(status string) bool {
	return status == constants.OrderStatusCancelled || status == constants.OrderStatusReturned
}

// isDeletableStatus 终态订单才允许删除
func isDeletableStatus(status string) bool {
	return status == constants.OrderStatusDelivered || releasesInventory(status)
}

// initialOrderStatus 货到付款直接进入处理中，其余支付方式等待支付确认
func initialOrderStatus(paymentMethod string) (string, bool) {
	switch paymentMethod {
	case constants.PaymentMethodCOD:
		return constants.OrderStatusProcessing, true
	case constants.PaymentMethodOnline:
		return constants.OrderStatusPending, true
	default:
		return "", false
	}
}

package service

import (
	"strings"

	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/repository"
)

// OrderListInput 订单列表查询条件
type OrderListInput struct {
	UserID   uint
	Status   string
	Search   string
	Page     int
	PageSize int
}

// GetOrder 按订单编号获取订单详情（管理端）
func (s *OrderService) GetOrder(code string) (*models.Order, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByCode(code)
	if err != nil {
		return nil, ErrOrderFetchFailed.Wrap(err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetUserOrder 获取用户自己的订单，他人订单按不存在处理
func (s *OrderService) GetUserOrder(userID uint, code string) (*models.Order, error) {
	if userID == 0 || strings.TrimSpace(code) == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByCodeAndUser(code, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed.Wrap(err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 用户订单列表，新订单在前
func (s *OrderService) ListOrders(input OrderListInput) ([]models.Order, int64, error) {
	if input.UserID == 0 {
		return nil, 0, ErrUserNotFound
	}
	status, err := normalizeStatusFilter(input.Status)
	if err != nil {
		return nil, 0, err
	}
	return s.orderRepo.ListByUser(repository.OrderListFilter{
		UserID:   input.UserID,
		Status:   status,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
}

// ListAdminOrders 管理端订单列表，UserID 为 0 时不按用户过滤
func (s *OrderService) ListAdminOrders(input OrderListInput) ([]models.Order, int64, error) {
	status, err := normalizeStatusFilter(input.Status)
	if err != nil {
		return nil, 0, err
	}
	return s.orderRepo.ListAdmin(repository.OrderListFilter{
		UserID:   input.UserID,
		Status:   status,
		Search:   input.Search,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
}

func normalizeStatusFilter(raw string) (string, error) {
	status := normalizeOrderStatus(raw)
	if status == "" {
		return "", nil
	}
	if !isKnownOrderStatus(status) {
		return "", ErrInvalidStatusFilter.WithDetail("%q", raw)
	}
	return status, nil
}

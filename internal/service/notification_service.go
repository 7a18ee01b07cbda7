package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/checkout-next/internal/cache"
	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/logger"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/repository"

	"golang.org/x/sync/errgroup"
)

const defaultNotifyConcurrency = 4

// NotifyInput 站内通知内容
type NotifyInput struct {
	Title   string
	Message string
	Type    string
	Data    models.JSON
}

// publishFunc 推送实时消息，返回订阅者数量
type publishFunc func(ctx context.Context, channel string, value interface{}) (int64, error)

// NotificationService 站内通知服务
// 通知先落库，再通过 Redis 频道推送给在线连接
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	publish          publishFunc
	channelPrefix    string
	concurrency      int
}

// NewNotificationService 创建通知服务
func NewNotificationService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository, channelPrefix string, concurrency int) *NotificationService {
	channelPrefix = strings.Trim(strings.TrimSpace(channelPrefix), ":")
	if channelPrefix == "" {
		channelPrefix = "notifications:user"
	}
	if concurrency <= 0 {
		concurrency = defaultNotifyConcurrency
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		publish:          cache.PublishJSON,
		channelPrefix:    channelPrefix,
		concurrency:      concurrency,
	}
}

// Notify 给单个用户发送通知，推送失败只记日志
func (s *NotificationService) Notify(ctx context.Context, userID uint, input NotifyInput) (*models.Notification, error) {
	notifyType := strings.TrimSpace(input.Type)
	if notifyType == "" {
		notifyType = constants.NotificationTypeInfo
	}
	row := &models.Notification{
		UserID:  userID,
		Title:   strings.TrimSpace(input.Title),
		Message: strings.TrimSpace(input.Message),
		Type:    notifyType,
		Data:    input.Data,
	}
	if err := s.notificationRepo.Create(row); err != nil {
		return nil, err
	}
	if s.publish != nil {
		if _, err := s.publish(ctx, s.channel(userID), row); err != nil {
			logger.Warnw("notification_publish_failed", "user_id", userID, "notification_id", row.ID, "error", err)
		}
	}
	return row, nil
}

// NotifyAdminsNewOrder 新订单通知全部管理员
func (s *NotificationService) NotifyAdminsNewOrder(ctx context.Context, order *models.Order, customer *models.User) error {
	if order == nil {
		return nil
	}
	admins, err := s.userRepo.ListAdmins()
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		return nil
	}

	customerName := ""
	if customer != nil {
		customerName = customer.FullName()
	}
	input := NotifyInput{
		Title:   "New order",
		Message: fmt.Sprintf("New order #%s from %s, total %s", order.Code, customerName, order.FinalAmount.String()),
		Type:    constants.NotificationTypeInfo,
		Data: models.JSON{
			"order_id":      order.ID,
			"order_code":    order.Code,
			"customer_name": customerName,
			"amount":        order.FinalAmount.String(),
			"status":        order.Status,
			"created_at":    order.CreatedAt,
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, admin := range admins {
		adminID := admin.ID
		g.Go(func() error {
			if _, err := s.Notify(gctx, adminID, input); err != nil {
				return fmt.Errorf("notify admin %d: %w", adminID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ListForUser 获取用户最近的通知
func (s *NotificationService) ListForUser(userID uint, limit int) ([]models.Notification, error) {
	return s.notificationRepo.ListByUser(userID, limit)
}

// MarkAllRead 全部标记为已读
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.notificationRepo.MarkAllRead(userID)
}

// MarkRead 标记单条通知为已读，他人的通知按不存在处理
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	if userID == 0 || notificationID == 0 {
		return ErrNotificationNotFound
	}
	found, err := s.notificationRepo.MarkRead(userID, notificationID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) channel(userID uint) string {
	return fmt.Sprintf("%s:%d", s.channelPrefix, userID)
}

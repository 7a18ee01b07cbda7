package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recordedPublish struct {
	mu       sync.Mutex
	channels []string
	err      error
}

func (p *recordedPublish) publish(_ context.Context, channel string, _ interface{}) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	return 1, p.err
}

func setupNotificationTest(t *testing.T) (*NotificationService, *recordedPublish, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:notification_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := models.Open("sqlite", dsn, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Notification{}))

	// SQLite 共享缓存下并发写会互相锁表，测试中串行扇出
	svc := NewNotificationService(repository.NewNotificationRepository(db), repository.NewUserRepository(db), "", 1)
	recorder := &recordedPublish{}
	svc.publish = recorder.publish
	return svc, recorder, db
}

func createNotificationUser(t *testing.T, db *gorm.DB, email, role, status string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Role: role, Status: status, FirstName: "Ada", LastName: "Admin"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestNotifyAdminsNewOrder(t *testing.T) {
	svc, recorder, db := setupNotificationTest(t)
	first := createNotificationUser(t, db, "admin1@example.com", constants.UserRoleAdmin, constants.UserStatusActive)
	second := createNotificationUser(t, db, "admin2@example.com", constants.UserRoleAdmin, constants.UserStatusActive)
	createNotificationUser(t, db, "admin3@example.com", constants.UserRoleAdmin, constants.UserStatusDisabled)
	customer := createNotificationUser(t, db, "buyer@example.com", constants.UserRoleUser, constants.UserStatusActive)

	order := &models.Order{
		ID:          11,
		Code:        "ORD-1700000000000-011",
		Status:      constants.OrderStatusPending,
		FinalAmount: models.NewMoneyFromInt(275),
	}
	require.NoError(t, svc.NotifyAdminsNewOrder(context.Background(), order, &models.User{FirstName: "Jane", LastName: "Doe"}))

	for _, admin := range []*models.User{first, second} {
		rows, err := svc.ListForUser(admin.ID, 10)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, "New order", rows[0].Title)
		require.Contains(t, rows[0].Message, "#ORD-1700000000000-011 from Jane Doe")
		require.Contains(t, rows[0].Message, "275.00")
		require.Equal(t, "ORD-1700000000000-011", rows[0].Data["order_code"])
		require.False(t, rows[0].IsRead)
	}
	rows, err := svc.ListForUser(customer.ID, 10)
	require.NoError(t, err)
	require.Empty(t, rows)

	require.ElementsMatch(t, []string{
		fmt.Sprintf("notifications:user:%d", first.ID),
		fmt.Sprintf("notifications:user:%d", second.ID),
	}, recorder.channels)
}

func TestNotifyKeepsRowWhenPublishFails(t *testing.T) {
	svc, recorder, db := setupNotificationTest(t)
	recorder.err = errors.New("redis unavailable")
	user := createNotificationUser(t, db, "reader@example.com", constants.UserRoleUser, constants.UserStatusActive)

	row, err := svc.Notify(context.Background(), user.ID, NotifyInput{Title: " Hello ", Message: "world"})
	require.NoError(t, err)
	require.NotZero(t, row.ID)
	require.Equal(t, "Hello", row.Title)
	require.Equal(t, constants.NotificationTypeInfo, row.Type)

	require.NoError(t, svc.MarkAllRead(user.ID))
	rows, err := svc.ListForUser(user.ID, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].IsRead)
}

func TestNotifyAdminsNewOrderWithoutAdmins(t *testing.T) {
	svc, recorder, _ := setupNotificationTest(t)
	require.NoError(t, svc.NotifyAdminsNewOrder(context.Background(), &models.Order{Code: "ORD-1-001"}, nil))
	require.NoError(t, svc.NotifyAdminsNewOrder(context.Background(), nil, nil))
	require.Empty(t, recorder.channels)
}

func TestMarkReadOnlyTouchesOwnNotification(t *testing.T) {
	svc, _, db := setupNotificationTest(t)
	owner := createNotificationUser(t, db, "owner@example.com", constants.UserRoleUser, constants.UserStatusActive)
	other := createNotificationUser(t, db, "other@example.com", constants.UserRoleUser, constants.UserStatusActive)

	first, err := svc.Notify(context.Background(), owner.ID, NotifyInput{Title: "Shipped", Message: "on its way"})
	require.NoError(t, err)
	second, err := svc.Notify(context.Background(), owner.ID, NotifyInput{Title: "Delivered", Message: "enjoy"})
	require.NoError(t, err)

	err = svc.MarkRead(other.ID, first.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)
	require.ErrorIs(t, svc.MarkRead(owner.ID, 9999), ErrNotificationNotFound)

	require.NoError(t, svc.MarkRead(owner.ID, first.ID))
	require.NoError(t, svc.MarkRead(owner.ID, first.ID), "marking twice stays successful")

	rows, err := svc.ListForUser(owner.ID, 10)
	require.NoError(t, err)
	read := map[uint]bool{}
	for _, row := range rows {
		read[row.ID] = row.IsRead
	}
	require.True(t, read[first.ID])
	require.False(t, read[second.ID])
}

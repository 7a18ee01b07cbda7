package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/queue"
	"github.com/checkout-next/internal/repository"
	"github.com/checkout-next/internal/shipping"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubQuoter struct {
	mu       sync.Mutex
	fee      decimal.Decimal
	err      error
	requests []shipping.QuoteRequest
}

func (q *stubQuoter) Quote(_ context.Context, req shipping.QuoteRequest) (decimal.Decimal, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.requests = append(q.requests, req)
	if q.err != nil {
		return decimal.Zero, q.err
	}
	return q.fee, nil
}

type stubJobs struct {
	mu            sync.Mutex
	confirmations []queue.OrderConfirmationEmailPayload
	statuses      []queue.OrderStatusEmailPayload
	err           error
}

func (j *stubJobs) EnqueueOrderConfirmationEmail(payload queue.OrderConfirmationEmailPayload, _ ...asynq.Option) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.confirmations = append(j.confirmations, payload)
	return j.err
}

func (j *stubJobs) EnqueueOrderStatusEmail(payload queue.OrderStatusEmailPayload, _ ...asynq.Option) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.statuses = append(j.statuses, payload)
	return j.err
}

// stubNotifier 管理员通知在后台协程中调用，断言前用 waitNotified 等待
type stubNotifier struct {
	mu          sync.Mutex
	orders      []string
	cancellable []bool
	err         error
}

func (n *stubNotifier) NotifyAdminsNewOrder(ctx context.Context, order *models.Order, _ *models.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order.Code)
	n.cancellable = append(n.cancellable, ctx.Done() != nil)
	return n.err
}

func (n *stubNotifier) notified() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.orders...)
}

func (n *stubNotifier) waitNotified(t *testing.T, count int) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(n.notified()) >= count
	}, 2*time.Second, 10*time.Millisecond)
	return n.notified()
}

// checkoutFixture 购物车与下单的集成测试环境（内存 SQLite）
type checkoutFixture struct {
	db       *gorm.DB
	cart     *CartService
	orders   *OrderService
	quoter   *stubQuoter
	jobs     *stubJobs
	notifier *stubNotifier
	now      time.Time
}

func setupCheckoutFixture(t *testing.T, opts OrderOptions) *checkoutFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := models.Open("sqlite", dsn, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	txm := repository.NewTransactor(db)
	cartRepo := repository.NewCartRepository(db)
	skuRepo := repository.NewProductSKURepository(db)
	couponRepo := repository.NewCouponRepository(db)
	userRepo := repository.NewUserRepository(db)
	locker := NewLocalCartLocker()

	f := &checkoutFixture{
		db:       db,
		quoter:   &stubQuoter{fee: decimal.NewFromInt(30)},
		jobs:     &stubJobs{},
		notifier: &stubNotifier{},
		now:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.cart = NewCartService(txm, cartRepo, skuRepo, couponRepo, userRepo, locker)
	f.cart.now = func() time.Time { return f.now }
	f.orders = NewOrderService(OrderServiceDeps{
		Transactor:  txm,
		OrderRepo:   repository.NewOrderRepository(db),
		CartRepo:    cartRepo,
		SKURepo:     skuRepo,
		ProductRepo: repository.NewProductRepository(db),
		CouponRepo:  couponRepo,
		UserRepo:    userRepo,
		AddressRepo: repository.NewAddressRepository(db),
		Shipping:    f.quoter,
		Jobs:        f.jobs,
		Notifier:    f.notifier,
		Locker:      locker,
	}, opts)
	f.orders.now = func() time.Time { return f.now }
	return f
}

func (f *checkoutFixture) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Jane",
		LastName:     "Doe",
		Role:         constants.UserRoleUser,
		Status:       constants.UserStatusActive,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *checkoutFixture) createAddress(t *testing.T, userID uint) *models.Address {
	t.Helper()
	address := &models.Address{
		UserID:       userID,
		ReceiverName: "Jane Doe",
		Phone:        "0901234567",
		Province:     "Ho Chi Minh",
		District:     "District 1",
		Ward:         "Ben Nghe",
		Detail:       "12 Le Loi",
	}
	require.NoError(t, f.db.Create(address).Error)
	return address
}

// createSKU 创建商品及其单个 SKU
func (f *checkoutFixture) createSKU(t *testing.T, name string, price int64, discountType string, discountValue int64, quantity int) *models.ProductSKU {
	t.Helper()
	if discountType == "" {
		discountType = constants.DiscountTypeNone
	}
	product := &models.Product{
		Name:          name,
		Price:         models.NewMoneyFromInt(price),
		DiscountType:  discountType,
		DiscountValue: models.NewMoneyFromInt(discountValue),
		Stock:         quantity,
		IsActive:      true,
	}
	require.NoError(t, f.db.Create(product).Error)
	return f.addSKU(t, product, name+"-default", quantity)
}

func (f *checkoutFixture) addSKU(t *testing.T, product *models.Product, code string, quantity int) *models.ProductSKU {
	t.Helper()
	sku := &models.ProductSKU{
		ProductID: product.ID,
		SKUCode:   code,
		Size:      "M",
		Color:     "black",
		Quantity:  quantity,
	}
	require.NoError(t, f.db.Create(sku).Error)
	sku.Product = product
	return sku
}

func (f *checkoutFixture) createCoupon(t *testing.T, coupon models.Coupon) *models.Coupon {
	t.Helper()
	if coupon.Status == "" {
		coupon.Status = constants.CouponStatusActive
	}
	if coupon.StartDate.IsZero() {
		coupon.StartDate = f.now.Add(-24 * time.Hour)
	}
	if coupon.EndDate.IsZero() {
		coupon.EndDate = f.now.Add(30 * 24 * time.Hour)
	}
	require.NoError(t, f.db.Create(&coupon).Error)
	return &coupon
}

func (f *checkoutFixture) skuQuantity(t *testing.T, skuID uint) int {
	t.Helper()
	var sku models.ProductSKU
	require.NoError(t, f.db.First(&sku, skuID).Error)
	return sku.Quantity
}

func (f *checkoutFixture) couponUsedCount(t *testing.T, couponID uint) int {
	t.Helper()
	var coupon models.Coupon
	require.NoError(t, f.db.First(&coupon, couponID).Error)
	return coupon.UsedCount
}

func (f *checkoutFixture) productSoldCount(t *testing.T, productID uint) int {
	t.Helper()
	var product models.Product
	require.NoError(t, f.db.First(&product, productID).Error)
	return product.SoldCount
}

func (f *checkoutFixture) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(model).Count(&count).Error)
	return count
}

func intPtr(v int) *int {
	return &v
}

func uintPtr(v uint) *uint {
	return &v
}

func moneyPtr(v int64) *models.Money {
	m := models.NewMoneyFromInt(v)
	return &m
}

func requireReason(t *testing.T, err error, kind ErrorKind, reason Reason) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected kind for %v", err)
	require.Equal(t, reason, ReasonOf(err), "unexpected reason for %v", err)
}

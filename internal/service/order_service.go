package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/logger"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/queue"
	"github.com/checkout-next/internal/repository"
	"github.com/checkout-next/internal/shipping"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShippingQuoter 运费询价
type ShippingQuoter interface {
	Quote(ctx context.Context, req shipping.QuoteRequest) (decimal.Decimal, error)
}

// OrderNotifier 新订单站内通知
type OrderNotifier interface {
	NotifyAdminsNewOrder(ctx context.Context, order *models.Order, customer *models.User) error
}

// OrderJobQueue 订单相关异步任务
type OrderJobQueue interface {
	EnqueueOrderConfirmationEmail(payload queue.OrderConfirmationEmailPayload, opts ...asynq.Option) error
	EnqueueOrderStatusEmail(payload queue.OrderStatusEmailPayload, opts ...asynq.Option) error
}

// OrderOptions 下单参数
type OrderOptions struct {
	FreeShippingThreshold decimal.Decimal // 小于等于 0 表示不免运费
	UnitWeightGrams       int
	PickProvince          string
	PickDistrict          string
}

// OrderService 订单服务
type OrderService struct {
	txm         repository.Transactor
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	skuRepo     repository.ProductSKURepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
	shipping    ShippingQuoter
	jobs        OrderJobQueue
	notifier    OrderNotifier
	locker      CartLocker
	opts        OrderOptions
	now         func() time.Time
}

// OrderServiceDeps 订单服务依赖
type OrderServiceDeps struct {
	Transactor  repository.Transactor
	OrderRepo   repository.OrderRepository
	CartRepo    repository.CartRepository
	SKURepo     repository.ProductSKURepository
	ProductRepo repository.ProductRepository
	CouponRepo  repository.CouponRepository
	UserRepo    repository.UserRepository
	AddressRepo repository.AddressRepository
	Shipping    ShippingQuoter
	Jobs        OrderJobQueue
	Notifier    OrderNotifier
	Locker      CartLocker
}

// NewOrderService 创建订单服务
func NewOrderService(deps OrderServiceDeps, opts OrderOptions) *OrderService {
	if opts.UnitWeightGrams <= 0 {
		opts.UnitWeightGrams = 300
	}
	return &OrderService{
		txm:         deps.Transactor,
		orderRepo:   deps.OrderRepo,
		cartRepo:    deps.CartRepo,
		skuRepo:     deps.SKURepo,
		productRepo: deps.ProductRepo,
		couponRepo:  deps.CouponRepo,
		userRepo:    deps.UserRepo,
		addressRepo: deps.AddressRepo,
		shipping:    deps.Shipping,
		jobs:        deps.Jobs,
		notifier:    deps.Notifier,
		locker:      deps.Locker,
		opts:        opts,
		now:         time.Now,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID        uint
	AddressID     uint
	PaymentMethod string
	Note          string
}

// CreateOrder 将购物车转为订单
// 扣库存、计价、运费、优惠券、状态流水与清空购物车在同一事务内完成，任一步失败整体回滚
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	paymentMethod := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	initialStatus, ok := initialOrderStatus(paymentMethod)
	if !ok {
		return nil, ErrInvalidPayment.WithDetail("%q", input.PaymentMethod)
	}

	var (
		order *models.Order
		user  *models.User
	)
	err := withCartLock(ctx, s.locker, input.UserID, func() error {
		var err error
		user, err = s.userRepo.GetByID(input.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		cart, err := s.cartRepo.GetByUser(user.ID)
		if err != nil {
			return err
		}
		if cart == nil || len(cart.Items) == 0 {
			return ErrCartEmpty
		}
		address, err := s.addressRepo.GetByIDAndUser(input.AddressID, user.ID)
		if err != nil {
			return err
		}
		if address == nil {
			return ErrAddressNotFound
		}

		return s.txm.Transaction(ctx, func(tx *gorm.DB) error {
			created, err := s.assemble(ctx, tx, assembleInput{
				user:          user,
				cart:          cart,
				address:       address,
				paymentMethod: paymentMethod,
				status:        initialStatus,
				note:          strings.TrimSpace(input.Note),
			})
			if err != nil {
				return err
			}
			order = created
			return nil
		})
	})
	if err != nil {
		if !isServiceError(err) {
			logger.Errorw("order_create_failed", "user_id", input.UserID, "error", err)
			return nil, ErrOrderCreateFailed.Wrap(err)
		}
		return nil, err
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_code", order.Code,
		"user_id", order.UserID,
		"status", order.Status,
		"final_amount", order.FinalAmount.String(),
	)
	s.afterOrderCreated(ctx, order, user)

	detail, err := s.orderRepo.GetByID(order.ID)
	if err != nil || detail == nil {
		logger.Warnw("order_reload_failed", "order_id", order.ID, "error", err)
		return order, nil
	}
	return detail, nil
}

type assembleInput struct {
	user          *models.User
	cart          *models.Cart
	address       *models.Address
	paymentMethod string
	status        string
	note          string
}

func (s *OrderService) assemble(ctx context.Context, tx *gorm.DB, in assembleInput) (*models.Order, error) {
	orderRepo := s.orderRepo.WithTx(tx)
	skuRepo := s.skuRepo.WithTx(tx)
	productRepo := s.productRepo.WithTx(tx)
	couponRepo := s.couponRepo.WithTx(tx)
	cartRepo := s.cartRepo.WithTx(tx)
	now := s.now()

	order := &models.Order{
		Code:          generateOrderCode(now),
		UserID:        in.user.ID,
		Address:       in.address.Snapshot(),
		Status:        in.status,
		PaymentMethod: in.paymentMethod,
		Note:          in.note,
	}
	if err := orderRepo.CreateHeader(order); err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	totalQuantity := 0
	items := make([]models.OrderItem, 0, len(in.cart.Items))
	for _, line := range linesBySKU(in.cart.Items) {
		sku, err := skuRepo.GetForUpdate(line.SKUID)
		if err != nil {
			return nil, err
		}
		if sku == nil || sku.Quantity < line.Quantity {
			return nil, ErrOutOfStock.WithDetail("%s", lineProductName(sku, line))
		}
		affected, err := skuRepo.DecrementQuantity(sku.ID, line.Quantity)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, ErrOutOfStock.WithDetail("%s", lineProductName(sku, line))
		}
		if err := productRepo.RecordSale(sku.ProductID, line.Quantity); err != nil {
			return nil, err
		}

		// 以商品当前价格重新计价，购物车缓存的小计只作展示
		unitPrice := ProductUnitPrice(sku.Product)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, models.OrderItem{
			OrderID:     order.ID,
			SKUID:       sku.ID,
			ProductName: sku.ProductName(),
			Quantity:    line.Quantity,
			Price:       models.NewMoneyFromDecimal(unitPrice),
			Total:       models.NewMoneyFromDecimal(lineTotal),
		})
		subtotal = subtotal.Add(lineTotal)
		totalQuantity += line.Quantity
	}
	if err := orderRepo.CreateItems(items); err != nil {
		return nil, err
	}

	shippingFee, err := s.quoteShipping(ctx, destinationOf(in.address), subtotal, totalQuantity*s.opts.UnitWeightGrams)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	if in.cart.CouponID != nil {
		coupon, err := couponRepo.GetByID(*in.cart.CouponID)
		if err != nil {
			return nil, err
		}
		if verr := ValidateCoupon(coupon, subtotal, now); verr != nil {
			logger.Infow("order_coupon_dropped", "order_code", order.Code, "coupon_id", *in.cart.CouponID, "reason", verr.Error())
		} else {
			affected, err := couponRepo.IncrementUsedCount(coupon.ID)
			if err != nil {
				return nil, err
			}
			if affected == 0 {
				logger.Infow("order_coupon_dropped", "order_code", order.Code, "coupon_id", coupon.ID, "reason", "usage limit reached")
			} else {
				discount = CouponDiscount(coupon, subtotal)
				order.CouponID = &coupon.ID
				order.Coupon = coupon
			}
		}
	}

	order.Total = models.NewMoneyFromDecimal(subtotal)
	order.ShippingFee = models.NewMoneyFromDecimal(shippingFee)
	order.Discount = models.NewMoneyFromDecimal(discount)
	order.FinalAmount = models.NewMoneyFromDecimal(payable(subtotal.Add(shippingFee).Sub(discount)))
	if err := orderRepo.SaveTotals(order); err != nil {
		return nil, err
	}

	// 初始流水总是 pending，货到付款再补一条 processing
	history := []string{constants.OrderStatusPending}
	if order.Status != constants.OrderStatusPending {
		history = append(history, order.Status)
	}
	if err := orderRepo.AppendHistory(order.ID, history...); err != nil {
		return nil, err
	}

	if err := cartRepo.ClearItems(in.cart.ID); err != nil {
		return nil, err
	}
	emptied := &models.Cart{ID: in.cart.ID}
	if err := cartRepo.SaveSummary(emptied); err != nil {
		return nil, err
	}

	order.Items = items
	return order, nil
}

// afterOrderCreated 提交后的副作用，失败只记日志
// 管理员通知在后台协程执行，不阻塞下单响应，也不随请求取消
func (s *OrderService) afterOrderCreated(ctx context.Context, order *models.Order, user *models.User) {
	if s.jobs != nil {
		if err := s.jobs.EnqueueOrderConfirmationEmail(queue.OrderConfirmationEmailPayload{OrderID: order.ID}); err != nil {
			logger.Warnw("order_enqueue_confirmation_email_failed", "order_id", order.ID, "error", err)
		}
	}
	if s.notifier == nil {
		return
	}
	notifyCtx := context.WithoutCancel(ctx)
	snapshot := *order
	go func() {
		if err := s.notifier.NotifyAdminsNewOrder(notifyCtx, &snapshot, user); err != nil {
			logger.Warnw("order_notify_admins_failed", "order_id", snapshot.ID, "error", err)
		}
	}()
}

// UpdateOrderStatus 订单状态流转
// 进入已取消时回退优惠券使用次数，进入已取消或已退货时回补库存
func (s *OrderService) UpdateOrderStatus(ctx context.Context, code, status string) (*models.Order, error) {
	next := normalizeOrderStatus(status)
	if !isKnownOrderStatus(next) {
		return nil, ErrInvalidTransition.WithDetail("unknown status %q", status)
	}
	current, err := s.orderRepo.GetByCode(code)
	if err != nil {
		return nil, ErrOrderUpdateFailed.Wrap(err)
	}
	if current == nil {
		return nil, ErrOrderNotFound
	}
	if !isTransitionAllowed(current.Status, next) {
		return nil, ErrInvalidTransition.WithDetail("%s -> %s", current.Status, next)
	}

	var orderID uint
	err = s.txm.Transaction(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		skuRepo := s.skuRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		locked, err := orderRepo.GetByCodeForUpdate(code)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		// 加锁后再校验一次，防止并发流转
		if !isTransitionAllowed(locked.Status, next) {
			return ErrInvalidTransition.WithDetail("%s -> %s", locked.Status, next)
		}
		orderID = locked.ID

		if next == constants.OrderStatusCancelled && locked.CouponID != nil {
			if err := s.couponRepo.WithTx(tx).DecrementUsedCount(*locked.CouponID); err != nil {
				return err
			}
		}
		if releasesInventory(next) {
			for _, item := range itemsBySKU(locked.Items) {
				sku, err := skuRepo.GetForUpdate(item.SKUID)
				if err != nil {
					return err
				}
				if sku == nil {
					logger.Warnw("order_restock_sku_missing", "order_code", locked.Code, "sku_id", item.SKUID)
					continue
				}
				if err := skuRepo.IncrementQuantity(sku.ID, item.Quantity); err != nil {
					return err
				}
				if err := productRepo.RevertSale(sku.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		if err := orderRepo.UpdateStatus(locked.ID, next); err != nil {
			return err
		}
		return orderRepo.AppendHistory(locked.ID, next)
	})
	if err != nil {
		if !isServiceError(err) {
			logger.Errorw("order_status_update_failed", "order_code", code, "status", next, "error", err)
			return nil, ErrOrderUpdateFailed.Wrap(err)
		}
		return nil, err
	}

	logger.Infow("order_status_updated", "order_code", code, "from", current.Status, "to", next)
	if s.jobs != nil {
		if err := s.jobs.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{OrderID: orderID, Status: next}); err != nil {
			logger.Warnw("order_enqueue_status_email_failed", "order_code", code, "error", err)
		}
	}

	updated, err := s.orderRepo.GetByCode(code)
	if err != nil {
		return nil, ErrOrderUpdateFailed.Wrap(err)
	}
	if updated == nil {
		return nil, ErrOrderNotFound
	}
	return updated, nil
}

// DeleteOrder 软删除已结束的订单（已送达、已取消、已退货）
// 进行中的订单仍占用库存与优惠券，需要先取消
func (s *OrderService) DeleteOrder(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrOrderNotFound
	}
	err := s.txm.Transaction(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		locked, err := orderRepo.GetByCodeForUpdate(code)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		if !isDeletableStatus(locked.Status) {
			return ErrOrderNotDeletable.WithDetail("order is %s", locked.Status)
		}
		return orderRepo.Delete(locked.ID)
	})
	if err != nil {
		if !isServiceError(err) {
			logger.Errorw("order_delete_failed", "order_code", code, "error", err)
			return ErrOrderUpdateFailed.Wrap(err)
		}
		return err
	}
	logger.Infow("order_deleted", "order_code", code)
	return nil
}

// linesBySKU 按 SKU ID 排序的副本，多个请求总以相同顺序对 SKU 加行锁
func linesBySKU(lines []models.CartItem) []models.CartItem {
	sorted := append([]models.CartItem(nil), lines...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SKUID < sorted[j].SKUID })
	return sorted
}

func itemsBySKU(items []models.OrderItem) []models.OrderItem {
	sorted := append([]models.OrderItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SKUID < sorted[j].SKUID })
	return sorted
}

func lineProductName(sku *models.ProductSKU, line models.CartItem) string {
	if name := sku.ProductName(); name != "" {
		return name
	}
	if name := line.SKU.ProductName(); name != "" {
		return name
	}
	return fmt.Sprintf("sku #%d", line.SKUID)
}

// generateOrderCode 生成订单编号：ORD-<毫秒时间戳>-<3 位随机数>
func generateOrderCode(now time.Time) string {
	suffix := int64(0)
	if n, err := rand.Int(rand.Reader, big.NewInt(1000)); err == nil {
		suffix = n.Int64()
	} else {
		suffix = now.UnixNano() % 1000
	}
	return fmt.Sprintf("ORD-%d-%03d", now.UnixMilli(), suffix)
}

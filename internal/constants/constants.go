package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusDelivering = "delivering"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusReturned   = "returned"
)

// 支付方式常量
const (
	PaymentMethodCOD    = "cod"    // 货到付款
	PaymentMethodOnline = "online" // 在线支付（回调确认后流转）
)

// 商品折扣类型常量
const (
	DiscountTypeNone       = "none"
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// 优惠券类型常量
const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

// 优惠券状态常量
const (
	CouponStatusActive   = "active"
	CouponStatusInactive = "inactive"
)

// 用户角色与状态常量
const (
	UserRoleUser  = "user"
	UserRoleAdmin = "admin"

	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 通知类型常量
const (
	NotificationTypeInfo    = "info"
	NotificationTypeWarning = "warning"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskOrderConfirmationEmail = "order:confirmation_email"
	TaskOrderStatusEmail       = "order:status_email"
)

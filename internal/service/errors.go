package service

import (
	"errors"
	"fmt"
)

// ErrorKind 错误大类，供传输层映射状态码
type ErrorKind string

const (
	KindNotFound   ErrorKind = "not_found"
	KindBadRequest ErrorKind = "bad_request"
	KindConflict   ErrorKind = "conflict"
	KindInternal   ErrorKind = "internal"
)

// Reason 错误子类，调用方据此做分支判断而不是匹配文案
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonOutOfStock        Reason = "out_of_stock"
	ReasonInsufficientStock Reason = "insufficient_stock"
	ReasonInvalidTransition Reason = "invalid_transition"
	ReasonEmptyCart         Reason = "empty_cart"
	ReasonInvalidCoupon     Reason = "invalid_coupon"
	ReasonInvalidInput      Reason = "invalid_input"
	ReasonCartBusy          Reason = "cart_busy"
	ReasonDuplicate         Reason = "duplicate"
	ReasonShippingQuote     Reason = "shipping_quote"
	ReasonOrderActive       Reason = "order_active"
)

// Error 业务错误
// Message 为对外文案，Detail 为补充说明，Err 为内部原因（只进日志）
type Error struct {
	Kind    ErrorKind
	Reason  Reason
	Message string
	Detail  string
	Err     error

	base *Error
}

func newError(kind ErrorKind, reason Reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap 返回内部原因
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is 派生错误与其哨兵视为同一错误
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if e == t {
		return true
	}
	return e.base != nil && e.base == t.root()
}

// PublicMessage 对外展示的文案，不含内部原因
func (e *Error) PublicMessage() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// WithDetail 基于哨兵派生一个带补充说明的错误
func (e *Error) WithDetail(format string, args ...interface{}) *Error {
	derived := e.derive()
	derived.Detail = fmt.Sprintf(format, args...)
	return derived
}

// Wrap 基于哨兵派生一个携带内部原因的错误
func (e *Error) Wrap(err error) *Error {
	derived := e.derive()
	derived.Err = err
	return derived
}

func (e *Error) derive() *Error {
	cp := *e
	cp.base = e.root()
	return &cp
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}
	return e
}

// KindOf 返回错误大类，非业务错误视为内部错误
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// ReasonOf 返回错误子类
func ReasonOf(err error) Reason {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Reason
	}
	return ReasonNone
}

// AsError 取出业务错误
func AsError(err error) (*Error, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

func isServiceError(err error) bool {
	_, ok := AsError(err)
	return ok
}

var (
	ErrUserNotFound         = newError(KindNotFound, ReasonNone, "user not found")
	ErrAddressNotFound      = newError(KindNotFound, ReasonNone, "address not found")
	ErrSKUNotFound          = newError(KindNotFound, ReasonNone, "product sku not found")
	ErrCartItemNotFound     = newError(KindNotFound, ReasonNone, "cart item not found")
	ErrOrderNotFound        = newError(KindNotFound, ReasonNone, "order not found")
	ErrCouponNotFound       = newError(KindNotFound, ReasonNone, "coupon not found")
	ErrNotificationNotFound = newError(KindNotFound, ReasonNone, "notification not found")

	ErrCartEmpty           = newError(KindBadRequest, ReasonEmptyCart, "cart is empty")
	ErrOutOfStock          = newError(KindBadRequest, ReasonOutOfStock, "product is out of stock")
	ErrInsufficientStock   = newError(KindBadRequest, ReasonInsufficientStock, "not enough stock for requested quantity")
	ErrInvalidTransition   = newError(KindBadRequest, ReasonInvalidTransition, "order status transition not allowed")
	ErrInvalidCoupon       = newError(KindBadRequest, ReasonInvalidCoupon, "coupon is not valid")
	ErrInvalidQuantity     = newError(KindBadRequest, ReasonInvalidInput, "quantity must be at least 1")
	ErrInvalidPayment      = newError(KindBadRequest, ReasonInvalidInput, "unsupported payment method")
	ErrInvalidCouponRule   = newError(KindBadRequest, ReasonInvalidInput, "coupon rule is invalid")
	ErrInvalidCredentials  = newError(KindBadRequest, ReasonInvalidInput, "invalid email or password")
	ErrInvalidStatusFilter = newError(KindBadRequest, ReasonInvalidInput, "unknown order status")
	ErrInvalidDestination  = newError(KindBadRequest, ReasonInvalidInput, "province and district are required")

	ErrCartBusy          = newError(KindConflict, ReasonCartBusy, "cart is being modified by another request")
	ErrCouponCodeExists  = newError(KindConflict, ReasonDuplicate, "coupon code already exists")
	ErrOrderNotDeletable = newError(KindConflict, ReasonOrderActive, "only delivered, cancelled or returned orders can be deleted")

	ErrShippingQuoteFailed = newError(KindInternal, ReasonShippingQuote, "shipping fee quote failed")
	ErrOrderCreateFailed   = newError(KindInternal, ReasonNone, "order create failed")
	ErrOrderUpdateFailed   = newError(KindInternal, ReasonNone, "order update failed")
	ErrOrderFetchFailed    = newError(KindInternal, ReasonNone, "order fetch failed")
	ErrCartUpdateFailed    = newError(KindInternal, ReasonNone, "cart update failed")
)

// 邮件发送错误，只在异步任务中出现
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)

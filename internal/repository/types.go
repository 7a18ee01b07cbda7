package repository

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
	Search   string // 订单编号或收货地址关键字，仅管理端使用
}

// CouponListFilter 优惠券列表筛选
type CouponListFilter struct {
	Code     string
	Search   string
	Status   string
	Page     int
	PageSize int
}

package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupProductRepositoryTest(t *testing.T) (*GormProductRepository, *GormProductSKURepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:product_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.ProductSKU{}); err != nil {
		t.Fatalf("migrate product/sku failed: %v", err)
	}
	return NewProductRepository(db), NewProductSKURepository(db), db
}

func createStockedSKU(t *testing.T, productRepo *GormProductRepository, skuRepo *GormProductSKURepository, code string, quantity int) (*models.Product, *models.ProductSKU) {
	t.Helper()
	product := &models.Product{
		Name:         "Tee " + code,
		Price:        models.NewMoneyFromInt(100),
		DiscountType: constants.DiscountTypeNone,
		Stock:        quantity,
		IsActive:     true,
	}
	if err := productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	sku := &models.ProductSKU{ProductID: product.ID, SKUCode: code, Size: "M", Color: "white", Quantity: quantity}
	if err := skuRepo.Create(sku); err != nil {
		t.Fatalf("create sku failed: %v", err)
	}
	return product, sku
}

func TestSKUQuantityDecrementIsConditional(t *testing.T) {
	productRepo, skuRepo, _ := setupProductRepositoryTest(t)
	_, sku := createStockedSKU(t, productRepo, skuRepo, "TEE-M", 5)

	affected, err := skuRepo.DecrementQuantity(sku.ID, 3)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("decrement affected want 1 got %d", affected)
	}

	affected, err = skuRepo.DecrementQuantity(sku.ID, 3)
	if err != nil {
		t.Fatalf("second decrement failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("decrement beyond stock should affect 0 rows, got %d", affected)
	}

	if err := skuRepo.IncrementQuantity(sku.ID, 4); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	loaded, err := skuRepo.GetForUpdate(sku.ID)
	if err != nil {
		t.Fatalf("load sku failed: %v", err)
	}
	if loaded.Quantity != 6 {
		t.Fatalf("quantity want 6 got %d", loaded.Quantity)
	}
	if loaded.Product == nil || loaded.Product.ID != sku.ProductID {
		t.Fatalf("sku should preload its product")
	}
}

func TestSKUGetByIDMissingReturnsNil(t *testing.T) {
	_, skuRepo, _ := setupProductRepositoryTest(t)
	sku, err := skuRepo.GetByID(404)
	if err != nil {
		t.Fatalf("get missing sku failed: %v", err)
	}
	if sku != nil {
		t.Fatalf("missing sku should be nil")
	}
}

func TestProductSaleCounters(t *testing.T) {
	productRepo, skuRepo, db := setupProductRepositoryTest(t)
	product, _ := createStockedSKU(t, productRepo, skuRepo, "TEE-L", 10)

	if err := productRepo.RecordSale(product.ID, 4); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if err := productRepo.RevertSale(product.ID, 6); err != nil {
		t.Fatalf("revert sale failed: %v", err)
	}

	var loaded models.Product
	if err := db.First(&loaded, product.ID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if loaded.SoldCount != 0 {
		t.Fatalf("sold count should floor at 0, got %d", loaded.SoldCount)
	}
	if loaded.Stock != 12 {
		t.Fatalf("stock want 12 got %d", loaded.Stock)
	}

	if err := productRepo.RecordSale(product.ID, 0); err != nil {
		t.Fatalf("zero quantity should be a no-op: %v", err)
	}
}

func TestCouponUsageCounters(t *testing.T) {
	_, _, db := setupProductRepositoryTest(t)
	if err := db.AutoMigrate(&models.Coupon{}); err != nil {
		t.Fatalf("migrate coupon failed: %v", err)
	}
	repo := NewCouponRepository(db)
	now := time.Now()
	coupon := &models.Coupon{
		Code:        "ONCE",
		Description: "single use welcome gift",
		Type:        constants.CouponTypeFixed,
		Value:       models.NewMoneyFromInt(10),
		StartDate:   now.Add(-time.Hour),
		EndDate:     now.Add(time.Hour),
		UsageLimit:  1,
		Status:      constants.CouponStatusActive,
	}
	if err := repo.Create(coupon); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	if affected, err := repo.IncrementUsedCount(coupon.ID); err != nil || affected != 1 {
		t.Fatalf("first increment want 1 row got %d err=%v", affected, err)
	}
	if affected, err := repo.IncrementUsedCount(coupon.ID); err != nil || affected != 0 {
		t.Fatalf("increment past limit want 0 rows got %d err=%v", affected, err)
	}
	for i := 0; i < 3; i++ {
		if err := repo.DecrementUsedCount(coupon.ID); err != nil {
			t.Fatalf("decrement failed: %v", err)
		}
	}
	loaded, err := repo.GetByCode("ONCE")
	if err != nil {
		t.Fatalf("get coupon failed: %v", err)
	}
	if loaded.UsedCount != 0 {
		t.Fatalf("used count should floor at 0, got %d", loaded.UsedCount)
	}

	rows, total, err := repo.List(CouponListFilter{Search: "welcome", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("search coupons failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("search coupons want 1 got total=%d len=%d", total, len(rows))
	}
	_, total, err = repo.List(CouponListFilter{Search: "nothing-matches", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("search coupons failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("unmatched search want 0 got %d", total)
	}
}

// 汇总库存与 SKU 库存可能不同步，记销量时库存不能扣成负数
func TestRecordSaleFloorsStockAtZero(t *testing.T) {
	productRepo, skuRepo, db := setupProductRepositoryTest(t)
	product, _ := createStockedSKU(t, productRepo, skuRepo, "TEE-XL", 2)

	if err := productRepo.RecordSale(product.ID, 5); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	var loaded models.Product
	if err := db.First(&loaded, product.ID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if loaded.Stock != 0 {
		t.Fatalf("stock should floor at 0, got %d", loaded.Stock)
	}
	if loaded.SoldCount != 5 {
		t.Fatalf("sold count want 5 got %d", loaded.SoldCount)
	}
}

func TestPageWindow(t *testing.T) {
	cases := []struct {
		page, pageSize        int
		wantLimit, wantOffset int
	}{
		{page: 1, pageSize: 20, wantLimit: 20, wantOffset: 0},
		{page: 3, pageSize: 10, wantLimit: 10, wantOffset: 20},
		{page: 0, pageSize: 10, wantLimit: 10, wantOffset: 0},
		{page: 2, pageSize: 500, wantLimit: maxPageSize, wantOffset: maxPageSize},
		{page: 2, pageSize: 0, wantLimit: -1, wantOffset: 0},
	}
	for _, tc := range cases {
		limit, offset := pageWindow(tc.page, tc.pageSize)
		if limit != tc.wantLimit || offset != tc.wantOffset {
			t.Fatalf("pageWindow(%d, %d) = %d, %d; want %d, %d", tc.page, tc.pageSize, limit, offset, tc.wantLimit, tc.wantOffset)
		}
	}
}

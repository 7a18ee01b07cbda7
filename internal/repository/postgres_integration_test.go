//go:build integration
// +build integration

package repository

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	allModels := models.AllModels()
	cleanupModels := make([]interface{}, 0, len(allModels))
	for i := len(allModels) - 1; i >= 0; i-- {
		cleanupModels = append(cleanupModels, allModels[i])
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresKeywordSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	now := time.Now().UTC()

	couponRepo := NewCouponRepository(db)
	coupon := &models.Coupon{
		Code:        "SPRING",
		Description: "Spring Sale",
		Type:        constants.CouponTypePercentage,
		Value:       models.NewMoneyFromInt(10),
		StartDate:   now.Add(-time.Hour),
		EndDate:     now.Add(time.Hour),
		Status:      constants.CouponStatusActive,
	}
	if err := couponRepo.Create(coupon); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	rows, total, err := couponRepo.List(CouponListFilter{Page: 1, Search: "spring sale"})
	if err != nil {
		t.Fatalf("coupon search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("coupon search want 1 got total=%d len=%d", total, len(rows))
	}

	user := &models.User{Email: "pg@example.com", PasswordHash: "hash", Role: constants.UserRoleUser, Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	orderRepo := NewOrderRepository(db)
	order := &models.Order{
		Code:          "ORD-1700000000000-042",
		UserID:        user.ID,
		Address:       "Jane Doe, 12 Le Loi, Ben Nghe",
		Status:        constants.OrderStatusPending,
		PaymentMethod: constants.PaymentMethodOnline,
	}
	if err := orderRepo.CreateHeader(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	orders, total, err := orderRepo.ListAdmin(OrderListFilter{Page: 1, Search: "le loi"})
	if err != nil {
		t.Fatalf("order search failed: %v", err)
	}
	if total != 1 || len(orders) != 1 {
		t.Fatalf("order search want 1 got total=%d len=%d", total, len(orders))
	}
	if orders[0].User == nil || orders[0].User.Email != "pg@example.com" {
		t.Fatalf("admin list should preload the customer")
	}
}

func TestPostgresRowLocksInsideTransaction(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	productRepo := NewProductRepository(db)
	skuRepo := NewProductSKURepository(db)

	product := &models.Product{Name: "Locked Tee", Price: models.NewMoneyFromInt(100), DiscountType: constants.DiscountTypeNone, Stock: 2, IsActive: true}
	if err := productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	sku := &models.ProductSKU{ProductID: product.ID, SKUCode: "PG-LOCK", Quantity: 2}
	if err := skuRepo.Create(sku); err != nil {
		t.Fatalf("create sku failed: %v", err)
	}

	err := NewTransactor(db).Transaction(context.Background(), func(tx *gorm.DB) error {
		locked, err := skuRepo.WithTx(tx).GetForUpdate(sku.ID)
		if err != nil {
			return err
		}
		if locked == nil || locked.Product == nil {
			t.Fatalf("locked sku should preload product")
		}
		affected, err := skuRepo.WithTx(tx).DecrementQuantity(sku.ID, 2)
		if err != nil {
			return err
		}
		if affected != 1 {
			t.Fatalf("decrement affected want 1 got %d", affected)
		}
		return productRepo.WithTx(tx).RecordSale(product.ID, 2)
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	loaded, err := skuRepo.GetByID(sku.ID)
	if err != nil {
		t.Fatalf("load sku failed: %v", err)
	}
	if loaded.Quantity != 0 {
		t.Fatalf("quantity want 0 got %d", loaded.Quantity)
	}
}

package main

import (
	"errors"
	"time"

	"github.com/checkout-next/internal/config"
	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/logger"
	"github.com/checkout-next/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedProduct struct {
	product models.Product
	skus    []models.ProductSKU
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加商品与 SKU
	products := []seedProduct{
		{
			product: models.Product{
				Name:         "Classic Cotton Tee",
				Price:        models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
				DiscountType: constants.DiscountTypeNone,
				IsActive:     true,
			},
			skus: []models.ProductSKU{
				{SKUCode: "TEE-S-WHITE", Size: "S", Color: "white", Quantity: 20},
				{SKUCode: "TEE-M-WHITE", Size: "M", Color: "white", Quantity: 20},
				{SKUCode: "TEE-L-BLACK", Size: "L", Color: "black", Quantity: 10},
			},
		},
		{
			product: models.Product{
				Name:          "Denim Jacket",
				Price:         models.NewMoneyFromDecimal(decimal.NewFromInt(450)),
				DiscountType:  constants.DiscountTypePercentage,
				DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
				IsActive:      true,
			},
			skus: []models.ProductSKU{
				{SKUCode: "JKT-M-BLUE", Size: "M", Color: "blue", Quantity: 5},
				{SKUCode: "JKT-L-BLUE", Size: "L", Color: "blue", Quantity: 3},
			},
		},
		{
			product: models.Product{
				Name:          "Canvas Sneakers",
				Price:         models.NewMoneyFromDecimal(decimal.NewFromInt(300)),
				DiscountType:  constants.DiscountTypeFixed,
				DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
				IsActive:      true,
			},
			skus: []models.ProductSKU{
				{SKUCode: "SNK-40-WHITE", Size: "40", Color: "white", Quantity: 8},
				{SKUCode: "SNK-42-WHITE", Size: "42", Color: "white", Quantity: 0},
			},
		},
	}

	for _, item := range products {
		if err := seedProductWithSKUs(item); err != nil {
			stdLog.Printf("Failed to seed product %s: %v", item.product.Name, err)
		} else {
			stdLog.Printf("Seeded product: %s", item.product.Name)
		}
	}

	// 演示用户与收货地址
	user, err := seedUser("customer@example.com", "customer123")
	if err != nil {
		stdLog.Printf("Failed to seed user: %v", err)
	} else {
		var count int64
		models.DB.Model(&models.Address{}).Where("user_id = ?", user.ID).Count(&count)
		if count == 0 {
			address := models.Address{
				UserID:       user.ID,
				ReceiverName: "Jane Doe",
				Phone:        "0901234567",
				Province:     "Ho Chi Minh",
				District:     "District 1",
				Ward:         "Ben Nghe",
				Detail:       "12 Le Loi",
			}
			if err := models.DB.Create(&address).Error; err != nil {
				stdLog.Printf("Failed to create address: %v", err)
			} else {
				stdLog.Printf("Created address %d for %s", address.ID, user.Email)
			}
		}
	}

	// 优惠券
	now := time.Now()
	minOrder := models.NewMoneyFromDecimal(decimal.NewFromInt(200))
	maxDiscount := models.NewMoneyFromDecimal(decimal.NewFromInt(100))
	coupons := []models.Coupon{
		{
			Code:           "WELCOME50",
			Description:    "50 off orders from 200",
			Type:           constants.CouponTypeFixed,
			Value:          models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			MinOrderAmount: &minOrder,
			StartDate:      now.AddDate(0, 0, -1),
			EndDate:        now.AddDate(0, 3, 0),
			UsageLimit:     100,
			Status:         constants.CouponStatusActive,
		},
		{
			Code:              "SAVE20",
			Description:       "20% off, capped at 100",
			Type:              constants.CouponTypePercentage,
			Value:             models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
			MaxDiscountAmount: &maxDiscount,
			StartDate:         now.AddDate(0, 0, -1),
			EndDate:           now.AddDate(0, 1, 0),
			Status:            constants.CouponStatusActive,
		},
	}
	for _, coupon := range coupons {
		var existing models.Coupon
		err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error
		if err == nil {
			stdLog.Printf("Coupon already exists: %s", coupon.Code)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			stdLog.Printf("Failed to query coupon %s: %v", coupon.Code, err)
			continue
		}
		if err := models.DB.Create(&coupon).Error; err != nil {
			stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
		} else {
			stdLog.Printf("Created coupon: %s", coupon.Code)
		}
	}

	stdLog.Printf("Seed finished")
}

func seedProductWithSKUs(item seedProduct) error {
	return models.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Product
		err := tx.Where("name = ?", item.product.Name).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		product := item.product
		stock := 0
		for _, sku := range item.skus {
			stock += sku.Quantity
		}
		product.Stock = stock
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		for _, sku := range item.skus {
			sku.ProductID = product.ID
			if err := tx.Create(&sku).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func seedUser(email, password string) (*models.User, error) {
	var user models.User
	err := models.DB.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user = models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Jane",
		LastName:     "Doe",
		Role:         constants.UserRoleUser,
		Status:       constants.UserStatusActive,
	}
	if err := models.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

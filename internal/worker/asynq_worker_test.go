package worker

import (
	"context"
	"testing"

	"github.com/checkout-next/internal/config"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/provider"
	"github.com/checkout-next/internal/queue"
	"github.com/checkout-next/internal/service"

	"github.com/hibiken/asynq"
)

func TestBuildOrderEmailInputNilOrder(t *testing.T) {
	got := buildOrderEmailInput(nil, nil, "delivered")
	if got.OrderCode != "" || len(got.Lines) != 0 {
		t.Fatalf("expected empty input for nil order, got %+v", got)
	}
}

func TestBuildOrderEmailInputFromOrder(t *testing.T) {
	order := &models.Order{
		Code:        "ORD-1700000000000-042",
		Status:      "processing",
		Address:     "Jane, 0901, 1 Main St",
		Total:       models.NewMoneyFromInt(200),
		ShippingFee: models.NewMoneyFromInt(30),
		Discount:    models.NewMoneyFromInt(20),
		FinalAmount: models.NewMoneyFromInt(210),
		Items: []models.OrderItem{
			{ProductName: "Tee", Quantity: 2, Price: models.NewMoneyFromInt(100), Total: models.NewMoneyFromInt(200)},
		},
	}
	user := &models.User{FirstName: "Jane", LastName: "Doe"}

	got := buildOrderEmailInput(order, user, "")
	if got.Status != "processing" {
		t.Fatalf("expected order status fallback, got %q", got.Status)
	}
	if got.CustomerName != "Jane Doe" {
		t.Fatalf("unexpected customer name: %q", got.CustomerName)
	}
	if len(got.Lines) != 1 || got.Lines[0].ProductName != "Tee" || got.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected lines: %+v", got.Lines)
	}
	if got.FinalAmount.String() != "210.00" {
		t.Fatalf("unexpected final amount: %s", got.FinalAmount.String())
	}

	got = buildOrderEmailInput(order, user, " cancelled ")
	if got.Status != "cancelled" {
		t.Fatalf("expected explicit status, got %q", got.Status)
	}
}

func TestHandleOrderStatusEmailSkipsWhenEmailDisabled(t *testing.T) {
	consumer := NewConsumer(&provider.Container{
		EmailService: service.NewEmailService(&config.EmailConfig{Enabled: false}),
	})
	task, err := queue.NewOrderStatusEmailTask(queue.OrderStatusEmailPayload{OrderID: 7, Status: "delivered"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	// 邮件未启用时不应访问仓库
	if err := consumer.handleOrderStatusEmail(context.Background(), task); err != nil {
		t.Fatalf("expected disabled email to be a no-op, got %v", err)
	}
}

func TestHandleOrderConfirmationEmailRejectsBadPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskOrderConfirmationEmail, []byte("{not json"))
	if err := consumer.handleOrderConfirmationEmail(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

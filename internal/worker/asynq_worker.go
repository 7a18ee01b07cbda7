package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/checkout-next/internal/logger"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/provider"
	"github.com/checkout-next/internal/queue"
	"github.com/checkout-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderConfirmationEmail, c.handleOrderConfirmationEmail)
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
}

func (c *Consumer) handleOrderConfirmationEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_confirmation_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderConfirmationEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_confirmation_email_unmarshal_failed", "error", err)
		return err
	}
	return c.sendOrderEmail("worker_order_confirmation_email", payload.OrderID, "", func(receiver string, input service.OrderEmailInput) error {
		return c.EmailService.SendOrderConfirmationEmail(receiver, input)
	})
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	return c.sendOrderEmail("worker_order_status_email", payload.OrderID, payload.Status, func(receiver string, input service.OrderEmailInput) error {
		return c.EmailService.SendOrderStatusEmail(receiver, input)
	})
}

// sendOrderEmail 加载订单与下单用户后发送邮件
// 订单或收件人不存在、邮件服务未启用时直接确认任务，不再重试
func (c *Consumer) sendOrderEmail(event string, orderID uint, status string, send func(receiver string, input service.OrderEmailInput) error) error {
	if orderID == 0 {
		logger.Debugw(event+"_skip_invalid_payload", "order_id", orderID)
		return nil
	}
	if !c.EmailService.Enabled() {
		logger.Debugw(event+"_skip_email_disabled", "order_id", orderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(orderID)
	if err != nil {
		logger.Warnw(event+"_fetch_order_failed", "order_id", orderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw(event+"_skip_order_not_found", "order_id", orderID)
		return nil
	}
	user, err := c.UserRepo.GetByID(order.UserID)
	if err != nil {
		logger.Warnw(event+"_fetch_user_failed", "order_id", order.ID, "user_id", order.UserID, "error", err)
		return err
	}
	receiver := ""
	if user != nil {
		receiver = strings.TrimSpace(user.Email)
	}
	if receiver == "" {
		logger.Debugw(event+"_skip_empty_receiver", "order_id", order.ID, "order_code", order.Code)
		return nil
	}

	input := buildOrderEmailInput(order, user, status)
	if err := send(receiver, input); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailServiceDisabled), errors.Is(err, service.ErrEmailServiceNotConfigured):
			logger.Warnw(event+"_skip_not_configured", "order_id", order.ID, "error", err)
			return nil
		case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrEmailRecipientRejected):
			logger.Warnw(event+"_skip_bad_receiver", "order_id", order.ID, "receiver_email", receiver, "error", err)
			return nil
		}
		logger.Warnw(event+"_send_failed",
			"order_id", order.ID,
			"order_code", order.Code,
			"receiver_email", receiver,
			"status", input.Status,
			"error", err,
		)
		return err
	}
	return nil
}

// buildOrderEmailInput 由订单快照生成邮件内容，status 为空时取订单当前状态
func buildOrderEmailInput(order *models.Order, user *models.User, status string) service.OrderEmailInput {
	if order == nil {
		return service.OrderEmailInput{}
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = order.Status
	}
	lines := make([]service.OrderEmailLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, service.OrderEmailLine{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Total,
		})
	}
	return service.OrderEmailInput{
		OrderCode:    order.Code,
		CustomerName: user.FullName(),
		Status:       status,
		Address:      order.Address,
		Total:        order.Total,
		ShippingFee:  order.ShippingFee,
		Discount:     order.Discount,
		FinalAmount:  order.FinalAmount,
		Lines:        lines,
	}
}

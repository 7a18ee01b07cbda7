package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/checkout-next/internal/config"
	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/models"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled 邮件服务是否可用
func (s *EmailService) Enabled() bool {
	return s != nil && s.cfg != nil && s.cfg.Enabled
}

// OrderEmailLine 邮件中的订单行
type OrderEmailLine struct {
	ProductName string
	Quantity    int
	Price       models.Money
	Total       models.Money
}

// OrderEmailInput 订单邮件内容
type OrderEmailInput struct {
	OrderCode    string
	CustomerName string
	Status       string
	Address      string
	Total        models.Money
	ShippingFee  models.Money
	Discount     models.Money
	FinalAmount  models.Money
	Lines        []OrderEmailLine
}

// SendOrderConfirmationEmail 发送下单确认邮件
func (s *EmailService) SendOrderConfirmationEmail(toEmail string, input OrderEmailInput) error {
	subject, body := buildOrderConfirmationContent(input)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendOrderStatusEmail 发送订单状态通知
func (s *EmailService) SendOrderStatusEmail(toEmail string, input OrderEmailInput) error {
	subject, body := buildOrderStatusContent(input)
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s == nil || s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return normalizeEmailSendError(sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	if s.cfg.UseTLS {
		return normalizeEmailSendError(sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	return normalizeEmailSendError(sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
}

var orderStatusLabels = map[string]string{
	constants.OrderStatusPending:    "Pending",
	constants.OrderStatusProcessing: "Processing",
	constants.OrderStatusDelivering: "Out for delivery",
	constants.OrderStatusDelivered:  "Delivered",
	constants.OrderStatusCancelled:  "Cancelled",
	constants.OrderStatusReturned:   "Returned",
}

func orderStatusLabel(status string) string {
	if label, ok := orderStatusLabels[normalizeOrderStatus(status)]; ok {
		return label
	}
	return status
}

func buildOrderConfirmationContent(input OrderEmailInput) (string, string) {
	subject := fmt.Sprintf("Order %s confirmed", input.OrderCode)
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", greetingName(input.CustomerName))
	fmt.Fprintf(&body, "Thank you for your order. Order No: %s\n", input.OrderCode)
	fmt.Fprintf(&body, "Status: %s\n\n", orderStatusLabel(input.Status))
	for _, line := range input.Lines {
		fmt.Fprintf(&body, "- %s x%d @ %s = %s\n", line.ProductName, line.Quantity, line.Price.String(), line.Total.String())
	}
	fmt.Fprintf(&body, "\nSubtotal: %s\n", input.Total.String())
	fmt.Fprintf(&body, "Shipping: %s\n", input.ShippingFee.String())
	if input.Discount.IsPositive() {
		fmt.Fprintf(&body, "Discount: -%s\n", input.Discount.String())
	}
	fmt.Fprintf(&body, "Total payable: %s\n", input.FinalAmount.String())
	if addr := strings.TrimSpace(input.Address); addr != "" {
		fmt.Fprintf(&body, "\nShip to: %s\n", addr)
	}
	return subject, body.String()
}

func buildOrderStatusContent(input OrderEmailInput) (string, string) {
	label := orderStatusLabel(input.Status)
	subject := fmt.Sprintf("Order %s: %s", input.OrderCode, label)
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", greetingName(input.CustomerName))
	switch normalizeOrderStatus(input.Status) {
	case constants.OrderStatusCancelled:
		fmt.Fprintf(&body, "Your order %s has been cancelled.\n", input.OrderCode)
	case constants.OrderStatusReturned:
		fmt.Fprintf(&body, "The return for order %s has been received.\n", input.OrderCode)
	case constants.OrderStatusDelivering:
		fmt.Fprintf(&body, "Your order %s is on its way.\n", input.OrderCode)
	default:
		fmt.Fprintf(&body, "Your order %s is now %s.\n", input.OrderCode, strings.ToLower(label))
	}
	fmt.Fprintf(&body, "Order total: %s\n", input.FinalAmount.String())
	return subject, body.String()
}

func greetingName(name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return "there"
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	_, err = w.Write(msg)
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	directKeywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	}
	for _, keyword := range directKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		hints := []string{"recipient", "user", "mailbox", "address", "rcpt"}
		for _, hint := range hints {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}

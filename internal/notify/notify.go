package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/abayahaven/marketplace-backend/internal/config"
)

type Notifier interface {
	OrderPlaced(ctx context.Context, n OrderNotice) error
	ContactMessage(ctx context.Context, n ContactNotice) error
}

type OrderNoticeItem struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

type OrderNotice struct {
	OrderID         int
	BuyerName       string
	BuyerEmail      string
	Total           decimal.Decimal
	Currency        string
	PaymentMethod   string
	PaymentStatus   string
	ShippingAddress string
	Items           []OrderNoticeItem
}

type ContactNotice struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// message is a rendered mail ready for any transport.
type message struct {
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// New picks the transport named by MAIL_PROVIDER.
func New(cfg config.Config, logger *slog.Logger) (Notifier, error) {
	switch cfg.MailProvider {
	case "postmark":
		return NewPostmarkNotifier(cfg.PostmarkServerToken, cfg.MailFrom, cfg.SupportEmail), nil
	case "sendgrid":
		return NewSendGridNotifier(cfg.SendGridAPIKey, cfg.MailFrom, cfg.SupportEmail), nil
	case "", "log":
		return NewLogNotifier(logger), nil
	}
	return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
}

func renderOrderPlaced(n OrderNotice) message {
	var text, body strings.Builder

	fmt.Fprintf(&text, "Dear %s,\n\nThank you for your purchase! Your order #%d has been placed.\n\n", n.BuyerName, n.OrderID)
	fmt.Fprintf(&body, "<p>Dear %s,</p><p>Thank you for your purchase! Your order <strong>#%d</strong> has been placed.</p><ul>",
		html.EscapeString(n.BuyerName), n.OrderID)

	for _, it := range n.Items {
		fmt.Fprintf(&text, "- %s x%d @ %s %s\n", it.Name, it.Quantity, n.Currency, it.Price.StringFixed(2))
		fmt.Fprintf(&body, "<li>%s x%d @ %s %s</li>", html.EscapeString(it.Name), it.Quantity, n.Currency, it.Price.StringFixed(2))
	}

	total := n.Currency + " " + n.Total.StringFixed(2)
	fmt.Fprintf(&text, "\nTotal: %s\nPayment: %s (%s)\nShipping to: %s\n", total, n.PaymentMethod, n.PaymentStatus, n.ShippingAddress)
	fmt.Fprintf(&body, "</ul><p>Total: <strong>%s</strong><br>Payment: %s (%s)<br>Shipping to: %s</p>",
		total, html.EscapeString(n.PaymentMethod), html.EscapeString(n.PaymentStatus), html.EscapeString(n.ShippingAddress))

	return message{
		To:      n.BuyerEmail,
		Subject: fmt.Sprintf("Order Confirmation #%d", n.OrderID),
		Text:    text.String(),
		HTML:    body.String(),
	}
}

func renderContact(n ContactNotice, supportEmail string) message {
	text := fmt.Sprintf("From: %s <%s>\nSubject: %s\n\n%s\n", n.Name, n.Email, n.Subject, n.Message)
	body := fmt.Sprintf("<p>From: %s &lt;%s&gt;</p><p>Subject: %s</p><p>%s</p>",
		html.EscapeString(n.Name), html.EscapeString(n.Email), html.EscapeString(n.Subject),
		strings.ReplaceAll(html.EscapeString(n.Message), "\n", "<br>"))

	return message{
		To:      supportEmail,
		ReplyTo: n.Email,
		Subject: "Contact form: " + n.Subject,
		Text:    text,
		HTML:    body,
	}
}

type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) OrderPlaced(ctx context.Context, n OrderNotice) error {
	m := renderOrderPlaced(n)
	l.logger.InfoContext(ctx, "order confirmation", "to", m.To, "subject", m.Subject, "order_id", n.OrderID, "total", n.Total.StringFixed(2))
	return nil
}

func (l *LogNotifier) ContactMessage(ctx context.Context, n ContactNotice) error {
	l.logger.InfoContext(ctx, "contact message", "name", n.Name, "email", n.Email, "subject", n.Subject, "message", n.Message)
	return nil
}

package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abayahaven/marketplace-backend/internal/config"
)

type recordingNotifier struct {
	contacts []ContactNotice
	err      error
}

func (r *recordingNotifier) OrderPlaced(context.Context, OrderNotice) error { return r.err }

func (r *recordingNotifier) ContactMessage(_ context.Context, n ContactNotice) error {
	r.contacts = append(r.contacts, n)
	return r.err
}

func TestRenderOrderPlaced(t *testing.T) {
	m := renderOrderPlaced(OrderNotice{
		OrderID:         42,
		BuyerName:       "Sara <Khan>",
		BuyerEmail:      "sara@example.com",
		Total:           decimal.RequireFromString("225.00"),
		Currency:        "PKR",
		PaymentMethod:   "Cash on Delivery",
		PaymentStatus:   "pending",
		ShippingAddress: "Sara Khan, 12 Mall Road, Lahore, Pakistan",
		Items:           []OrderNoticeItem{{Name: "Black Abaya", Quantity: 2, Price: decimal.NewFromInt(100)}},
	})

	assert.Equal(t, "sara@example.com", m.To)
	assert.Equal(t, "Order Confirmation #42", m.Subject)
	assert.Contains(t, m.Text, "- Black Abaya x2 @ PKR 100.00")
	assert.Contains(t, m.Text, "Total: PKR 225.00")
	assert.Contains(t, m.HTML, "Sara &lt;Khan&gt;")
	assert.NotContains(t, m.HTML, "<Khan>")
}

func TestNew_SelectsTransport(t *testing.T) {
	n, err := New(config.Config{MailProvider: "log"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	n, err = New(config.Config{MailProvider: "postmark", PostmarkServerToken: "tok"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &PostmarkNotifier{}, n)

	n, err = New(config.Config{MailProvider: "sendgrid", SendGridAPIKey: "key"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SendGridNotifier{}, n)

	_, err = New(config.Config{MailProvider: "pigeon"}, nil)
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, n.OrderPlaced(context.Background(), OrderNotice{OrderID: 7, BuyerEmail: "b@example.com", Total: decimal.NewFromInt(15)}))
	assert.Contains(t, buf.String(), "order_id=7")
	assert.Contains(t, buf.String(), "total=15.00")
}

func TestContactHandler(t *testing.T) {
	rec := &recordingNotifier{}
	app := fiber.New()
	NewHandler(rec).RegisterPublicRoutes(app)

	post := func(body string) int {
		req := httptest.NewRequest("POST", "/api/contact", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		res, err := app.Test(req)
		if err != nil {
			t.Fatalf("contact request failed: %v", err)
		}
		return res.StatusCode
	}

	if got := post(`{"name":"A","email":"a@example.com","subject":"","message":"hi"}`); got != fiber.StatusBadRequest {
		t.Fatalf("expected 400 on missing subject, got %d", got)
	}
	if got := post(`{"name":"A","email":"a@example.com","subject":"Sizes","message":"hi"}`); got != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", got)
	}
	if len(rec.contacts) != 1 || rec.contacts[0].Subject != "Sizes" {
		t.Fatalf("contact not forwarded: %+v", rec.contacts)
	}

	rec.err = errors.New("smtp down")
	if got := post(`{"name":"A","email":"a@example.com","subject":"Sizes","message":"hi"}`); got != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 when mail fails, got %d", got)
	}
}

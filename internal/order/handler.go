package order

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/abayahaven/marketplace-backend/internal/address"
	"github.com/abayahaven/marketplace-backend/internal/payment"
	"github.com/abayahaven/marketplace-backend/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/checkout", h.checkout)
	app.Post("/api/create-payment-intent", h.createPaymentIntent)
	app.Get("/api/user/orders/placed", h.placedOrders)
	app.Get("/api/user/orders/received", h.receivedOrders)
	app.Put("/api/orders/:orderId/ship", h.ship)
	app.Put("/api/orders/:orderId/cancel", h.cancel)
	app.Put("/api/payments/:paymentId/mark-received", h.markReceived)
}

func (h *Handler) RegisterAdminRoutes(admin fiber.Router) {
	admin.Get("/orders", h.listAll)
	admin.Put("/orders/:id", h.adminUpdate)
	admin.Delete("/orders/:id", h.adminDelete)
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	who, err := user.IdentityFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	req := new(CheckoutRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid checkout request."})
	}

	buyer := Buyer{ID: who.ID, Username: who.Username, Email: who.Email}
	receipt, err := h.service.Checkout(c.UserContext(), buyer, *req)
	if err != nil {
		return writeError(c, err, "Server error during checkout.")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":        true,
		"message":        "Order placed successfully!",
		"order_id":       receipt.OrderID,
		"total_amount":   receipt.TotalAmount,
		"payment_status": receipt.PaymentStatus,
	})
}

func (h *Handler) createPaymentIntent(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	result, err := h.service.CreatePaymentIntent(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err, "Server error creating payment intent.")
	}
	return c.JSON(result)
}

func (h *Handler) placedOrders(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	orders, err := h.service.Placed(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err, "Server error fetching your orders.")
	}
	return c.JSON(orders)
}

func (h *Handler) receivedOrders(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	orders, err := h.service.Received(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err, "Server error fetching orders for your products.")
	}
	return c.JSON(orders)
}

func (h *Handler) ship(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	orderID, err := strconv.Atoi(c.Params("orderId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid order id"})
	}

	if err := h.service.Ship(c.UserContext(), userID, orderID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Order not found or you do not have permission to ship this order."})
		}
		return writeError(c, err, "Server error marking order as shipped.")
	}
	return c.JSON(fiber.Map{"success": true, "message": fmt.Sprintf("Order #%d marked as shipped.", orderID)})
}

func (h *Handler) cancel(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	orderID, err := strconv.Atoi(c.Params("orderId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid order id"})
	}

	status, err := h.service.Cancel(c.UserContext(), userID, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Order not found or you do not have permission to cancel this order."})
		}
		return writeError(c, err, "Server error cancelling order.")
	}
	return c.JSON(fiber.Map{
		"success":          true,
		"message":          fmt.Sprintf("Order #%d cancelled. Stock restored.", orderID),
		"newPaymentStatus": status,
	})
}

func (h *Handler) markReceived(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	paymentID, err := strconv.Atoi(c.Params("paymentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid payment id"})
	}

	orderID, err := h.service.MarkReceived(c.UserContext(), userID, paymentID)
	if err != nil {
		return writeError(c, err, "Server error marking COD payment as received.")
	}
	return c.JSON(fiber.Map{"success": true, "message": fmt.Sprintf("Payment for Order #%d marked as received.", orderID)})
}

func (h *Handler) listAll(c *fiber.Ctx) error {
	orders, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return writeError(c, err, "Server error fetching orders.")
	}
	return c.JSON(orders)
}

func (h *Handler) adminUpdate(c *fiber.Ctx) error {
	orderID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid order id"})
	}

	patch := new(StatusPatch)
	if err := c.BodyParser(patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	if err := h.service.AdminUpdate(c.UserContext(), orderID, *patch); err != nil {
		return writeError(c, err, "Server error updating order.")
	}
	return c.JSON(fiber.Map{"message": "Order updated successfully."})
}

func (h *Handler) adminDelete(c *fiber.Ctx) error {
	orderID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid order id"})
	}

	if err := h.service.AdminDelete(c.UserContext(), orderID); err != nil {
		return writeError(c, err, "Server error deleting order.")
	}
	return c.JSON(fiber.Map{"message": "Order deleted successfully."})
}

func writeError(c *fiber.Ctx, err error, fallback string) error {
	var (
		stock   *InsufficientStockError
		missing *ProductUnavailableError
		failed  *PaymentFailedError
		state   *StateError
		pstate  *PaymentStateError
		status  *InvalidStatusError
		field   *address.MissingFieldError
	)

	switch {
	case errors.Is(err, ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cart is empty. Cannot proceed with checkout."})
	case errors.Is(err, ErrInvalidLine), errors.Is(err, ErrIntentRequired), errors.Is(err, ErrEmptyPatch),
		errors.Is(err, ErrNotCashOnDelivery), errors.Is(err, ErrAlreadyReceived),
		errors.Is(err, payment.ErrUnknownMethod), errors.Is(err, payment.ErrIntentNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.As(err, &stock), errors.As(err, &failed), errors.As(err, &state),
		errors.As(err, &pstate), errors.As(err, &status), errors.As(err, &field):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.As(err, &missing):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Order not found."})
	case errors.Is(err, ErrPaymentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Payment record not found."})
	case errors.Is(err, ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden: You do not have permission to mark this payment as received."})
	case errors.Is(err, payment.ErrProviderUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "Online payments are currently unavailable."})
	}

	slog.ErrorContext(c.UserContext(), fallback, "method", c.Method(), "path", c.Path(), "err", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": fallback})
}

package cart

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/abayahaven/marketplace-backend/internal/user"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/cart", h.getCart)
	app.Post("/api/cart", h.addToCart)
	app.Put("/api/cart/:productId", h.updateQuantity)
	app.Delete("/api/cart/:productId", h.removeItem)
}

type addRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	items, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return h.writeError(c, err, "Server error fetching cart.")
	}
	return c.JSON(items)
}

func (h *Handler) addToCart(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	payload := new(addRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Product ID and a valid quantity are required."})
	}

	inserted, err := h.service.Add(c.UserContext(), userID, payload.ProductID, payload.Quantity)
	if err != nil {
		if errors.Is(err, ErrInvalidQuantity) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Product ID and a valid quantity are required."})
		}
		return h.writeError(c, err, "Server error adding product to cart.")
	}

	if inserted {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product added to cart successfully."})
	}
	return c.JSON(fiber.Map{"message": "Product quantity updated in cart."})
}

func (h *Handler) updateQuantity(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	productID, err := strconv.Atoi(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid product id"})
	}

	payload := new(quantityRequest)
	if err := c.BodyParser(payload); err != nil || payload.Quantity == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "A valid quantity is required."})
	}

	if err := h.service.SetQuantity(c.UserContext(), userID, productID, *payload.Quantity); err != nil {
		return h.writeError(c, err, "Server error updating cart item.")
	}

	if *payload.Quantity == 0 {
		return c.JSON(fiber.Map{"message": "Product removed from cart."})
	}
	return c.JSON(fiber.Map{"message": "Product quantity updated in cart."})
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	productID, err := strconv.Atoi(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid product id"})
	}

	if err := h.service.Remove(c.UserContext(), userID, productID); err != nil {
		return h.writeError(c, err, "Server error removing cart item.")
	}
	return c.JSON(fiber.Map{"message": "Product removed from cart successfully."})
}

func (h *Handler) writeError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "A valid quantity is required."})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Cart item not found."})
	case errors.Is(err, ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Product not found."})
	}

	slog.ErrorContext(c.UserContext(), fallback, "method", c.Method(), "path", c.Path(), "err", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": fallback})
}

package product

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/abayahaven/marketplace-backend/internal/upload"
	"github.com/abayahaven/marketplace-backend/internal/user"
)

type Handler struct {
	service *Service
	images  *upload.Store
}

func NewHandler(service *Service, images *upload.Store) *Handler {
	return &Handler{service: service, images: images}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/products", h.getProducts)
	app.Get("/api/products/:id", h.getProduct)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/products", h.createProduct)
	app.Get("/api/user/products", h.getMyProducts)
	app.Put("/api/products/:id", h.updateProduct)
	app.Delete("/api/products/:id", h.deleteProduct)
}

func (h *Handler) RegisterAdminRoutes(admin fiber.Router) {
	admin.Get("/products", h.adminListProducts)
	admin.Put("/products/:id", h.adminUpdateProduct)
	admin.Delete("/products/:id", h.adminDeleteProduct)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "limit must be between 1 and 100"})
		}
		limit = n
	}

	products, err := h.service.List(c.UserContext(), limit)
	if err != nil {
		return h.writeError(c, err, "Server error fetching products.")
	}
	return c.JSON(products)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid product id"})
	}

	p, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err, "Server error fetching product details.")
	}
	return c.JSON(p)
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	p := Product{
		SellerID:    userID,
		Name:        strings.TrimSpace(c.FormValue("name")),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
	}

	rawPrice := c.FormValue("price")
	file, _ := c.FormFile("image")
	if p.Name == "" || rawPrice == "" || file == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Product name, price, and image are required."})
	}

	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return h.writeError(c, ErrInvalidPrice, "")
	}
	p.Price = price

	if raw := c.FormValue("stock_quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return h.writeError(c, ErrInvalidStock, "")
		}
		p.StockQuantity = n
	}

	if !p.Price.IsPositive() {
		return h.writeError(c, ErrInvalidPrice, "")
	}
	if p.StockQuantity < 0 {
		return h.writeError(c, ErrInvalidStock, "")
	}

	path, err := h.images.Save(file)
	if err != nil {
		return h.writeError(c, err, "Server error saving image.")
	}
	p.ImageURL = path

	created, err := h.service.Create(c.UserContext(), p)
	if err != nil {
		h.removeImage(c, path)
		return h.writeError(c, err, "Server error creating product.")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Product created successfully!",
		"productId": created.ID,
		"product":   created,
	})
}

func (h *Handler) getMyProducts(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	products, err := h.service.ListBySeller(c.UserContext(), userID)
	if err != nil {
		return h.writeError(c, err, "Server error fetching user products.")
	}
	return c.JSON(products)
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid product id"})
	}

	patch, err := parsePatch(c)
	if err != nil {
		return h.writeError(c, err, "")
	}

	newImage := ""
	if file, ferr := c.FormFile("image"); ferr == nil && file != nil {
		newImage, err = h.images.Save(file)
		if err != nil {
			return h.writeError(c, err, "Server error saving image.")
		}
		patch.ImageURL = &newImage
	}

	updated, previous, err := h.service.UpdateOwned(c.UserContext(), userID, id, patch)
	if err != nil {
		if newImage != "" {
			h.removeImage(c, newImage)
		}
		return h.writeError(c, err, "Server error updating product.")
	}

	if newImage != "" && previous.ImageURL != newImage {
		h.removeImage(c, previous.ImageURL)
	}

	return c.JSON(fiber.Map{"message": "Product updated successfully!", "product": updated})
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid product id"})
	}

	deleted, err := h.service.DeleteOwned(c.UserContext(), userID, id)
	if err != nil {
		return h.writeError(c, err, "Server error deleting product.")
	}
	h.removeImage(c, deleted.ImageURL)

	return c.JSON(fiber.Map{"message": "Product deleted successfully!"})
}

func (h *Handler) adminListProducts(c *fiber.Ctx) error {
	products, err := h.service.ListWithSellers(c.UserContext())
	if err != nil {
		return h.writeError(c, err, "Server error fetching products.")
	}
	return c.JSON(products)
}

func (h *Handler) adminUpdateProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid product id"})
	}

	patch, err := parsePatch(c)
	if err != nil {
		return h.writeError(c, err, "")
	}

	updated, _, err := h.service.Update(c.UserContext(), id, patch)
	if err != nil {
		return h.writeError(c, err, "Server error updating product.")
	}
	return c.JSON(fiber.Map{"message": "Product updated successfully.", "product": updated})
}

func (h *Handler) adminDeleteProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid product id"})
	}

	deleted, err := h.service.Delete(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err, "Server error deleting product.")
	}
	h.removeImage(c, deleted.ImageURL)

	return c.JSON(fiber.Map{"message": "Product deleted successfully."})
}

// parsePatch reads a patch from either a multipart form or a JSON body.
// Empty form values are treated as absent.
func parsePatch(c *fiber.Ctx) (Patch, error) {
	var p Patch
	if !strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		if len(c.Body()) == 0 {
			return p, nil
		}
		if err := c.BodyParser(&p); err != nil {
			return Patch{}, errInvalidBody
		}
		return p, nil
	}

	for field, dst := range map[string]**string{
		"name":        &p.Name,
		"description": &p.Description,
		"category":    &p.Category,
	} {
		if v := c.FormValue(field); v != "" {
			*dst = &v
		}
	}
	if v := c.FormValue("price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Patch{}, ErrInvalidPrice
		}
		p.Price = &d
	}
	if v := c.FormValue("stock_quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Patch{}, ErrInvalidStock
		}
		p.StockQuantity = &n
	}
	return p, nil
}

var errInvalidBody = errors.New("invalid request body")

func (h *Handler) removeImage(c *fiber.Ctx, path string) {
	if path == "" {
		return
	}
	if err := h.images.Remove(path); err != nil {
		slog.WarnContext(c.UserContext(), "failed to remove product image", "path", path, "err", err)
	}
}

func (h *Handler) writeError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Product not found."})
	case errors.Is(err, ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "You are not authorized to modify this product."})
	case errors.Is(err, ErrEmptyPatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "No fields to update."})
	case errors.Is(err, ErrMissingFields):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Product name, price, and image are required."})
	case errors.Is(err, ErrInvalidPrice):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Price must be a positive number."})
	case errors.Is(err, ErrInvalidStock):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Stock quantity must be a non-negative integer."})
	case errors.Is(err, ErrInvalidLimit):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "limit must be between 1 and 100"})
	case errors.Is(err, errInvalidBody):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	case errors.Is(err, upload.ErrTooLarge):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Image exceeds the maximum upload size."})
	case errors.Is(err, upload.ErrUnsupportedType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Only images (jpeg, jpg, png, gif) are allowed!"})
	case errors.Is(err, ErrHasOrders):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Product has order history and cannot be deleted."})
	}

	slog.ErrorContext(c.UserContext(), fallback, "method", c.Method(), "path", c.Path(), "err", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": fallback})
}

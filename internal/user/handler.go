package user

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
	tokens  *TokenIssuer
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func NewHandler(service *Service, tokens *TokenIssuer) *Handler {
	return &Handler{service: service, tokens: tokens}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/auth/signup", h.signup)
	app.Post("/api/auth/login", h.login)
	// paths used by the existing storefront client
	app.Post("/api/signup", h.signup)
	app.Post("/api/login", h.login)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/auth/verify-token", h.verifyToken)
}

// RegisterAdminRoutes mounts user management on a router that already
// enforces RequireAdmin.
func (h *Handler) RegisterAdminRoutes(admin fiber.Router) {
	admin.Get("/users", h.listUsers)
	admin.Put("/users/:id", h.updateUser)
	admin.Delete("/users/:id", h.deleteUser)
}

func (h *Handler) signup(c *fiber.Ctx) error {
	payload := new(signupRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	created, err := h.service.Register(c.UserContext(), User{
		Username: payload.Username,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Username, email, phone, and password are required."})
		case errors.Is(err, ErrEmailExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "User with this email already exists."})
		}
		return serverError(c, "Server error during registration. Please try again later.", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully!",
		"userId":  created.ID,
	})
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if payload.Email == "" || payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Email and password are required."})
	}

	user, err := h.service.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials."})
		}
		return serverError(c, "Server error during login. Please try again later.", err)
	}

	signed, err := h.tokens.Issue(user)
	if err != nil {
		return serverError(c, "Server error during login. Please try again later.", err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful!",
		"token":   signed,
		"user":    user,
	})
}

func (h *Handler) verifyToken(c *fiber.Ctx) error {
	identity, err := IdentityFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Token is not valid"})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Token is valid",
		"user":    identity,
	})
}

func (h *Handler) listUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return serverError(c, "Server error fetching users.", err)
	}
	return c.JSON(users)
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user id"})
	}

	patch := Patch{}
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	updated, err := h.service.Update(c.UserContext(), userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyPatch):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "No fields to update"})
		case errors.Is(err, ErrMissingFields):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Username and email cannot be empty."})
		case errors.Is(err, ErrInvalidRole):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user_type. Must be 'admin' or 'user'."})
		case errors.Is(err, ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found."})
		case errors.Is(err, ErrEmailExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Email already in use by another user."})
		}
		return serverError(c, "Server error updating user.", err)
	}

	return c.JSON(fiber.Map{"message": "User updated successfully!", "user": updated})
}

func (h *Handler) deleteUser(c *fiber.Ctx) error {
	actorID, err := GetUserIDFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user id"})
	}

	if err := h.service.Delete(c.UserContext(), actorID, userID); err != nil {
		switch {
		case errors.Is(err, ErrSelfDelete):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Admins cannot delete their own account."})
		case errors.Is(err, ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found."})
		case errors.Is(err, ErrHasDependents):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Cannot delete user: they still have products or orders."})
		}
		return serverError(c, "Server error deleting user.", err)
	}

	return c.JSON(fiber.Map{"message": "User deleted successfully!"})
}

func serverError(c *fiber.Ctx, message string, err error) error {
	slog.ErrorContext(c.UserContext(), message, "method", c.Method(), "path", c.Path(), "err", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": message})
}

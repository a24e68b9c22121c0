package user

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "0123456789abcdef-test"

// makeApp wires the handler behind a lightweight middleware that turns the
// X-User-ID / X-User-Role headers into a jwt.Token in locals, standing in
// for jwtware.
func makeApp(h *Handler) *fiber.App {
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(func(c *fiber.Ctx) error {
		v := c.Get("X-User-ID")
		if v == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "No token, authorization denied"})
		}
		id, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Token is not valid"})
		}
		role := c.Get("X-User-Role")
		if role == "" {
			role = "user"
		}
		claims := jwt.MapClaims{"user_id": float64(id), "user_type": role, "username": "tester", "email": "t@example.com"}
		c.Locals("user", &jwt.Token{Claims: claims})
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/admin", RequireAdmin))
	return app
}

func newTestHandler(seed []User) (*Handler, *InMemoryRepository) {
	repo := NewInMemoryRepository(seed)
	return NewHandler(NewService(repo), NewTokenIssuer(testSecret, time.Hour)), repo
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func TestRoutesRegistered(t *testing.T) {
	h, _ := newTestHandler(nil)
	app := makeApp(h)

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Method+" "+r.Path] = true
		}
	}
	for _, want := range []string{
		"POST /api/auth/signup",
		"POST /api/auth/login",
		"GET /api/auth/verify-token",
		"GET /api/admin/users",
		"PUT /api/admin/users/:id",
		"DELETE /api/admin/users/:id",
	} {
		if !routes[want] {
			t.Fatalf("expected route %q to be registered", want)
		}
	}
}

func TestSignupAndLogin(t *testing.T) {
	h, _ := newTestHandler(nil)
	app := makeApp(h)

	status, body := doJSON(t, app, "POST", "/api/auth/signup", `{"username":"amina","email":" Amina@Example.com ","phone":"0300","password":"secret1"}`, nil)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201 on signup, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"userId":1`) {
		t.Fatalf("signup response missing userId: %s", body)
	}

	status, _ = doJSON(t, app, "POST", "/api/auth/signup", `{"username":"dup","email":"amina@example.com","phone":"1","password":"x"}`, nil)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 on duplicate email, got %d", status)
	}

	status, _ = doJSON(t, app, "POST", "/api/auth/signup", `{"username":"nophone","email":"n@example.com","password":"x"}`, nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 on missing phone, got %d", status)
	}

	status, _ = doJSON(t, app, "POST", "/api/auth/login", `{"email":"amina@example.com","password":"wrong"}`, nil)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 on bad password, got %d", status)
	}

	status, body = doJSON(t, app, "POST", "/api/auth/login", `{"email":"AMINA@example.com","password":"secret1"}`, nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 on login, got %d: %s", status, body)
	}
	if strings.Contains(body, "password") {
		t.Fatalf("login response must not expose the password hash: %s", body)
	}

	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.User.Role != RoleUser {
		t.Fatalf("expected default role user, got %q", resp.User.Role)
	}

	parsed, err := jwt.Parse(resp.Token, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["user_type"] != "user" || claims["username"] != "amina" {
		t.Fatalf("unexpected claims: %v", claims)
	}
}

func TestVerifyToken(t *testing.T) {
	h, _ := newTestHandler(nil)
	app := makeApp(h)

	status, _ := doJSON(t, app, "GET", "/api/auth/verify-token", "", nil)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	status, body := doJSON(t, app, "GET", "/api/auth/verify-token", "", map[string]string{"X-User-ID": "4"})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(body, `"id":4`) || !strings.Contains(body, "Token is valid") {
		t.Fatalf("unexpected verify body: %s", body)
	}
}

func TestAdminUserManagement(t *testing.T) {
	h, repo := newTestHandler([]User{
		{ID: 1, Username: "admin", Email: "admin@example.com", Role: RoleAdmin},
		{ID: 2, Username: "seller", Email: "seller@example.com", Role: RoleUser},
		{ID: 3, Username: "buyer", Email: "buyer@example.com", Role: RoleUser},
	})
	repo.MarkDependents(2)
	app := makeApp(h)
	admin := map[string]string{"X-User-ID": "1", "X-User-Role": "admin"}

	status, _ := doJSON(t, app, "GET", "/api/admin/users", "", map[string]string{"X-User-ID": "3"})
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", status)
	}

	status, body := doJSON(t, app, "GET", "/api/admin/users", "", admin)
	if status != fiber.StatusOK || !strings.Contains(body, "seller@example.com") {
		t.Fatalf("expected user list, got %d: %s", status, body)
	}

	status, _ = doJSON(t, app, "PUT", "/api/admin/users/3", `{}`, admin)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 on empty patch, got %d", status)
	}

	status, _ = doJSON(t, app, "PUT", "/api/admin/users/3", `{"user_type":"root"}`, admin)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 on invalid role, got %d", status)
	}

	status, _ = doJSON(t, app, "PUT", "/api/admin/users/3", `{"email":"seller@example.com"}`, admin)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 on duplicate email, got %d", status)
	}

	status, _ = doJSON(t, app, "PUT", "/api/admin/users/99", `{"phone":"1"}`, admin)
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", status)
	}

	status, body = doJSON(t, app, "PUT", "/api/admin/users/3", `{"user_type":"admin","phone":"0311"}`, admin)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", status, body)
	}
	updated, _ := repo.GetByID(context.Background(), 3)
	if updated.Role != RoleAdmin || updated.Phone != "0311" || updated.Username != "buyer" {
		t.Fatalf("patch not applied correctly: %+v", updated)
	}

	status, _ = doJSON(t, app, "DELETE", "/api/admin/users/1", "", admin)
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 on self delete, got %d", status)
	}

	status, _ = doJSON(t, app, "DELETE", "/api/admin/users/2", "", admin)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 for user with products, got %d", status)
	}

	status, _ = doJSON(t, app, "DELETE", "/api/admin/users/3", "", admin)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", status)
	}
	status, _ = doJSON(t, app, "DELETE", "/api/admin/users/3", "", admin)
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", status)
	}
}

func TestEnsureAdmin(t *testing.T) {
	repo := NewInMemoryRepository([]User{{ID: 5, Username: "old", Email: "boss@example.com", Role: RoleUser}})
	svc := NewService(repo)
	ctx := context.Background()

	promoted, created, err := svc.EnsureAdmin(ctx, User{Email: "Boss@example.com"})
	if err != nil || created || promoted.Role != RoleAdmin {
		t.Fatalf("expected promotion of existing user, got %+v created=%v err=%v", promoted, created, err)
	}

	fresh, created, err := svc.EnsureAdmin(ctx, User{Username: "root", Email: "root@example.com", Phone: "1", Password: "pw"})
	if err != nil || !created || fresh.Role != RoleAdmin {
		t.Fatalf("expected new admin, got %+v created=%v err=%v", fresh, created, err)
	}
}

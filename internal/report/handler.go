package report

import (
	"bytes"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/abayahaven/marketplace-backend/internal/user"
)

type Handler struct {
	service *Service
	now     func() time.Time
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/reports/my-monthly-sales", h.getMonthlySales)
	app.Get("/api/reports/download-csv", h.downloadSalesCSV)
	app.Get("/api/reports/download-pdf", h.downloadSalesPDF)
	app.Get("/api/reports/monthly-order-details", h.getMonthlyOrderDetails)
}

func (h *Handler) RegisterAdminRoutes(admin fiber.Router) {
	admin.Get("/dashboard-stats", h.getDashboardStats)

	admin.Get("/reports/users", h.getUsersReport)
	admin.Get("/reports/users/csv", h.downloadUsersCSV)
	admin.Get("/reports/users/pdf", h.downloadUsersPDF)

	admin.Get("/reports/stock", h.getStockReport)
	admin.Get("/reports/stock/csv", h.downloadStockCSV)
	admin.Get("/reports/stock/pdf", h.downloadStockPDF)

	admin.Get("/reports/orders", h.getOrdersReport)
	admin.Get("/reports/orders/csv", h.downloadOrdersCSV)
	admin.Get("/reports/orders/pdf", h.downloadOrdersPDF)
}

func (h *Handler) sellerAndPeriod(c *fiber.Ctx) (int, Period, error) {
	sellerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return 0, Period{}, errUnauthorized
	}
	p, err := ParsePeriod(c.Query("year"), c.Query("month"))
	if err != nil {
		return 0, Period{}, err
	}
	return sellerID, p, nil
}

func (h *Handler) getMonthlySales(c *fiber.Ctx) error {
	sellerID, p, err := h.sellerAndPeriod(c)
	if err != nil {
		return h.writeError(c, err, "")
	}

	sales, err := h.service.MonthlySales(c.UserContext(), sellerID, p)
	if err != nil {
		return h.writeError(c, err, "Server error fetching sales report.")
	}
	return c.JSON(sales)
}

func (h *Handler) downloadSalesCSV(c *fiber.Ctx) error {
	sellerID, p, err := h.sellerAndPeriod(c)
	if err != nil {
		return h.writeError(c, err, "")
	}

	sales, err := h.service.MonthlySales(c.UserContext(), sellerID, p)
	if err != nil {
		return h.writeError(c, err, "Server error generating CSV report.")
	}
	if len(sales) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No sales data available for CSV export."})
	}

	headers, rows := salesCSV(sales, h.service.Currency())
	return h.sendCSV(c, "monthly_sales_report.csv", headers, rows)
}

func (h *Handler) downloadSalesPDF(c *fiber.Ctx) error {
	sellerID, p, err := h.sellerAndPeriod(c)
	if err != nil {
		return h.writeError(c, err, "")
	}

	sales, err := h.service.MonthlySales(c.UserContext(), sellerID, p)
	if err != nil {
		return h.writeError(c, err, "Server error generating PDF report.")
	}
	if len(sales) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No sales data available for PDF export."})
	}

	return h.sendPDF(c, "monthly_sales_report.pdf", salesTable(sales, h.service.Currency(), p))
}

func (h *Handler) getMonthlyOrderDetails(c *fiber.Ctx) error {
	sellerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return h.writeError(c, errUnauthorized, "")
	}
	p, err := ParseMonth(c.Query("year"), c.Query("month"))
	if err != nil {
		return h.writeError(c, err, "")
	}

	orders, err := h.service.SellerOrders(c.UserContext(), sellerID, p)
	if err != nil {
		return h.writeError(c, err, "Server error fetching detailed monthly orders report.")
	}
	return c.JSON(orders)
}

func (h *Handler) getDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return h.writeError(c, err, "Server error fetching admin dashboard statistics.")
	}
	return c.JSON(stats)
}

func adminPeriod(c *fiber.Ctx) (Period, error) {
	return ParsePeriod(c.Query("year"), c.Query("month"))
}

func (h *Handler) getUsersReport(c *fiber.Ctx) error {
	p, err := adminPeriod(c)
	if err != nil {
		return h.writeError(c, err, "")
	}
	users, err := h.service.Users(c.UserContext(), p)
	if err != nil {
		return h.writeError(c, err, "Error fetching user report data.")
	}
	return c.JSON(users)
}

func (h *Handler) downloadUsersCSV(c *fiber.Ctx) error {
	p, err := adminPeriod(c)
	if err != nil {
		return h.writeError(c, err, "")
	}
	users, err := h.service.Users(c.UserContext(), p)
	if err != nil {
		return h.writeError(c, err, "Error generating users CSV.")
	}
	return h.sendCSV(c, "users_report.csv", usersHeaders, usersCSV(users))
}

func (h *Handler) downloadUsersPDF(c *fiber.Ctx) error {
	p, err := adminPeriod(c)
	if err != nil {
		return h.writeError(c, err, "")
	}
	users, err := h.service.Users(c.UserContext(), p)
	if err != nil {
		return h.writeError(c, err, "Error generating users PDF.")
	}
	return h.sendPDF(c, "users_report.pdf", usersTable(users, p))
}

func (h *Handler) getStockReport(c *fiber.Ctx) error {
	p, err := adminPeriod(c)
	if err != nil {
		return h.writeError(c, err, "")
	}
	stock, err := h.service.Stock(c.UserContext(), p)
	if err != nil {
		return h.writeError(c, err, "Error fetching stock report data.")
	}
	return c.JSON(stock)
}

func (h *Handler) downloadStockCSV(c *fiber.Ctx) error {
	p, err := adminPeriod(c)
	if err != nil {
		return h.writeError(c, err, "")
	}
	stock, err := h.service.Stock(c.UserContext(), p)
	if err != nil {
		return h.writeError(c, err, "Error generating stock CSV.")
	}
	return h.sendCSV(c, "stock_report.csv", stockHeaders, stockCSV(stock))
}

func (h *Handler) downloadStockPDF(c *fiber.Ctx) error {
	p, err := adminPeriod(c)
	if err != nil {
		return h.writeError(c, err, "")
	}
	stock, err := h.service.Stock(c.UserContext(), p)
	if err != nil {
		return h.writeError(c, err, "Error generating stock PDF.")
	}
	return h.sendPDF(c, "stock_report.pdf", stockTable(stock, h.service.Currency(), p))
}

func (h *Handler) getOrdersReport(c *fiber.Ctx) error {
	p, err := adminPeriod(c)
	if err != nil {
		return h.writeError(c, err, "")
	}
	orders, err := h.service.Orders(c.UserContext(), p)
	if err != nil {
		return h.writeError(c, err, "Error fetching orders report data.")
	}
	return c.JSON(orders)
}

func (h *Handler) downloadOrdersCSV(c *fiber.Ctx) error {
	p, err := adminPeriod(c)
	if err != nil {
		return h.writeError(c, err, "")
	}
	orders, err := h.service.Orders(c.UserContext(), p)
	if err != nil {
		return h.writeError(c, err, "Error generating orders CSV.")
	}
	return h.sendCSV(c, "orders_report.csv", ordersHeaders, ordersCSV(orders))
}

func (h *Handler) downloadOrdersPDF(c *fiber.Ctx) error {
	p, err := adminPeriod(c)
	if err != nil {
		return h.writeError(c, err, "")
	}
	orders, err := h.service.Orders(c.UserContext(), p)
	if err != nil {
		return h.writeError(c, err, "Error generating orders PDF.")
	}
	return h.sendPDF(c, "orders_report.pdf", ordersTable(orders, h.service.Currency(), p))
}

func (h *Handler) sendCSV(c *fiber.Ctx, filename string, headers []string, rows [][]string) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, headers, rows); err != nil {
		return h.writeError(c, err, "Server error generating CSV report.")
	}
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

// sendPDF renders into a buffer first so a rendering failure can still be
// reported as JSON.
func (h *Handler) sendPDF(c *fiber.Ctx, filename string, t Table) error {
	var buf bytes.Buffer
	if err := WritePDF(&buf, t, h.now()); err != nil {
		return h.writeError(c, err, "Server error generating PDF report.")
	}
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(buf.Bytes())
}

var errUnauthorized = errors.New("unauthorized")

func (h *Handler) writeError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, errUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	case errors.Is(err, ErrPeriodRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Month (MM) and Year (YYYY) are required query parameters and must be valid format."})
	case errors.Is(err, ErrInvalidYear), errors.Is(err, ErrInvalidMonth), errors.Is(err, ErrMonthWithoutYear):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	slog.ErrorContext(c.UserContext(), fallback, "method", c.Method(), "path", c.Path(), "err", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": fallback})
}

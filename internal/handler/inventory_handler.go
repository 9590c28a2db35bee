package handler

import (
	"time"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"
	"comercial-stock-backend/internal/repository"
	"comercial-stock-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// InventoryHandler exposes the stock records, the movement ledger, and the
// adjustment workflow over HTTP.
type InventoryHandler struct {
	stockService      service.StockService
	adjustmentService service.AdjustmentService
	ledger            service.LedgerService
}

func NewInventoryHandler(stockService service.StockService, adjustmentService service.AdjustmentService, ledger service.LedgerService) *InventoryHandler {
	return &InventoryHandler{
		stockService:      stockService,
		adjustmentService: adjustmentService,
		ledger:            ledger,
	}
}

// Helper untuk ambil User Info dari JWT Context (set by auth middleware)
func getUserID(c *fiber.Ctx) string {
	userID := c.Locals("user_id")
	if userID == nil {
		return "system" // Fallback jika tidak ada (shouldn't happen in protected routes)
	}
	return userID.(string)
}

// getUserUUID parses the authenticated user's ID, nil when unauthenticated.
func getUserUUID(c *fiber.Ctx) *uuid.UUID {
	raw := c.Locals("user_id")
	if raw == nil {
		return nil
	}
	id, err := uuid.Parse(raw.(string))
	if err != nil {
		return nil
	}
	return &id
}

// Helper untuk parse UUID dari string
func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// respondError maps service errors to HTTP responses. Internal errors never
// leak their cause to the client.
func respondError(c *fiber.Ctx, err error) error {
	code := apperr.StatusCode(err)
	if code == 500 {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// GetStocks returns stock records with optional filters
// GET /api/v1/stock
func (h *InventoryHandler) GetStocks(c *fiber.Ctx) error {
	filters := repository.StockFilters{
		Search:     c.Query("search"),
		LowStock:   c.Query("low_stock") == "true",
		OutOfStock: c.Query("out_of_stock") == "true",
		HasStock:   c.Query("has_stock") == "true",
		Location:   c.Query("location"),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 20),
	}

	if raw := c.Query("category_id"); raw != "" {
		categoryID, err := parseUUID(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid category ID"})
		}
		filters.CategoryID = &categoryID
	}

	records, total, err := h.stockService.List(filters)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"data":  records,
		"total": total,
		"page":  filters.Page,
		"limit": filters.Limit,
	})
}

// GetStock returns the stock record for one product
// GET /api/v1/stock/:productId
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("productId"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	record, err := h.stockService.Get(productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(record)
}

// CreateStock starts inventory tracking for a product
// POST /api/v1/stock
func (h *InventoryHandler) CreateStock(c *fiber.Ctx) error {
	var req service.CreateStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	record, err := h.stockService.CreateForProduct(&req, getUserUUID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Stock record created", "data": record})
}

// UpdateThresholds sets min/max stock for a product
// PUT /api/v1/stock/:productId/thresholds
func (h *InventoryHandler) UpdateThresholds(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("productId"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req struct {
		MinStock int  `json:"min_stock"`
		MaxStock *int `json:"max_stock"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	record, err := h.stockService.SetThresholds(productID, req.MinStock, req.MaxStock)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Thresholds updated", "data": record})
}

// UpdateLocation sets the storage location for a product
// PUT /api/v1/stock/:productId/location
func (h *InventoryHandler) UpdateLocation(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("productId"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req struct {
		Location *string `json:"location"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	record, err := h.stockService.SetLocation(productID, req.Location)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Location updated", "data": record})
}

// CheckStock is a lightweight availability lookup for one product
// GET /api/v1/stock/:productId/check
func (h *InventoryHandler) CheckStock(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("productId"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	resp, err := h.stockService.CheckStock(productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GetStats returns aggregate inventory statistics
// GET /api/v1/stock/stats
func (h *InventoryHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.stockService.Stats()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// PreviewAdjustment computes current/new/delta without writing anything
// POST /api/v1/stock/adjust/preview
func (h *InventoryHandler) PreviewAdjustment(c *fiber.Ctx) error {
	var req service.AdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	preview, err := h.adjustmentService.Preview(&req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(preview)
}

// ConfirmAdjustment applies a previously previewed adjustment
// POST /api/v1/stock/adjust
func (h *InventoryHandler) ConfirmAdjustment(c *fiber.Ctx) error {
	var req service.AdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	entry, record, err := h.adjustmentService.Adjust(&req, getUserUUID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message":  "Stock adjusted",
		"movement": entry,
		"stock":    record,
	})
}

// GetMovements returns the ledger for one product, newest first
// GET /api/v1/stock/:productId/movements
func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Params("productId"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	filters := repository.MovementFilters{
		Type:  model.MovementType(c.Query("type")),
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 20),
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 || filters.Limit > 100 {
		filters.Limit = 20
	}

	if raw := c.Query("user_id"); raw != "" {
		userID, err := parseUUID(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
		}
		filters.UserID = &userID
	}
	if raw := c.Query("sale_id"); raw != "" {
		saleID, err := parseUUID(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
		}
		filters.SaleID = &saleID
	}
	if raw := c.Query("date_from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid date_from, use RFC3339"})
		}
		filters.DateFrom = &t
	}
	if raw := c.Query("date_to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid date_to, use RFC3339"})
		}
		filters.DateTo = &t
	}

	entries, total, err := h.ledger.ListByProduct(productID, filters)
	if err != nil {
		return respondError(c, err)
	}

	pages := int((total + int64(filters.Limit) - 1) / int64(filters.Limit))
	return c.JSON(fiber.Map{
		"data":     entries,
		"total":    total,
		"page":     filters.Page,
		"limit":    filters.Limit,
		"pages":    pages,
		"has_next": filters.Page < pages,
		"has_prev": filters.Page > 1,
	})
}

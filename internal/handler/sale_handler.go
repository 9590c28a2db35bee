package handler

import (
	"comercial-stock-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SaleHandler struct {
	saleService    service.SaleService
	stockValidator service.StockValidatorService
}

func NewSaleHandler(saleService service.SaleService, stockValidator service.StockValidatorService) *SaleHandler {
	return &SaleHandler{saleService: saleService, stockValidator: stockValidator}
}

// CreateSale creates a PENDING sale. Stock is only deducted on completion.
// POST /api/v1/sales
func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var req service.CreateSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	userID := getUserUUID(c)
	if userID == nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	sale, err := h.saleService.Create(&req, *userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Sale created", "data": sale})
}

// CompleteSale deducts stock for every item and marks the sale COMPLETED
// POST /api/v1/sales/:id/complete
func (h *SaleHandler) CompleteSale(c *fiber.Ctx) error {
	saleID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}

	userID := getUserUUID(c)
	if userID == nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	sale, err := h.saleService.Complete(saleID, *userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Sale completed", "data": sale})
}

// CancelSale cancels a sale, restocking items if it was already completed
// POST /api/v1/sales/:id/cancel
func (h *SaleHandler) CancelSale(c *fiber.Ctx) error {
	saleID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}

	userID := getUserUUID(c)
	if userID == nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	sale, err := h.saleService.Cancel(saleID, *userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Sale cancelled", "data": sale})
}

func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	sales, total, err := h.saleService.List(page, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"data":  sales,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	saleID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}

	sale, err := h.saleService.GetByID(saleID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sale)
}

// ValidateStock checks availability for a batch of items without reserving
// anything. Always 200; the verdict is in the response body.
// POST /api/v1/sales/validate-stock
func (h *SaleHandler) ValidateStock(c *fiber.Ctx) error {
	var req struct {
		Items []service.ValidateItem `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.stockValidator.Validate(req.Items)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

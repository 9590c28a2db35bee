package service

import (
	"fmt"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"
	"comercial-stock-backend/internal/repository"

	"github.com/google/uuid"
)

type ValidateItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type ItemValidationResult struct {
	ProductID         uuid.UUID `json:"product_id"`
	ProductName       string    `json:"product_name,omitempty"`
	ProductCode       string    `json:"product_code,omitempty"`
	IsValid           bool      `json:"is_valid"`
	RequestedQuantity int       `json:"requested_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	Shortfall         int       `json:"shortfall,omitempty"`
	Error             string    `json:"error,omitempty"`
}

type ValidationSummary struct {
	CanProceed bool   `json:"can_proceed"`
	Message    string `json:"message"`
}

type StockValidationResult struct {
	IsValid      bool                   `json:"is_valid"`
	TotalItems   int                    `json:"total_items"`
	ValidItems   int                    `json:"valid_items"`
	InvalidItems int                    `json:"invalid_items"`
	Results      []ItemValidationResult `json:"validation_results"`
	Summary      ValidationSummary      `json:"summary"`
}

// StockValidatorService answers "can this sale be fulfilled right now".
// It is purely advisory: it never mutates stock and never reserves anything.
// The authoritative check happens again at commit time under the row lock,
// because stock can change between validation and confirmation.
type StockValidatorService interface {
	Validate(items []ValidateItem) (*StockValidationResult, error)
}

type stockValidatorService struct {
	productRepo repository.ProductRepository
}

func NewStockValidatorService(productRepo repository.ProductRepository) StockValidatorService {
	return &stockValidatorService{productRepo: productRepo}
}

func (s *stockValidatorService) Validate(items []ValidateItem) (*StockValidationResult, error) {
	if len(items) == 0 {
		return nil, apperr.Validationf("no items to validate")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperr.Validationf("requested quantity must be greater than zero")
		}
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := s.productRepo.FindActiveByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	results := make([]ItemValidationResult, 0, len(items))
	invalid := 0
	for _, item := range items {
		result := s.validateItem(item, byID[item.ProductID])
		if !result.IsValid {
			invalid++
		}
		results = append(results, result)
	}

	allValid := invalid == 0
	message := "all items have sufficient stock"
	if !allValid {
		message = fmt.Sprintf("%d item(s) cannot be fulfilled", invalid)
	}

	return &StockValidationResult{
		IsValid:      allValid,
		TotalItems:   len(items),
		ValidItems:   len(items) - invalid,
		InvalidItems: invalid,
		Results:      results,
		Summary: ValidationSummary{
			CanProceed: allValid,
			Message:    message,
		},
	}, nil
}

func (s *stockValidatorService) validateItem(item ValidateItem, product *model.Product) ItemValidationResult {
	if product == nil {
		return ItemValidationResult{
			ProductID:         item.ProductID,
			IsValid:           false,
			Error:             "product not found or inactive",
			RequestedQuantity: item.Quantity,
			AvailableQuantity: 0,
		}
	}

	if product.StockRecord == nil {
		return ItemValidationResult{
			ProductID:         item.ProductID,
			ProductName:       product.Name,
			ProductCode:       product.Code,
			IsValid:           false,
			Error:             "product has no inventory tracking",
			RequestedQuantity: item.Quantity,
			AvailableQuantity: 0,
		}
	}

	available := product.StockRecord.Quantity
	result := ItemValidationResult{
		ProductID:         item.ProductID,
		ProductName:       product.Name,
		ProductCode:       product.Code,
		IsValid:           available >= item.Quantity,
		RequestedQuantity: item.Quantity,
		AvailableQuantity: available,
	}
	if !result.IsValid {
		result.Error = "insufficient stock"
		result.Shortfall = item.Quantity - available
	}
	return result
}

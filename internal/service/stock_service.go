package service

import (
	"encoding/json"
	"fmt"
	"sort"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"
	"comercial-stock-backend/internal/repository"
	"comercial-stock-backend/internal/ws"
	"comercial-stock-backend/pkg/validator"

	"github.com/google/uuid"
)

type CreateStockRequest struct {
	ProductID       uuid.UUID `json:"product_id" validate:"uuid_required"`
	InitialQuantity int       `json:"initial_quantity" validate:"gte=0"`
	MinStock        int       `json:"min_stock" validate:"gte=0"`
	MaxStock        *int      `json:"max_stock,omitempty"`
	Location        *string   `json:"location,omitempty"`
}

type StockCheckResponse struct {
	Available  bool `json:"available"`
	Quantity   int  `json:"quantity"`
	IsLowStock bool `json:"is_low_stock"`
}

type TopProduct struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Value       int64     `json:"value"`
}

type InventoryStats struct {
	TotalProducts   int64                 `json:"total_products"`
	TotalValue      int64                 `json:"total_value"`
	LowStockCount   int64                 `json:"low_stock_count"`
	OutOfStockCount int64                 `json:"out_of_stock_count"`
	AverageStock    float64               `json:"average_stock"`
	TopProducts     []TopProduct          `json:"top_products"`
	RecentMovements []model.MovementEntry `json:"recent_movements"`
}

type StockService interface {
	Get(productID uuid.UUID) (*model.StockRecord, error)
	List(f repository.StockFilters) ([]model.StockRecord, int64, error)
	CreateForProduct(req *CreateStockRequest, userID *uuid.UUID) (*model.StockRecord, error)
	SetThresholds(productID uuid.UUID, minStock int, maxStock *int) (*model.StockRecord, error)
	SetLocation(productID uuid.UUID, location *string) (*model.StockRecord, error)
	CheckStock(productID uuid.UUID) (*StockCheckResponse, error)
	Stats() (*InventoryStats, error)
}

type stockService struct {
	stockRepo    repository.StockRepository
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	ledger       LedgerService
	wsHub        *ws.Hub
}

func NewStockService(stockRepo repository.StockRepository, productRepo repository.ProductRepository, movementRepo repository.MovementRepository, ledger LedgerService, hub *ws.Hub) StockService {
	return &stockService{
		stockRepo:    stockRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		ledger:       ledger,
		wsHub:        hub,
	}
}

func (s *stockService) Get(productID uuid.UUID) (*model.StockRecord, error) {
	return s.stockRepo.FindByProductID(productID)
}

func (s *stockService) List(f repository.StockFilters) ([]model.StockRecord, int64, error) {
	return s.stockRepo.FindAll(f)
}

// CreateForProduct starts inventory tracking for a product. The record is
// created empty; a non-zero initial quantity goes through the ledger as an IN
// movement so the quantity stays derivable from the movement history.
func (s *stockService) CreateForProduct(req *CreateStockRequest, userID *uuid.UUID) (*model.StockRecord, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.Validationf("field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if req.MaxStock != nil && *req.MaxStock <= req.MinStock {
		return nil, apperr.Validationf("max stock must be greater than min stock")
	}

	product, err := s.productRepo.FindByID(req.ProductID)
	if err != nil {
		return nil, apperr.NotFoundf("product %s", req.ProductID)
	}
	if !product.IsActive {
		return nil, apperr.Validationf("product %s is inactive", req.ProductID)
	}

	record := &model.StockRecord{
		ProductID: req.ProductID,
		Quantity:  0,
		MinStock:  req.MinStock,
		MaxStock:  req.MaxStock,
		Location:  req.Location,
	}
	if err := s.stockRepo.Create(record); err != nil {
		return nil, err
	}

	if req.InitialQuantity > 0 {
		reason := "initial stock"
		_, updated, err := s.ledger.Append(AppendInput{
			ProductID: req.ProductID,
			Type:      model.MovementIn,
			Quantity:  req.InitialQuantity,
			Reason:    &reason,
			UserID:    userID,
		})
		if err != nil {
			return nil, fmt.Errorf("record created but initial stock failed: %w", err)
		}
		record = updated
	}

	return record, nil
}

func (s *stockService) SetThresholds(productID uuid.UUID, minStock int, maxStock *int) (*model.StockRecord, error) {
	if minStock < 0 {
		return nil, apperr.Validationf("min stock cannot be negative")
	}
	if maxStock != nil && *maxStock <= minStock {
		return nil, apperr.Validationf("max stock must be greater than min stock")
	}

	record, err := s.stockRepo.UpdateThresholds(productID, minStock, maxStock)
	if err != nil {
		return nil, err
	}

	if s.wsHub != nil {
		go func() {
			payload := map[string]interface{}{
				"type":   "stock_update",
				"action": "thresholds_updated",
				"stock": map[string]interface{}{
					"product_id": productID,
					"min_stock":  minStock,
					"max_stock":  maxStock,
				},
			}
			msg, _ := json.Marshal(payload)
			s.wsHub.Broadcast <- msg
		}()
	}
	return record, nil
}

func (s *stockService) SetLocation(productID uuid.UUID, location *string) (*model.StockRecord, error) {
	return s.stockRepo.UpdateLocation(productID, location)
}

func (s *stockService) CheckStock(productID uuid.UUID) (*StockCheckResponse, error) {
	record, err := s.stockRepo.FindByProductID(productID)
	if err != nil {
		return nil, err
	}
	return &StockCheckResponse{
		Available:  record.Quantity > 0,
		Quantity:   record.Quantity,
		IsLowStock: record.IsLowStock(),
	}, nil
}

func (s *stockService) Stats() (*InventoryStats, error) {
	counts, err := s.stockRepo.Counts()
	if err != nil {
		return nil, err
	}

	totalValue, err := s.stockRepo.TotalValuation()
	if err != nil {
		return nil, err
	}

	records, err := s.stockRepo.FindAllWithProduct()
	if err != nil {
		return nil, err
	}

	var totalQuantity int
	top := make([]TopProduct, 0, len(records))
	for _, r := range records {
		totalQuantity += r.Quantity
		if r.Product == nil {
			continue
		}
		top = append(top, TopProduct{
			ProductID:   r.ProductID,
			ProductName: r.Product.Name,
			Quantity:    r.Quantity,
			Value:       int64(r.Quantity) * r.Product.Price,
		})
	}
	sort.Slice(top, func(i, j int) bool { return top[i].Value > top[j].Value })
	if len(top) > 10 {
		top = top[:10]
	}

	averageStock := 0.0
	if counts.TotalProducts > 0 {
		averageStock = float64(totalQuantity) / float64(counts.TotalProducts)
	}

	recent, err := s.movementRepo.FindRecent(10)
	if err != nil {
		return nil, err
	}

	return &InventoryStats{
		TotalProducts:   counts.TotalProducts,
		TotalValue:      totalValue,
		LowStockCount:   counts.LowStock,
		OutOfStockCount: counts.OutOfStock,
		AverageStock:    averageStock,
		TopProducts:     top,
		RecentMovements: recent,
	}, nil
}

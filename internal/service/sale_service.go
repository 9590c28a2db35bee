package service

import (
	"encoding/json"
	"fmt"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"
	"comercial-stock-backend/internal/repository"
	"comercial-stock-backend/internal/ws"
	"comercial-stock-backend/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateSaleRequest struct {
	Items []ValidateItem `json:"items" validate:"required,min=1,dive"`
	Notes string         `json:"notes"`
}

// SaleService drives the checkout flow against the inventory core: an
// advisory stock validation at creation time, then the authoritative
// deduction through the ledger when the sale is completed.
type SaleService interface {
	Create(req *CreateSaleRequest, userID uuid.UUID) (*model.Sale, error)
	Complete(saleID uuid.UUID, userID uuid.UUID) (*model.Sale, error)
	Cancel(saleID uuid.UUID, userID uuid.UUID) (*model.Sale, error)
	GetByID(saleID uuid.UUID) (*model.Sale, error)
	List(page, limit int) ([]model.Sale, int64, error)
}

type saleService struct {
	db             Transactor
	saleRepo       repository.SaleRepository
	productRepo    repository.ProductRepository
	ledger         LedgerService
	stockValidator StockValidatorService
	wsHub          *ws.Hub
}

func NewSaleService(db Transactor, saleRepo repository.SaleRepository, productRepo repository.ProductRepository, ledger LedgerService, stockValidator StockValidatorService, hub *ws.Hub) SaleService {
	return &saleService{
		db:             db,
		saleRepo:       saleRepo,
		productRepo:    productRepo,
		ledger:         ledger,
		stockValidator: stockValidator,
		wsHub:          hub,
	}
}

func (s *saleService) Create(req *CreateSaleRequest, userID uuid.UUID) (*model.Sale, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.Validationf("field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// Advisory check only. Stock is not reserved; the real deduction
	// happens at completion and may still fail there.
	result, err := s.stockValidator.Validate(req.Items)
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		return nil, apperr.Validationf("%s", result.Summary.Message)
	}

	ids := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.ProductID
	}
	products, err := s.productRepo.FindActiveByIDs(ids)
	if err != nil {
		return nil, err
	}
	priceByID := make(map[uuid.UUID]int64, len(products))
	for _, p := range products {
		priceByID[p.ID] = p.Price
	}

	sale := &model.Sale{
		Status: model.SalePending,
		Notes:  req.Notes,
		UserID: &userID,
	}
	for _, item := range req.Items {
		// The product can go inactive between the advisory check and the
		// price lookup; never snapshot a zero price for it.
		price, ok := priceByID[item.ProductID]
		if !ok {
			return nil, apperr.Validationf("product %s is no longer available", item.ProductID)
		}
		lineTotal := price * int64(item.Quantity)
		sale.Items = append(sale.Items, model.SaleItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: price,
			Total:     lineTotal,
		})
		sale.Total += lineTotal
	}
	sale.CreatedBy = userID.String()
	sale.UpdatedBy = userID.String()

	if err := s.saleRepo.Create(sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// Complete flips the sale to COMPLETED and deducts stock, all in one
// transaction: one OUT ledger entry per item, each linked to the sale. An
// insufficient-stock failure on any item rolls everything back and surfaces
// as a recoverable conflict ("stock changed, please retry"), never a 500.
func (s *saleService) Complete(saleID uuid.UUID, userID uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status != model.SalePending {
		return nil, apperr.Validationf("sale %s is %s, only pending sales can be completed", saleID, sale.Status)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range sale.Items {
			if _, _, err := s.ledger.AppendTx(tx, AppendInput{
				ProductID: item.ProductID,
				Type:      model.MovementOut,
				Quantity:  item.Quantity,
				UserID:    &userID,
				SaleID:    &sale.ID,
			}); err != nil {
				return err
			}
		}
		return s.saleRepo.UpdateStatus(tx, sale.ID, model.SaleCompleted)
	})
	if err != nil {
		return nil, err
	}

	sale.Status = model.SaleCompleted
	s.broadcastSale(sale, "sale_completed")
	return sale, nil
}

// Cancel reverses a completed sale by appending compensating IN entries; the
// original OUT entries stay in the ledger untouched.
func (s *saleService) Cancel(saleID uuid.UUID, userID uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(saleID)
	if err != nil {
		return nil, err
	}

	switch sale.Status {
	case model.SaleCancelled:
		return nil, apperr.Validationf("sale %s is already cancelled", saleID)
	case model.SalePending:
		if err := s.db.Transaction(func(tx *gorm.DB) error {
			return s.saleRepo.UpdateStatus(tx, sale.ID, model.SaleCancelled)
		}); err != nil {
			return nil, err
		}
	case model.SaleCompleted:
		err = s.db.Transaction(func(tx *gorm.DB) error {
			reason := fmt.Sprintf("sale %s cancelled", sale.ID)
			for _, item := range sale.Items {
				if _, _, err := s.ledger.AppendTx(tx, AppendInput{
					ProductID: item.ProductID,
					Type:      model.MovementIn,
					Quantity:  item.Quantity,
					Reason:    &reason,
					UserID:    &userID,
					SaleID:    &sale.ID,
				}); err != nil {
					return err
				}
			}
			return s.saleRepo.UpdateStatus(tx, sale.ID, model.SaleCancelled)
		})
		if err != nil {
			return nil, err
		}
	}

	sale.Status = model.SaleCancelled
	s.broadcastSale(sale, "sale_cancelled")
	return sale, nil
}

func (s *saleService) GetByID(saleID uuid.UUID) (*model.Sale, error) {
	return s.saleRepo.FindByID(saleID)
}

func (s *saleService) List(page, limit int) ([]model.Sale, int64, error) {
	return s.saleRepo.FindAll(page, limit)
}

func (s *saleService) broadcastSale(sale *model.Sale, action string) {
	if s.wsHub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":   "stock_update",
			"action": action,
			"sale": map[string]interface{}{
				"id":     sale.ID,
				"status": sale.Status,
				"total":  sale.Total,
				"items":  len(sale.Items),
			},
		}
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}

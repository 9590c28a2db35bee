package service

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"
	"comercial-stock-backend/internal/repository"
	"comercial-stock-backend/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	reasonMinLen = 3
	reasonMaxLen = 500
)

// Transactor runs a function inside one database transaction. *gorm.DB
// satisfies it; tests substitute an in-memory implementation.
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// AppendInput describes one ledger entry to record. Quantity is the positive
// magnitude for IN/OUT and the signed delta for ADJUSTMENT.
type AppendInput struct {
	ProductID uuid.UUID
	Type      model.MovementType
	Quantity  int
	Reason    *string
	UserID    *uuid.UUID
	SaleID    *uuid.UUID
}

type LedgerService interface {
	// Append records one movement and updates the stock record in the same
	// transaction. The ledger and the cached quantity never diverge.
	Append(input AppendInput) (*model.MovementEntry, *model.StockRecord, error)

	// AppendTx is Append inside an already-open transaction, for callers
	// that bundle several appends with their own writes (sale completion).
	AppendTx(tx *gorm.DB, input AppendInput) (*model.MovementEntry, *model.StockRecord, error)

	ListByProduct(productID uuid.UUID, f repository.MovementFilters) ([]model.MovementEntry, int64, error)
}

type ledgerService struct {
	db           Transactor
	stockRepo    repository.StockRepository
	movementRepo repository.MovementRepository
	wsHub        *ws.Hub
}

func NewLedgerService(db Transactor, stockRepo repository.StockRepository, movementRepo repository.MovementRepository, hub *ws.Hub) LedgerService {
	return &ledgerService{
		db:           db,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		wsHub:        hub,
	}
}

// validateAppendInput enforces the ledger write contract before any mutation.
func validateAppendInput(input AppendInput) error {
	switch input.Type {
	case model.MovementIn, model.MovementOut:
		if input.Quantity <= 0 {
			return apperr.Validationf("quantity must be greater than zero for %s movements", input.Type)
		}
	case model.MovementAdjustment:
		if input.Quantity == 0 {
			return apperr.Validationf("adjustment delta cannot be zero")
		}
		if input.Reason == nil || *input.Reason == "" {
			return apperr.Validationf("reason is required for adjustments")
		}
	default:
		return apperr.Validationf("invalid movement type %q", input.Type)
	}

	if input.Reason != nil && *input.Reason != "" {
		if n := len(*input.Reason); n < reasonMinLen || n > reasonMaxLen {
			return apperr.Validationf("reason must be between %d and %d characters", reasonMinLen, reasonMaxLen)
		}
	}

	return nil
}

func (s *ledgerService) Append(input AppendInput) (*model.MovementEntry, *model.StockRecord, error) {
	var entry *model.MovementEntry
	var record *model.StockRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, record, err = s.AppendTx(tx, input)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.broadcastStockUpdate(entry, record)
	return entry, record, nil
}

func (s *ledgerService) AppendTx(tx *gorm.DB, input AppendInput) (*model.MovementEntry, *model.StockRecord, error) {
	if err := validateAppendInput(input); err != nil {
		return nil, nil, err
	}

	entry := &model.MovementEntry{
		ProductID: input.ProductID,
		Type:      input.Type,
		Quantity:  input.Quantity,
		Reason:    input.Reason,
		UserID:    input.UserID,
		SaleID:    input.SaleID,
	}

	delta := entry.SignedEffect()
	record, err := s.stockRepo.ApplyDelta(tx, input.ProductID, delta)
	if err != nil {
		// Attach the operation context so callers can build a useful message.
		return nil, nil, fmt.Errorf("ledger append for product %s (delta %+d): %w", input.ProductID, delta, err)
	}

	if err := s.movementRepo.Create(tx, entry); err != nil {
		return nil, nil, fmt.Errorf("ledger append for product %s: %w", input.ProductID, err)
	}

	return entry, record, nil
}

func (s *ledgerService) ListByProduct(productID uuid.UUID, f repository.MovementFilters) ([]model.MovementEntry, int64, error) {
	if _, err := s.stockRepo.FindByProductID(productID); err != nil {
		return nil, 0, err
	}
	return s.movementRepo.ListByProduct(productID, f)
}

func (s *ledgerService) broadcastStockUpdate(entry *model.MovementEntry, record *model.StockRecord) {
	if s.wsHub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":   "stock_update",
			"action": "movement_recorded",
			"movement": map[string]interface{}{
				"id":         entry.ID,
				"seq":        entry.Seq,
				"product_id": entry.ProductID,
				"type":       entry.Type,
				"quantity":   entry.Quantity,
			},
			"stock": map[string]interface{}{
				"product_id":   record.ProductID,
				"new_quantity": record.Quantity,
				"min_stock":    record.MinStock,
			},
		}
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}

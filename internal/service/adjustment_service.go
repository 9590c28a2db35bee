package service

import (
	"encoding/json"
	"fmt"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"
	"comercial-stock-backend/internal/repository"
	"comercial-stock-backend/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdjustmentRequest struct {
	ProductID   uuid.UUID              `json:"product_id" validate:"uuid_required"`
	NewQuantity int                    `json:"new_quantity" validate:"gte=0"`
	ReasonCode  model.AdjustmentReason `json:"reason_code" validate:"required"`
	Notes       string                 `json:"notes"`
}

// AdjustmentPreview is the first step of the two-step confirmation: the caller
// sees current/new/delta and must explicitly confirm before anything is
// written.
type AdjustmentPreview struct {
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name,omitempty"`
	CurrentQuantity int       `json:"current_quantity"`
	NewQuantity     int       `json:"new_quantity"`
	Delta           int       `json:"delta"`
	Reason          string    `json:"reason"`
	ReasonLabel     string    `json:"reason_label"`
}

type AdjustmentService interface {
	Preview(req *AdjustmentRequest) (*AdjustmentPreview, error)
	Adjust(req *AdjustmentRequest, userID *uuid.UUID) (*model.MovementEntry, *model.StockRecord, error)
}

type adjustmentService struct {
	db        Transactor
	stockRepo repository.StockRepository
	ledger    LedgerService
	wsHub     *ws.Hub
}

func NewAdjustmentService(db Transactor, stockRepo repository.StockRepository, ledger LedgerService, hub *ws.Hub) AdjustmentService {
	return &adjustmentService{db: db, stockRepo: stockRepo, ledger: ledger, wsHub: hub}
}

// buildReason produces the stored reason text: "CODE: notes" when notes are
// present, else just the code.
func buildReason(code model.AdjustmentReason, notes string) string {
	if notes != "" {
		return fmt.Sprintf("%s: %s", code, notes)
	}
	return string(code)
}

func (s *adjustmentService) validate(req *AdjustmentRequest) error {
	if !req.ReasonCode.Valid() {
		return apperr.Validationf("unknown adjustment reason code %q", req.ReasonCode)
	}
	if req.NewQuantity < 0 {
		return apperr.Validationf("new quantity cannot be negative")
	}
	if len(buildReason(req.ReasonCode, req.Notes)) > reasonMaxLen {
		return apperr.Validationf("notes too long, reason must stay under %d characters", reasonMaxLen)
	}
	return nil
}

func (s *adjustmentService) Preview(req *AdjustmentRequest) (*AdjustmentPreview, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	record, err := s.stockRepo.FindByProductID(req.ProductID)
	if err != nil {
		return nil, err
	}

	delta := req.NewQuantity - record.Quantity
	if delta == 0 {
		return nil, fmt.Errorf("%w: quantity is already %d", apperr.ErrNoOpAdjustment, record.Quantity)
	}

	preview := &AdjustmentPreview{
		ProductID:       req.ProductID,
		CurrentQuantity: record.Quantity,
		NewQuantity:     req.NewQuantity,
		Delta:           delta,
		Reason:          buildReason(req.ReasonCode, req.Notes),
		ReasonLabel:     req.ReasonCode.Label(),
	}
	if record.Product != nil {
		preview.ProductName = record.Product.Name
	}
	return preview, nil
}

// Adjust is the confirmed, final step. The delta is recomputed under the
// product row lock; preview numbers may be stale by the time the user
// confirms, and the stored entry reflects the real delta at commit time.
func (s *adjustmentService) Adjust(req *AdjustmentRequest, userID *uuid.UUID) (*model.MovementEntry, *model.StockRecord, error) {
	if err := s.validate(req); err != nil {
		return nil, nil, err
	}

	var entry *model.MovementEntry
	var record *model.StockRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.stockRepo.GetForUpdate(tx, req.ProductID)
		if err != nil {
			return err
		}

		delta := req.NewQuantity - current.Quantity
		if delta == 0 {
			return fmt.Errorf("%w: quantity is already %d", apperr.ErrNoOpAdjustment, current.Quantity)
		}

		reason := buildReason(req.ReasonCode, req.Notes)
		entry, record, err = s.ledger.AppendTx(tx, AppendInput{
			ProductID: req.ProductID,
			Type:      model.MovementAdjustment,
			Quantity:  delta,
			Reason:    &reason,
			UserID:    userID,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.broadcastAdjustment(entry, record)
	return entry, record, nil
}

func (s *adjustmentService) broadcastAdjustment(entry *model.MovementEntry, record *model.StockRecord) {
	if s.wsHub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":   "stock_update",
			"action": "stock_adjusted",
			"adjustment": map[string]interface{}{
				"product_id":   entry.ProductID,
				"delta":        entry.Quantity,
				"reason":       entry.Reason,
				"new_quantity": record.Quantity,
			},
		}
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}

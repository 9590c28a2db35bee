package model

import (
	"time"

	"github.com/google/uuid"
)

// StockRecord is the per-product quantity of record. One row per product.
// Quantity is only ever written through the movement ledger append path, so it
// always equals the signed sum of all MovementEntry rows for the product.
type StockRecord struct {
	BaseModel
	ProductID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"product_id" validate:"uuid_required"`
	Product    *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty" validate:"-"`
	Quantity   int       `gorm:"not null;default:0" json:"quantity" validate:"gte=0"`
	MinStock   int       `gorm:"not null;default:10" json:"min_stock" validate:"gte=0"`
	MaxStock   *int      `json:"max_stock,omitempty"`
	Location   *string   `gorm:"type:varchar(100)" json:"location,omitempty"`
	LastUpdate time.Time `gorm:"not null" json:"last_update"`
}

func (s *StockRecord) IsLowStock() bool {
	return s.Quantity <= s.MinStock
}

func (s *StockRecord) IsOutOfStock() bool {
	return s.Quantity == 0
}

// SuggestedReorder is the replenishment quantity offered to the purchase-order
// UI: fill back up to MaxStock when set, else twice the reorder threshold.
func (s *StockRecord) SuggestedReorder() int {
	if s.MaxStock != nil {
		return *s.MaxStock
	}
	return 2 * s.MinStock
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementIn         MovementType = "IN"
	MovementOut        MovementType = "OUT"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// MovementEntry is one immutable row in the stock ledger. Entries are never
// updated or deleted; corrections are new entries. No BaseModel here: the
// ledger has no soft delete and no UpdatedAt.
//
// Quantity is the stored magnitude for IN/OUT (direction comes from Type) and
// the signed delta for ADJUSTMENT. Seq is a bigserial assigned by Postgres at
// insert, inside the same transaction that holds the stock row lock, so seq
// order matches commit order per product.
type MovementEntry struct {
	ID        uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	Seq       int64        `gorm:"autoIncrement;uniqueIndex" json:"seq"`
	ProductID uuid.UUID    `gorm:"type:uuid;not null;index" json:"product_id" validate:"uuid_required"`
	Product   *Product     `gorm:"foreignKey:ProductID" json:"product,omitempty" validate:"-"`
	Type      MovementType `gorm:"type:varchar(12);not null" json:"type" validate:"required,oneof=IN OUT ADJUSTMENT"`
	Quantity  int          `gorm:"not null" json:"quantity"`
	Reason    *string      `gorm:"type:varchar(500)" json:"reason,omitempty"`
	UserID    *uuid.UUID   `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User      *User        `gorm:"foreignKey:UserID" json:"user,omitempty" validate:"-"`
	SaleID    *uuid.UUID   `gorm:"type:uuid;index" json:"sale_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func (m *MovementEntry) BeforeCreate(tx *gorm.DB) (err error) {
	m.ID = uuid.New()
	return
}

// SignedEffect returns the entry's effect on the stock quantity.
func (m *MovementEntry) SignedEffect() int {
	switch m.Type {
	case MovementIn:
		return m.Quantity
	case MovementOut:
		return -m.Quantity
	default:
		return m.Quantity
	}
}

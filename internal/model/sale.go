package model

import "github.com/google/uuid"

type SaleStatus string

const (
	SalePending   SaleStatus = "PENDING"
	SaleCompleted SaleStatus = "COMPLETED"
	SaleCancelled SaleStatus = "CANCELLED"
)

type Sale struct {
	BaseModel
	Status SaleStatus `gorm:"type:varchar(12);not null;default:PENDING" json:"status"`
	Total  int64      `gorm:"not null;default:0" json:"total"`
	Notes  string     `json:"notes"`

	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User   *User      `gorm:"foreignKey:UserID" json:"user,omitempty" validate:"-"`

	Items []SaleItem `json:"items,omitempty" validate:"required,min=1,dive"`
}

type SaleItem struct {
	BaseModel
	SaleID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id" validate:"uuid_required"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty" validate:"-"`
	Quantity  int       `gorm:"not null" json:"quantity" validate:"required,gt=0"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"` // Snapshot of product price
	Total     int64     `gorm:"not null" json:"total"`
}

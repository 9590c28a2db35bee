package model

import "github.com/google/uuid"

type Product struct {
	BaseModel
	Code       string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"code" validate:"required"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Price      int64      `gorm:"default:0" json:"price"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category  `json:"category,omitempty" validate:"-"`

	// Relasi
	StockRecord *StockRecord `gorm:"foreignKey:ProductID" json:"stock_record,omitempty" validate:"-"`
}

type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name" validate:"required"`
	Description string `gorm:"type:varchar(255)" json:"description"`
}

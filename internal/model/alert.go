package model

import "github.com/google/uuid"

type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "CRITICAL"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyMedium   UrgencyLevel = "MEDIUM"
	UrgencyLow      UrgencyLevel = "LOW"
)

// rank for most-urgent-first sorting
var urgencyRank = map[UrgencyLevel]int{
	UrgencyCritical: 0,
	UrgencyHigh:     1,
	UrgencyMedium:   2,
	UrgencyLow:      3,
}

func (u UrgencyLevel) Rank() int {
	return urgencyRank[u]
}

// StockAlert is derived, never persisted. DaysUntilOutOfStock is nil when
// there is no sales velocity (never Infinity, never a division by zero).
type StockAlert struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	ProductCode  string    `json:"product_code"`
	CategoryName string    `json:"category_name,omitempty"`

	CurrentStock int  `json:"current_stock"`
	MinStock     int  `json:"min_stock"`
	MaxStock     *int `json:"max_stock,omitempty"`

	SalesLast30Days     int          `json:"sales_last_30_days"`
	AverageDailySales   float64      `json:"average_daily_sales"`
	DaysUntilOutOfStock *float64     `json:"days_until_out_of_stock,omitempty"`
	UrgencyLevel        UrgencyLevel `json:"urgency_level"`
	IsOutOfStock        bool         `json:"is_out_of_stock"`
	SuggestedReorder    int          `json:"suggested_reorder,omitempty"`
}

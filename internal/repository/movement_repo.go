package repository

import (
	"time"

	"comercial-stock-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementFilters narrows the ledger listing. Zero values mean "no filter".
type MovementFilters struct {
	Type     model.MovementType
	UserID   *uuid.UUID
	SaleID   *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}

// MovementChartData buckets ledger entries per day for the dashboard chart
type MovementChartData struct {
	Date        string `json:"date"`
	Inbound     int    `json:"inbound"`
	Outbound    int    `json:"outbound"`
	Adjustments int    `json:"adjustments"`
}

type MovementRepository interface {
	// Create inserts a ledger entry. It must be called with the transaction
	// that holds the stock row lock so seq order matches commit order.
	Create(tx *gorm.DB, entry *model.MovementEntry) error

	ListByProduct(productID uuid.UUID, f MovementFilters) ([]model.MovementEntry, int64, error)
	FindRecent(limit int) ([]model.MovementEntry, error)
	SumByProduct(productID uuid.UUID) (int, error)
	GetMovementChart(startDate, endDate time.Time) ([]MovementChartData, error)
}

type movementRepo struct {
	db *gorm.DB
}

func NewMovementRepo(db *gorm.DB) MovementRepository {
	return &movementRepo{db}
}

func (r *movementRepo) Create(tx *gorm.DB, entry *model.MovementEntry) error {
	return tx.Create(entry).Error
}

func (r *movementRepo) ListByProduct(productID uuid.UUID, f MovementFilters) ([]model.MovementEntry, int64, error) {
	q := r.db.Model(&model.MovementEntry{}).Where("product_id = ?", productID)

	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.SaleID != nil {
		q = q.Where("sale_id = ?", *f.SaleID)
	}
	if f.DateFrom != nil {
		q = q.Where("created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("created_at <= ?", *f.DateTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var entries []model.MovementEntry
	err := q.Preload("Product").Preload("User").
		Order("seq DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&entries).Error
	return entries, total, err
}

func (r *movementRepo) FindRecent(limit int) ([]model.MovementEntry, error) {
	var entries []model.MovementEntry
	err := r.db.Preload("Product").Preload("User").
		Order("seq DESC").Limit(limit).
		Find(&entries).Error
	return entries, err
}

// SumByProduct replays the ledger: the signed sum of all entries for a
// product. Used by tests and audits to check it equals the cached quantity.
func (r *movementRepo) SumByProduct(productID uuid.UUID) (int, error) {
	var sum int
	err := r.db.Model(&model.MovementEntry{}).
		Where("product_id = ?", productID).
		Select(`COALESCE(SUM(CASE
			WHEN type = 'IN' THEN quantity
			WHEN type = 'OUT' THEN -quantity
			ELSE quantity END), 0)`).
		Scan(&sum).Error
	return sum, err
}

func (r *movementRepo) GetMovementChart(startDate, endDate time.Time) ([]MovementChartData, error) {
	var results []MovementChartData

	rows, err := r.db.Model(&model.MovementEntry{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN type = 'OUT' THEN quantity ELSE 0 END), 0) as outbound,
			COALESCE(SUM(CASE WHEN type = 'ADJUSTMENT' THEN ABS(quantity) ELSE 0 END), 0) as adjustments
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data MovementChartData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound, &data.Adjustments); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}

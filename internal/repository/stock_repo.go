package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockFilters narrows the stock record listing (original dashboard filters).
type StockFilters struct {
	Search      string
	CategoryID  *uuid.UUID
	LowStock    bool
	OutOfStock  bool
	HasStock    bool
	Location    string
	MinQuantity *int
	MaxQuantity *int
	Page        int
	Limit       int
}

// StockCounts backs the dashboard alert badges.
type StockCounts struct {
	TotalProducts int64 `json:"total_products"`
	LowStock      int64 `json:"low_stock"`
	OutOfStock    int64 `json:"out_of_stock"`
}

type StockRepository interface {
	Create(record *model.StockRecord) error
	FindByProductID(productID uuid.UUID) (*model.StockRecord, error)
	FindAll(f StockFilters) ([]model.StockRecord, int64, error)
	FindAllWithProduct() ([]model.StockRecord, error)

	// GetForUpdate reads a stock record under the per-product row lock.
	// Callers that compute a delta from the current quantity use it so the
	// read and the subsequent ApplyDelta share one serialization point.
	GetForUpdate(tx *gorm.DB, productID uuid.UUID) (*model.StockRecord, error)

	// ApplyDelta is the single mutation path for quantities. It must run
	// inside the ledger append transaction: it takes the row lock, rejects
	// any delta that would drive the quantity negative and touches
	// last_update. Nothing else is allowed to write the quantity column.
	ApplyDelta(tx *gorm.DB, productID uuid.UUID, delta int) (*model.StockRecord, error)

	UpdateThresholds(productID uuid.UUID, minStock int, maxStock *int) (*model.StockRecord, error)
	UpdateLocation(productID uuid.UUID, location *string) (*model.StockRecord, error)
	Counts() (*StockCounts, error)
	TotalValuation() (int64, error)
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) Create(record *model.StockRecord) error {
	record.LastUpdate = time.Now()
	err := r.db.Create(record).Error
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return fmt.Errorf("%w: stock record for product %s", apperr.ErrAlreadyExists, record.ProductID)
	}
	return err
}

func (r *stockRepo) FindByProductID(productID uuid.UUID) (*model.StockRecord, error) {
	var record model.StockRecord
	err := r.db.Preload("Product").Preload("Product.Category").
		First(&record, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("no stock record for product %s", productID)
	}
	return &record, err
}

func (r *stockRepo) FindAll(f StockFilters) ([]model.StockRecord, int64, error) {
	q := r.db.Model(&model.StockRecord{}).
		Joins("JOIN products ON products.id = stock_records.product_id").
		Where("products.is_active = ?", true)

	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("products.name ILIKE ? OR products.code ILIKE ?", like, like)
	}
	if f.CategoryID != nil {
		q = q.Where("products.category_id = ?", *f.CategoryID)
	}
	if f.LowStock {
		q = q.Where("stock_records.quantity <= stock_records.min_stock")
	}
	if f.OutOfStock {
		q = q.Where("stock_records.quantity = 0")
	}
	if f.HasStock {
		q = q.Where("stock_records.quantity > 0")
	}
	if f.Location != "" {
		q = q.Where("stock_records.location ILIKE ?", "%"+f.Location+"%")
	}
	if f.MinQuantity != nil {
		q = q.Where("stock_records.quantity >= ?", *f.MinQuantity)
	}
	if f.MaxQuantity != nil {
		q = q.Where("stock_records.quantity <= ?", *f.MaxQuantity)
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

	var records []model.StockRecord
	err := q.Preload("Product").Preload("Product.Category").
		Order("products.name ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&records).Error
	return records, total, err
}

func (r *stockRepo) FindAllWithProduct() ([]model.StockRecord, error) {
	var records []model.StockRecord
	err := r.db.Preload("Product").Preload("Product.Category").
		Joins("JOIN products ON products.id = stock_records.product_id").
		Where("products.is_active = ?", true).
		Find(&records).Error
	return records, err
}

func (r *stockRepo) GetForUpdate(tx *gorm.DB, productID uuid.UUID) (*model.StockRecord, error) {
	var record model.StockRecord
	// Pessimistic lock: the second committer blocks here until the first
	// transaction finishes, then sees the already-reduced quantity.
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&record, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("no stock record for product %s", productID)
		}
		return nil, err
	}
	return &record, nil
}

func (r *stockRepo) ApplyDelta(tx *gorm.DB, productID uuid.UUID, delta int) (*model.StockRecord, error) {
	record, err := r.GetForUpdate(tx, productID)
	if err != nil {
		return nil, err
	}

	newQuantity := record.Quantity + delta
	if newQuantity < 0 {
		return nil, fmt.Errorf("%w: product %s has %d, delta %d",
			apperr.ErrInsufficientStock, productID, record.Quantity, delta)
	}

	record.Quantity = newQuantity
	record.LastUpdate = time.Now()
	if err := tx.Model(&model.StockRecord{}).
		Where("product_id = ?", productID).
		Updates(map[string]interface{}{
			"quantity":    record.Quantity,
			"last_update": record.LastUpdate,
		}).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *stockRepo) UpdateThresholds(productID uuid.UUID, minStock int, maxStock *int) (*model.StockRecord, error) {
	record, err := r.FindByProductID(productID)
	if err != nil {
		return nil, err
	}
	record.MinStock = minStock
	record.MaxStock = maxStock
	if err := r.db.Model(&model.StockRecord{}).
		Where("product_id = ?", productID).
		Updates(map[string]interface{}{
			"min_stock": minStock,
			"max_stock": maxStock,
		}).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *stockRepo) UpdateLocation(productID uuid.UUID, location *string) (*model.StockRecord, error) {
	record, err := r.FindByProductID(productID)
	if err != nil {
		return nil, err
	}
	record.Location = location
	if err := r.db.Model(&model.StockRecord{}).
		Where("product_id = ?", productID).
		Update("location", location).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *stockRepo) Counts() (*StockCounts, error) {
	var counts StockCounts
	base := func() *gorm.DB {
		return r.db.Model(&model.StockRecord{}).
			Joins("JOIN products ON products.id = stock_records.product_id").
			Where("products.is_active = ?", true)
	}
	if err := base().Count(&counts.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := base().Where("stock_records.quantity <= stock_records.min_stock").
		Count(&counts.LowStock).Error; err != nil {
		return nil, err
	}
	if err := base().Where("stock_records.quantity = 0").
		Count(&counts.OutOfStock).Error; err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *stockRepo) TotalValuation() (int64, error) {
	var total int64
	err := r.db.Model(&model.StockRecord{}).
		Joins("JOIN products ON products.id = stock_records.product_id").
		Where("products.is_active = ?", true).
		Select("COALESCE(SUM(stock_records.quantity * products.price), 0)").
		Scan(&total).Error
	return total, err
}

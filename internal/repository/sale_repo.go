package repository

import (
	"errors"
	"time"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SalesAggregate is the trailing-window sales velocity input for the alert
// engine: total quantity sold per product across COMPLETED sales.
type SalesAggregate struct {
	ProductID     uuid.UUID
	TotalQuantity int
}

type SaleRepository interface {
	Create(sale *model.Sale) error
	FindByID(id uuid.UUID) (*model.Sale, error)
	FindAll(page, limit int) ([]model.Sale, int64, error)
	UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.SaleStatus) error
	CompletedAggregates(since time.Time) ([]SalesAggregate, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) Create(sale *model.Sale) error {
	return r.db.Create(sale).Error
}

func (r *saleRepo) FindByID(id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.Preload("Items").Preload("Items.Product").Preload("User").
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundf("sale %s", id)
	}
	return &sale, err
}

func (r *saleRepo) FindAll(page, limit int) ([]model.Sale, int64, error) {
	var total int64
	if err := r.db.Model(&model.Sale{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var sales []model.Sale
	err := r.db.Preload("Items").Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.SaleStatus) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Update("status", status).Error
}

func (r *saleRepo) CompletedAggregates(since time.Time) ([]SalesAggregate, error) {
	var aggregates []SalesAggregate
	err := r.db.Model(&model.SaleItem{}).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.status = ? AND sales.created_at >= ?", model.SaleCompleted, since).
		Select("sale_items.product_id as product_id, SUM(sale_items.quantity) as total_quantity").
		Group("sale_items.product_id").
		Scan(&aggregates).Error
	return aggregates, err
}

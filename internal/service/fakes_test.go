package service

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"
	"comercial-stock-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeTx serializes transactions with a mutex, standing in for the per-product
// row lock the real database takes.
type fakeTx struct {
	mu sync.Mutex
}

func (t *fakeTx) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fc(nil)
}

type fakeStockRepo struct {
	records map[uuid.UUID]*model.StockRecord
}

func newFakeStockRepo(records ...*model.StockRecord) *fakeStockRepo {
	r := &fakeStockRepo{records: make(map[uuid.UUID]*model.StockRecord)}
	for _, record := range records {
		r.records[record.ProductID] = record
	}
	return r
}

func (r *fakeStockRepo) Create(record *model.StockRecord) error {
	if _, ok := r.records[record.ProductID]; ok {
		return fmt.Errorf("%w: stock record for product %s", apperr.ErrAlreadyExists, record.ProductID)
	}
	record.LastUpdate = time.Now()
	r.records[record.ProductID] = record
	return nil
}

func (r *fakeStockRepo) FindByProductID(productID uuid.UUID) (*model.StockRecord, error) {
	record, ok := r.records[productID]
	if !ok {
		return nil, apperr.NotFoundf("no stock record for product %s", productID)
	}
	copied := *record
	return &copied, nil
}

func (r *fakeStockRepo) FindAll(f repository.StockFilters) ([]model.StockRecord, int64, error) {
	records, err := r.FindAllWithProduct()
	return records, int64(len(records)), err
}

func (r *fakeStockRepo) FindAllWithProduct() ([]model.StockRecord, error) {
	records := make([]model.StockRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, *record)
	}
	return records, nil
}

func (r *fakeStockRepo) GetForUpdate(tx *gorm.DB, productID uuid.UUID) (*model.StockRecord, error) {
	return r.FindByProductID(productID)
}

func (r *fakeStockRepo) ApplyDelta(tx *gorm.DB, productID uuid.UUID, delta int) (*model.StockRecord, error) {
	record, ok := r.records[productID]
	if !ok {
		return nil, apperr.NotFoundf("no stock record for product %s", productID)
	}
	newQuantity := record.Quantity + delta
	if newQuantity < 0 {
		return nil, fmt.Errorf("%w: product %s has %d, delta %d",
			apperr.ErrInsufficientStock, productID, record.Quantity, delta)
	}
	record.Quantity = newQuantity
	record.LastUpdate = time.Now()
	copied := *record
	return &copied, nil
}

func (r *fakeStockRepo) UpdateThresholds(productID uuid.UUID, minStock int, maxStock *int) (*model.StockRecord, error) {
	record, ok := r.records[productID]
	if !ok {
		return nil, apperr.NotFoundf("no stock record for product %s", productID)
	}
	record.MinStock = minStock
	record.MaxStock = maxStock
	copied := *record
	return &copied, nil
}

func (r *fakeStockRepo) UpdateLocation(productID uuid.UUID, location *string) (*model.StockRecord, error) {
	record, ok := r.records[productID]
	if !ok {
		return nil, apperr.NotFoundf("no stock record for product %s", productID)
	}
	record.Location = location
	copied := *record
	return &copied, nil
}

func (r *fakeStockRepo) Counts() (*repository.StockCounts, error) {
	var counts repository.StockCounts
	for _, record := range r.records {
		counts.TotalProducts++
		if record.IsLowStock() {
			counts.LowStock++
		}
		if record.IsOutOfStock() {
			counts.OutOfStock++
		}
	}
	return &counts, nil
}

func (r *fakeStockRepo) TotalValuation() (int64, error) {
	return 0, nil
}

type fakeMovementRepo struct {
	mu      sync.Mutex
	entries []model.MovementEntry
	seq     int64
}

func (r *fakeMovementRepo) Create(tx *gorm.DB, entry *model.MovementEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	entry.ID = uuid.New()
	entry.Seq = r.seq
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeMovementRepo) ListByProduct(productID uuid.UUID, f repository.MovementFilters) ([]model.MovementEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []model.MovementEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].ProductID == productID {
			entries = append(entries, r.entries[i])
		}
	}
	return entries, int64(len(entries)), nil
}

func (r *fakeMovementRepo) FindRecent(limit int) ([]model.MovementEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []model.MovementEntry
	for i := len(r.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, r.entries[i])
	}
	return entries, nil
}

func (r *fakeMovementRepo) SumByProduct(productID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for i := range r.entries {
		if r.entries[i].ProductID == productID {
			sum += r.entries[i].SignedEffect()
		}
	}
	return sum, nil
}

func (r *fakeMovementRepo) GetMovementChart(startDate, endDate time.Time) ([]repository.MovementChartData, error) {
	return nil, nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo(products ...*model.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
	for _, product := range products {
		r.products[product.ID] = product
	}
	return r
}

func (r *fakeProductRepo) Create(product *model.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) FindAll() ([]model.Product, error) {
	products := make([]model.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, *product)
	}
	return products, nil
}

func (r *fakeProductRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, apperr.NotFoundf("product %s not found", id)
	}
	copied := *product
	return &copied, nil
}

func (r *fakeProductRepo) FindByCode(code string) (*model.Product, error) {
	for _, product := range r.products {
		if product.Code == code {
			copied := *product
			return &copied, nil
		}
	}
	return nil, apperr.NotFoundf("product with code %s not found", code)
}

func (r *fakeProductRepo) FindActiveByIDs(ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	for _, id := range ids {
		if product, ok := r.products[id]; ok && product.IsActive {
			products = append(products, *product)
		}
	}
	return products, nil
}

func (r *fakeProductRepo) Update(product *model.Product) error {
	r.products[product.ID] = product
	return nil
}

type fakeSaleRepo struct {
	sales          map[uuid.UUID]*model.Sale
	aggregates     []repository.SalesAggregate
	aggregateCalls int
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *fakeSaleRepo) Create(sale *model.Sale) error {
	sale.ID = uuid.New()
	r.sales[sale.ID] = sale
	return nil
}

func (r *fakeSaleRepo) FindByID(id uuid.UUID) (*model.Sale, error) {
	sale, ok := r.sales[id]
	if !ok {
		return nil, apperr.NotFoundf("sale %s not found", id)
	}
	copied := *sale
	return &copied, nil
}

func (r *fakeSaleRepo) FindAll(page, limit int) ([]model.Sale, int64, error) {
	sales := make([]model.Sale, 0, len(r.sales))
	for _, sale := range r.sales {
		sales = append(sales, *sale)
	}
	return sales, int64(len(sales)), nil
}

func (r *fakeSaleRepo) UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.SaleStatus) error {
	sale, ok := r.sales[id]
	if !ok {
		return apperr.NotFoundf("sale %s not found", id)
	}
	sale.Status = status
	return nil
}

func (r *fakeSaleRepo) CompletedAggregates(since time.Time) ([]repository.SalesAggregate, error) {
	r.aggregateCalls++
	return r.aggregates, nil
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

package service

import (
	"testing"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	sales        SaleService
	saleRepo     *fakeSaleRepo
	stockRepo    *fakeStockRepo
	movementRepo *fakeMovementRepo
}

// newSaleFixture wires a sale service over one product with the given price
// and stock on hand.
func newSaleFixture(product *model.Product) *saleFixture {
	record := &model.StockRecord{
		ProductID: product.ID,
		Quantity:  product.StockRecord.Quantity,
		MinStock:  product.StockRecord.MinStock,
	}
	stockRepo := newFakeStockRepo(record)
	movementRepo := &fakeMovementRepo{}
	productRepo := newFakeProductRepo(product)
	saleRepo := newFakeSaleRepo()
	tx := &fakeTx{}
	ledger := NewLedgerService(tx, stockRepo, movementRepo, nil)
	validator := NewStockValidatorService(productRepo)
	return &saleFixture{
		sales:        NewSaleService(tx, saleRepo, productRepo, ledger, validator, nil),
		saleRepo:     saleRepo,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
	}
}

func pricedProduct(price int64, quantity int) *model.Product {
	product := productWithStock("P-001", quantity)
	product.Price = price
	return product
}

func TestCreateSaleSnapshotsPrices(t *testing.T) {
	product := pricedProduct(1500, 10)
	f := newSaleFixture(product)
	userID := uuid.New()

	sale, err := f.sales.Create(&CreateSaleRequest{
		Items: []ValidateItem{{ProductID: product.ID, Quantity: 2}},
		Notes: "counter sale",
	}, userID)
	require.NoError(t, err)

	assert.Equal(t, model.SalePending, sale.Status)
	assert.EqualValues(t, 3000, sale.Total)
	require.Len(t, sale.Items, 1)
	assert.EqualValues(t, 1500, sale.Items[0].UnitPrice)
	assert.EqualValues(t, 3000, sale.Items[0].Total)

	// Creation does not touch stock; only completion does.
	record, err := f.stockRepo.FindByProductID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, record.Quantity)
	assert.Empty(t, f.movementRepo.entries)
}

func TestCreateSaleRejectsInsufficientStock(t *testing.T) {
	product := pricedProduct(1000, 3)
	f := newSaleFixture(product)

	_, err := f.sales.Create(&CreateSaleRequest{
		Items: []ValidateItem{{ProductID: product.ID, Quantity: 5}},
	}, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "cannot be fulfilled")
}

func TestCreateSaleRejectsEmptyItems(t *testing.T) {
	f := newSaleFixture(pricedProduct(1000, 3))

	_, err := f.sales.Create(&CreateSaleRequest{}, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

// Deactivates its product right after the first lookup, like an admin
// disabling it while the sale request is in flight.
type vanishingProductRepo struct {
	*fakeProductRepo
	productID uuid.UUID
	lookups   int
}

func (r *vanishingProductRepo) FindActiveByIDs(ids []uuid.UUID) ([]model.Product, error) {
	products, err := r.fakeProductRepo.FindActiveByIDs(ids)
	r.lookups++
	if r.lookups == 1 {
		r.products[r.productID].IsActive = false
	}
	return products, err
}

func TestCreateSaleRejectsProductDeactivatedMidRequest(t *testing.T) {
	product := pricedProduct(1500, 10)
	record := &model.StockRecord{
		ProductID: product.ID,
		Quantity:  product.StockRecord.Quantity,
		MinStock:  product.StockRecord.MinStock,
	}
	stockRepo := newFakeStockRepo(record)
	movementRepo := &fakeMovementRepo{}
	productRepo := &vanishingProductRepo{
		fakeProductRepo: newFakeProductRepo(product),
		productID:       product.ID,
	}
	saleRepo := newFakeSaleRepo()
	tx := &fakeTx{}
	ledger := NewLedgerService(tx, stockRepo, movementRepo, nil)
	validator := NewStockValidatorService(productRepo)
	sales := NewSaleService(tx, saleRepo, productRepo, ledger, validator, nil)

	// The advisory check still sees the product; the price lookup no
	// longer does. The sale must fail rather than snapshot a zero price.
	_, err := sales.Create(&CreateSaleRequest{
		Items: []ValidateItem{{ProductID: product.ID, Quantity: 2}},
	}, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "no longer available")
	assert.Empty(t, saleRepo.sales)
}

func TestCompleteSaleDeductsStock(t *testing.T) {
	product := pricedProduct(500, 10)
	f := newSaleFixture(product)
	userID := uuid.New()

	sale, err := f.sales.Create(&CreateSaleRequest{
		Items: []ValidateItem{{ProductID: product.ID, Quantity: 4}},
	}, userID)
	require.NoError(t, err)

	completed, err := f.sales.Complete(sale.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, model.SaleCompleted, completed.Status)

	record, err := f.stockRepo.FindByProductID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, record.Quantity)

	require.Len(t, f.movementRepo.entries, 1)
	entry := f.movementRepo.entries[0]
	assert.Equal(t, model.MovementOut, entry.Type)
	assert.Equal(t, 4, entry.Quantity)
	require.NotNil(t, entry.SaleID)
	assert.Equal(t, sale.ID, *entry.SaleID)
}

func TestCompleteSaleOnlyPending(t *testing.T) {
	product := pricedProduct(500, 10)
	f := newSaleFixture(product)
	userID := uuid.New()

	sale, err := f.sales.Create(&CreateSaleRequest{
		Items: []ValidateItem{{ProductID: product.ID, Quantity: 1}},
	}, userID)
	require.NoError(t, err)

	_, err = f.sales.Complete(sale.ID, userID)
	require.NoError(t, err)

	_, err = f.sales.Complete(sale.ID, userID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCompleteSaleFailsWhenStockRanOut(t *testing.T) {
	product := pricedProduct(500, 5)
	f := newSaleFixture(product)
	userID := uuid.New()

	sale, err := f.sales.Create(&CreateSaleRequest{
		Items: []ValidateItem{{ProductID: product.ID, Quantity: 5}},
	}, userID)
	require.NoError(t, err)

	// Stock moved between the advisory check and the completion.
	_, err = f.stockRepo.ApplyDelta(nil, product.ID, -3)
	require.NoError(t, err)

	_, err = f.sales.Complete(sale.ID, userID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.True(t, apperr.IsRecoverable(err))

	// Nothing moved and the sale can be retried or cancelled.
	stored, err := f.saleRepo.FindByID(sale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SalePending, stored.Status)
	assert.Empty(t, f.movementRepo.entries)
}

func TestCancelPendingSale(t *testing.T) {
	product := pricedProduct(500, 10)
	f := newSaleFixture(product)
	userID := uuid.New()

	sale, err := f.sales.Create(&CreateSaleRequest{
		Items: []ValidateItem{{ProductID: product.ID, Quantity: 2}},
	}, userID)
	require.NoError(t, err)

	cancelled, err := f.sales.Cancel(sale.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, model.SaleCancelled, cancelled.Status)

	// Pending sales never touched stock, so nothing to compensate.
	assert.Empty(t, f.movementRepo.entries)
}

func TestCancelCompletedSaleRestocks(t *testing.T) {
	product := pricedProduct(500, 10)
	f := newSaleFixture(product)
	userID := uuid.New()

	sale, err := f.sales.Create(&CreateSaleRequest{
		Items: []ValidateItem{{ProductID: product.ID, Quantity: 4}},
	}, userID)
	require.NoError(t, err)
	_, err = f.sales.Complete(sale.ID, userID)
	require.NoError(t, err)

	cancelled, err := f.sales.Cancel(sale.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, model.SaleCancelled, cancelled.Status)

	record, err := f.stockRepo.FindByProductID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, record.Quantity)

	// The original OUT entry is untouched; a compensating IN follows it.
	require.Len(t, f.movementRepo.entries, 2)
	assert.Equal(t, model.MovementOut, f.movementRepo.entries[0].Type)
	compensation := f.movementRepo.entries[1]
	assert.Equal(t, model.MovementIn, compensation.Type)
	assert.Equal(t, 4, compensation.Quantity)
	require.NotNil(t, compensation.Reason)
	assert.Contains(t, *compensation.Reason, "cancelled")
}

func TestCancelTwice(t *testing.T) {
	product := pricedProduct(500, 10)
	f := newSaleFixture(product)
	userID := uuid.New()

	sale, err := f.sales.Create(&CreateSaleRequest{
		Items: []ValidateItem{{ProductID: product.ID, Quantity: 1}},
	}, userID)
	require.NoError(t, err)

	_, err = f.sales.Cancel(sale.ID, userID)
	require.NoError(t, err)

	_, err = f.sales.Cancel(sale.ID, userID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

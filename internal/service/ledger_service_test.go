package service

import (
	"strings"
	"sync"
	"testing"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"
	"comercial-stock-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerFixture(record *model.StockRecord) (LedgerService, *fakeStockRepo, *fakeMovementRepo) {
	stockRepo := newFakeStockRepo(record)
	movementRepo := &fakeMovementRepo{}
	ledger := NewLedgerService(&fakeTx{}, stockRepo, movementRepo, nil)
	return ledger, stockRepo, movementRepo
}

func stockRecordWith(quantity int) *model.StockRecord {
	return &model.StockRecord{
		ProductID: uuid.New(),
		Quantity:  quantity,
		MinStock:  10,
	}
}

func TestValidateAppendInput(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name    string
		input   AppendInput
		wantErr string
	}{
		{
			name:  "valid inbound",
			input: AppendInput{ProductID: productID, Type: model.MovementIn, Quantity: 5},
		},
		{
			name:  "valid outbound",
			input: AppendInput{ProductID: productID, Type: model.MovementOut, Quantity: 3},
		},
		{
			name:  "valid negative adjustment with reason",
			input: AppendInput{ProductID: productID, Type: model.MovementAdjustment, Quantity: -5, Reason: strPtr("DAMAGE")},
		},
		{
			name:    "inbound zero quantity",
			input:   AppendInput{ProductID: productID, Type: model.MovementIn, Quantity: 0},
			wantErr: "greater than zero",
		},
		{
			name:    "outbound negative quantity",
			input:   AppendInput{ProductID: productID, Type: model.MovementOut, Quantity: -2},
			wantErr: "greater than zero",
		},
		{
			name:    "adjustment zero delta",
			input:   AppendInput{ProductID: productID, Type: model.MovementAdjustment, Quantity: 0, Reason: strPtr("CORRECTION")},
			wantErr: "cannot be zero",
		},
		{
			name:    "adjustment without reason",
			input:   AppendInput{ProductID: productID, Type: model.MovementAdjustment, Quantity: 4},
			wantErr: "reason is required",
		},
		{
			name:    "reason too short",
			input:   AppendInput{ProductID: productID, Type: model.MovementIn, Quantity: 1, Reason: strPtr("ab")},
			wantErr: "between 3 and 500",
		},
		{
			name:    "reason too long",
			input:   AppendInput{ProductID: productID, Type: model.MovementIn, Quantity: 1, Reason: strPtr(strings.Repeat("x", 501))},
			wantErr: "between 3 and 500",
		},
		{
			name:    "unknown movement type",
			input:   AppendInput{ProductID: productID, Type: "TRANSFER", Quantity: 1},
			wantErr: "invalid movement type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAppendInput(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAppendUpdatesLedgerAndStockTogether(t *testing.T) {
	record := stockRecordWith(10)
	ledger, stockRepo, movementRepo := newLedgerFixture(record)

	entry, updated, err := ledger.Append(AppendInput{
		ProductID: record.ProductID,
		Type:      model.MovementOut,
		Quantity:  4,
	})
	require.NoError(t, err)

	assert.Equal(t, 6, updated.Quantity)
	assert.Equal(t, model.MovementOut, entry.Type)
	assert.Equal(t, 4, entry.Quantity)
	assert.Equal(t, -4, entry.SignedEffect())
	assert.NotZero(t, entry.Seq)

	stored, err := stockRepo.FindByProductID(record.ProductID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Quantity)
	assert.Len(t, movementRepo.entries, 1)
}

func TestAppendRejectsInsufficientStock(t *testing.T) {
	record := stockRecordWith(3)
	ledger, stockRepo, movementRepo := newLedgerFixture(record)

	_, _, err := ledger.Append(AppendInput{
		ProductID: record.ProductID,
		Type:      model.MovementOut,
		Quantity:  5,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.True(t, apperr.IsRecoverable(err))

	// Failed append leaves neither a ledger entry nor a quantity change.
	stored, err := stockRepo.FindByProductID(record.ProductID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Quantity)
	assert.Empty(t, movementRepo.entries)
}

func TestAppendUnknownProduct(t *testing.T) {
	ledger, _, _ := newLedgerFixture(stockRecordWith(1))

	_, _, err := ledger.Append(AppendInput{
		ProductID: uuid.New(),
		Type:      model.MovementIn,
		Quantity:  1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentAppendsSerialize(t *testing.T) {
	record := stockRecordWith(5)
	ledger, stockRepo, movementRepo := newLedgerFixture(record)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = ledger.Append(AppendInput{
				ProductID: record.ProductID,
				Type:      model.MovementOut,
				Quantity:  4,
			})
		}(i)
	}
	wg.Wait()

	// Exactly one of the two concurrent deductions wins the row lock.
	var succeeded, insufficient int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
			insufficient++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)

	stored, err := stockRepo.FindByProductID(record.ProductID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Quantity)
	assert.Len(t, movementRepo.entries, 1)
}

func TestLedgerReplayMatchesQuantity(t *testing.T) {
	record := stockRecordWith(0)
	ledger, stockRepo, movementRepo := newLedgerFixture(record)

	inputs := []AppendInput{
		{ProductID: record.ProductID, Type: model.MovementIn, Quantity: 10},
		{ProductID: record.ProductID, Type: model.MovementOut, Quantity: 3},
		{ProductID: record.ProductID, Type: model.MovementAdjustment, Quantity: 5, Reason: strPtr("INVENTORY_COUNT")},
		{ProductID: record.ProductID, Type: model.MovementOut, Quantity: 2},
	}
	for _, input := range inputs {
		_, _, err := ledger.Append(input)
		require.NoError(t, err)
	}

	stored, err := stockRepo.FindByProductID(record.ProductID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Quantity)

	// The cached quantity is exactly the replay of the ledger.
	sum, err := movementRepo.SumByProduct(record.ProductID)
	require.NoError(t, err)
	assert.Equal(t, stored.Quantity, sum)
}

func TestListByProductNewestFirst(t *testing.T) {
	record := stockRecordWith(0)
	ledger, _, _ := newLedgerFixture(record)

	for _, quantity := range []int{5, 3, 7} {
		_, _, err := ledger.Append(AppendInput{
			ProductID: record.ProductID,
			Type:      model.MovementIn,
			Quantity:  quantity,
		})
		require.NoError(t, err)
	}

	entries, total, err := ledger.ListByProduct(record.ProductID, repository.MovementFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, entries, 3)
	assert.Equal(t, 7, entries[0].Quantity)
	assert.Greater(t, entries[0].Seq, entries[1].Seq)
	assert.Greater(t, entries[1].Seq, entries[2].Seq)
}

func TestListByProductUnknownProduct(t *testing.T) {
	ledger, _, _ := newLedgerFixture(stockRecordWith(1))

	_, _, err := ledger.ListByProduct(uuid.New(), repository.MovementFilters{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

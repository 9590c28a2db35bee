package service

import (
	"testing"

	"comercial-stock-backend/internal/apperr"
	"comercial-stock-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdjustmentFixture(record *model.StockRecord) (AdjustmentService, *fakeStockRepo, *fakeMovementRepo) {
	stockRepo := newFakeStockRepo(record)
	movementRepo := &fakeMovementRepo{}
	tx := &fakeTx{}
	ledger := NewLedgerService(tx, stockRepo, movementRepo, nil)
	adjustments := NewAdjustmentService(tx, stockRepo, ledger, nil)
	return adjustments, stockRepo, movementRepo
}

func TestBuildReason(t *testing.T) {
	assert.Equal(t, "DAMAGE: water damage in warehouse", buildReason(model.ReasonDamage, "water damage in warehouse"))
	assert.Equal(t, "INVENTORY_COUNT", buildReason(model.ReasonInventoryCount, ""))
}

func TestPreviewDoesNotWrite(t *testing.T) {
	record := stockRecordWith(50)
	adjustments, stockRepo, movementRepo := newAdjustmentFixture(record)

	preview, err := adjustments.Preview(&AdjustmentRequest{
		ProductID:   record.ProductID,
		NewQuantity: 45,
		ReasonCode:  model.ReasonDamage,
		Notes:       "water damage",
	})
	require.NoError(t, err)

	assert.Equal(t, 50, preview.CurrentQuantity)
	assert.Equal(t, 45, preview.NewQuantity)
	assert.Equal(t, -5, preview.Delta)
	assert.Equal(t, "DAMAGE: water damage", preview.Reason)
	assert.Equal(t, "Damaged goods", preview.ReasonLabel)

	// Preview leaves the ledger and the quantity untouched.
	stored, err := stockRepo.FindByProductID(record.ProductID)
	require.NoError(t, err)
	assert.Equal(t, 50, stored.Quantity)
	assert.Empty(t, movementRepo.entries)
}

func TestPreviewNoOp(t *testing.T) {
	record := stockRecordWith(50)
	adjustments, _, _ := newAdjustmentFixture(record)

	_, err := adjustments.Preview(&AdjustmentRequest{
		ProductID:   record.ProductID,
		NewQuantity: 50,
		ReasonCode:  model.ReasonInventoryCount,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNoOpAdjustment)
}

func TestAdjustRecordsSignedDelta(t *testing.T) {
	record := stockRecordWith(50)
	adjustments, stockRepo, movementRepo := newAdjustmentFixture(record)
	userID := uuid.New()

	entry, updated, err := adjustments.Adjust(&AdjustmentRequest{
		ProductID:   record.ProductID,
		NewQuantity: 45,
		ReasonCode:  model.ReasonDamage,
		Notes:       "water damage",
	}, &userID)
	require.NoError(t, err)

	assert.Equal(t, model.MovementAdjustment, entry.Type)
	assert.Equal(t, -5, entry.Quantity)
	assert.Equal(t, -5, entry.SignedEffect())
	require.NotNil(t, entry.Reason)
	assert.Equal(t, "DAMAGE: water damage", *entry.Reason)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, userID, *entry.UserID)
	assert.Equal(t, 45, updated.Quantity)

	stored, err := stockRepo.FindByProductID(record.ProductID)
	require.NoError(t, err)
	assert.Equal(t, 45, stored.Quantity)
	assert.Len(t, movementRepo.entries, 1)
}

func TestAdjustUpward(t *testing.T) {
	record := stockRecordWith(20)
	adjustments, _, _ := newAdjustmentFixture(record)

	entry, updated, err := adjustments.Adjust(&AdjustmentRequest{
		ProductID:   record.ProductID,
		NewQuantity: 32,
		ReasonCode:  model.ReasonReturn,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 12, entry.Quantity)
	assert.Equal(t, 32, updated.Quantity)
	require.NotNil(t, entry.Reason)
	assert.Equal(t, "RETURN", *entry.Reason)
}

func TestAdjustNoOpWritesNothing(t *testing.T) {
	record := stockRecordWith(50)
	adjustments, stockRepo, movementRepo := newAdjustmentFixture(record)

	_, _, err := adjustments.Adjust(&AdjustmentRequest{
		ProductID:   record.ProductID,
		NewQuantity: 50,
		ReasonCode:  model.ReasonInventoryCount,
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNoOpAdjustment)

	stored, err := stockRepo.FindByProductID(record.ProductID)
	require.NoError(t, err)
	assert.Equal(t, 50, stored.Quantity)
	assert.Empty(t, movementRepo.entries)
}

func TestAdjustValidation(t *testing.T) {
	record := stockRecordWith(10)
	adjustments, _, _ := newAdjustmentFixture(record)

	tests := []struct {
		name string
		req  AdjustmentRequest
	}{
		{
			name: "unknown reason code",
			req:  AdjustmentRequest{ProductID: record.ProductID, NewQuantity: 5, ReasonCode: "SHRINKAGE"},
		},
		{
			name: "negative new quantity",
			req:  AdjustmentRequest{ProductID: record.ProductID, NewQuantity: -1, ReasonCode: model.ReasonDamage},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := adjustments.Adjust(&tt.req, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestAdjustUnknownProduct(t *testing.T) {
	adjustments, _, _ := newAdjustmentFixture(stockRecordWith(5))

	_, _, err := adjustments.Adjust(&AdjustmentRequest{
		ProductID:   uuid.New(),
		NewQuantity: 3,
		ReasonCode:  model.ReasonCorrection,
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

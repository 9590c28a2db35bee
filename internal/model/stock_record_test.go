package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStockRecordThresholds(t *testing.T) {
	record := StockRecord{Quantity: 10, MinStock: 10}
	assert.True(t, record.IsLowStock())
	assert.False(t, record.IsOutOfStock())

	record.Quantity = 0
	assert.True(t, record.IsOutOfStock())

	record.Quantity = 11
	assert.False(t, record.IsLowStock())
}

func TestSuggestedReorder(t *testing.T) {
	record := StockRecord{MinStock: 15}
	assert.Equal(t, 30, record.SuggestedReorder())

	max := 50
	record.MaxStock = &max
	assert.Equal(t, 50, record.SuggestedReorder())
}

func TestSignedEffect(t *testing.T) {
	assert.Equal(t, 5, (&MovementEntry{Type: MovementIn, Quantity: 5}).SignedEffect())
	assert.Equal(t, -5, (&MovementEntry{Type: MovementOut, Quantity: 5}).SignedEffect())
	assert.Equal(t, -3, (&MovementEntry{Type: MovementAdjustment, Quantity: -3}).SignedEffect())
	assert.Equal(t, 7, (&MovementEntry{Type: MovementAdjustment, Quantity: 7}).SignedEffect())
}

package model

// AdjustmentReason is the fixed vocabulary for manual stock corrections.
type AdjustmentReason string

const (
	ReasonInventoryCount AdjustmentReason = "INVENTORY_COUNT"
	ReasonDamage         AdjustmentReason = "DAMAGE"
	ReasonExpiry         AdjustmentReason = "EXPIRY"
	ReasonReturn         AdjustmentReason = "RETURN"
	ReasonCorrection     AdjustmentReason = "CORRECTION"
	ReasonOther          AdjustmentReason = "OTHER"
)

var adjustmentReasonLabels = map[AdjustmentReason]string{
	ReasonInventoryCount: "Inventory count",
	ReasonDamage:         "Damaged goods",
	ReasonExpiry:         "Expired goods",
	ReasonReturn:         "Customer return",
	ReasonCorrection:     "System correction",
	ReasonOther:          "Other",
}

func (r AdjustmentReason) Valid() bool {
	_, ok := adjustmentReasonLabels[r]
	return ok
}

func (r AdjustmentReason) Label() string {
	return adjustmentReasonLabels[r]
}

package shared

// LineAmount returns quantity times unitPrice less a whole-percent discount,
// rounded down to the smallest currency unit.
func LineAmount(quantity, unitPrice, discountPercent int64) int64 {
	gross := quantity * unitPrice
	if discountPercent <= 0 {
		return gross
	}
	if discountPercent >= 100 {
		return 0
	}
	return gross - gross*discountPercent/100
}

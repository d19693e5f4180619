package calculator

import (
	"fmt"
	"math"

	"github.com/Aadesh-Ghodke/splitsmart/internal/models"
)

// Epsilon is the tolerance, in currency units, for the bill's soft
// arithmetic invariants. Receipt extraction is lossy, so exact equality is
// never required.
const Epsilon = 0.01

// CheckTotals verifies the bill's soft invariants: the subtotal should match
// the sum of item prices, and the total should match subtotal + tax + tip.
// Violations beyond Epsilon are returned
// as human-readable warnings; they never block display.
func CheckTotals(bill *models.Bill) []string {
	if bill == nil {
		return nil
	}

	var warnings []string

	var itemSum float64
	for _, item := range bill.Items {
		itemSum += item.Price
	}
	if math.Abs(itemSum-bill.Subtotal) > Epsilon {
		warnings = append(warnings, fmt.Sprintf(
			"item prices sum to %.2f but receipt subtotal is %.2f", itemSum, bill.Subtotal))
	}

	if expected := bill.Subtotal + bill.Tax + bill.Tip; math.Abs(expected-bill.Total) > Epsilon {
		warnings = append(warnings, fmt.Sprintf(
			"subtotal + tax + tip is %.2f but receipt total is %.2f", expected, bill.Total))
	}

	return warnings
}

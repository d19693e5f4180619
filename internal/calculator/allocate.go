// Package calculator computes the per-person cost breakdown for a bill.
//
// Allocate is a pure function of its input: it never mutates the bill, holds
// no state between calls, and is safe to invoke on every read.
package calculator

import (
	"github.com/Aadesh-Ghodke/splitsmart/internal/models"
)

// Allocation is the derived view of a bill: who owes what, and which items
// nobody has claimed yet.
type Allocation struct {
	// People holds one summary per person, in first-seen order across the
	// item sequence.
	People []models.PersonSummary `json:"people"`

	// Unassigned lists items with no assignees, in receipt order. Their
	// value (and the matching slice of tax/tip) is owed by nobody until
	// they are assigned, which is surfaced to the user rather than hidden.
	Unassigned []models.BillItem `json:"unassigned"`
}

// Allocate computes each person's share of the bill.
//
// Each item's price is split equally among its assignees at full float64
// precision; rounding happens only at presentation time. Tax and tip are
// distributed in proportion to each person's share of the *assigned*
// subtotal: person_tax = tax * (items_total / assigned_subtotal). When
// nothing is assigned every share is zero, so there is no division by zero
// and no error condition. A bill with zero items yields empty results.
func Allocate(bill *models.Bill) Allocation {
	var alloc Allocation
	if bill == nil {
		return alloc
	}

	// Aggregation is keyed on the normalized name; display keeps the
	// casing of the first occurrence.
	index := make(map[string]int)

	for _, item := range bill.Items {
		if !item.Assigned() {
			cp := item
			cp.AssignedTo = append([]string(nil), item.AssignedTo...)
			alloc.Unassigned = append(alloc.Unassigned, cp)
			continue
		}

		share := item.Price / float64(len(item.AssignedTo))
		for _, name := range item.AssignedTo {
			key := models.PersonKey(name)
			i, ok := index[key]
			if !ok {
				i = len(alloc.People)
				index[key] = i
				alloc.People = append(alloc.People, models.PersonSummary{
					Name: models.NormalizeName(name),
				})
			}
			alloc.People[i].ItemsTotal += share
			alloc.People[i].Items = append(alloc.People[i].Items, models.PersonItem{
				Description: item.Description,
				Share:       share,
			})
		}
	}

	// Assigned subtotal drives the tax/tip proportions.
	var assigned float64
	for i := range alloc.People {
		assigned += alloc.People[i].ItemsTotal
	}

	for i := range alloc.People {
		p := &alloc.People[i]
		if assigned > 0 {
			ratio := p.ItemsTotal / assigned
			p.TaxShare = bill.Tax * ratio
			p.TipShare = bill.Tip * ratio
		}
		p.TotalOwed = p.ItemsTotal + p.TaxShare + p.TipShare
	}

	return alloc
}

package models

import "strings"

// BillItem represents a single line item on a receipt.
// Items can be shared among multiple people.
type BillItem struct {
	// ID is unique within a bill (e.g. "item_1", assigned at extraction).
	ID string `json:"id"`

	// Description is the name of the item as printed on the receipt.
	Description string `json:"description"`

	// Price is the item's price in the bill's currency unit, non-negative.
	Price float64 `json:"price"`

	// AssignedTo is the set of person names sharing this item's cost.
	// Order is irrelevant; an empty list means the item is unassigned.
	AssignedTo []string `json:"assignedTo"`
}

// Assigned reports whether the item has at least one assignee.
func (it *BillItem) Assigned() bool {
	return len(it.AssignedTo) > 0
}

// Bill represents a receipt: its line items in receipt order plus the
// printed totals. Subtotal should equal the sum of item prices and total
// should equal subtotal+tax+tip, but both originate from imperfect
// extraction, so these are soft invariants checked with a tolerance.
type Bill struct {
	// Items are the line items in receipt order (display-relevant).
	Items []BillItem `json:"items"`

	// Subtotal is the pre-tax amount printed on the receipt.
	Subtotal float64 `json:"subtotal"`

	// Tax is the total tax amount.
	Tax float64 `json:"tax"`

	// Tip is the total tip amount (0 if not on the receipt).
	Tip float64 `json:"tip"`

	// Total is the grand total.
	Total float64 `json:"total"`

	// Currency is the display symbol or code (e.g. "$", "EUR").
	Currency string `json:"currency"`
}

// Clone returns a deep copy. Bills cross component boundaries by value so
// that no component holds a reference into a session's canonical state.
func (b *Bill) Clone() *Bill {
	if b == nil {
		return nil
	}
	c := *b
	c.Items = make([]BillItem, len(b.Items))
	for i, it := range b.Items {
		c.Items[i] = it
		c.Items[i].AssignedTo = append([]string(nil), it.AssignedTo...)
	}
	return &c
}

// Item returns the item with the given ID, or nil if absent.
func (b *Bill) Item(id string) *BillItem {
	for i := range b.Items {
		if b.Items[i].ID == id {
			return &b.Items[i]
		}
	}
	return nil
}

// NormalizeName trims leading and trailing whitespace from a person name,
// preserving its casing for display.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// PersonKey returns the aggregation identity for a person name: trimmed and
// lowercased. Names with the same key are the same person; anything finer
// (nicknames, typos) is the interpretation collaborator's problem.
func PersonKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SamePerson reports whether two names identify the same person.
func SamePerson(a, b string) bool {
	return PersonKey(a) == PersonKey(b)
}

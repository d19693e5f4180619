package models

// PersonItem represents one item's share for one person.
type PersonItem struct {
	// Description is the item's description.
	Description string `json:"description"`

	// Share is this person's portion of the item price (price / assignees).
	Share float64 `json:"share"`
}

// PersonSummary is one person's derived share of a bill. It is recomputed
// from the current Bill on every read and never stored or mutated outside
// the calculator package.
type PersonSummary struct {
	// Name is the person's display name (first-seen casing).
	Name string `json:"name"`

	// ItemsTotal is the sum of this person's per-item shares.
	ItemsTotal float64 `json:"itemsTotal"`

	// TaxShare is this person's portion of the bill tax, proportional to
	// their share of the assigned subtotal.
	TaxShare float64 `json:"taxShare"`

	// TipShare is this person's portion of the tip, same proportion.
	TipShare float64 `json:"tipShare"`

	// TotalOwed = ItemsTotal + TaxShare + TipShare.
	TotalOwed float64 `json:"totalOwed"`

	// Items lists the shares contributing to ItemsTotal, in receipt order.
	Items []PersonItem `json:"items"`
}

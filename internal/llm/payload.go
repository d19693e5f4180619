package llm

import (
	"encoding/json"
	"fmt"

	"github.com/Aadesh-Ghodke/splitsmart/internal/models"
	"github.com/Aadesh-Ghodke/splitsmart/internal/validator"
)

// itemPayload mirrors the JSON shape the model is asked to produce.
// Pointer fields distinguish "absent" from zero values so contract
// violations are caught instead of silently defaulting.
type itemPayload struct {
	ID          *string  `json:"id"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	AssignedTo  []string `json:"assignedTo"`
}

type billPayload struct {
	Items    []itemPayload `json:"items"`
	Subtotal *float64      `json:"subtotal"`
	Tax      *float64      `json:"tax"`
	Tip      *float64      `json:"tip"`
	Total    *float64      `json:"total"`
	Currency *string       `json:"currency"`
}

type updatePayload struct {
	UpdatedBill  *billPayload `json:"updatedBill"`
	ResponseText string       `json:"responseText"`
	Correction   bool         `json:"correction"`
}

// toModel converts the untrusted payload into a typed bill, rejecting any
// item lacking an id, description, or price. When fresh is true the result
// is a just-extracted bill, so assignedTo lists are forced empty regardless
// of what the model returned.
func (p *billPayload) toModel(fresh bool) (*models.Bill, error) {
	if p == nil {
		return nil, fmt.Errorf("no bill in response")
	}
	bill := &models.Bill{Items: make([]models.BillItem, 0, len(p.Items))}

	for i, raw := range p.Items {
		if raw.ID == nil || raw.Description == nil || raw.Price == nil {
			return nil, fmt.Errorf("item %d is missing a required field", i)
		}
		item := models.BillItem{
			ID:          *raw.ID,
			Description: *raw.Description,
			Price:       *raw.Price,
			AssignedTo:  []string{},
		}
		if !fresh {
			item.AssignedTo = append([]string{}, raw.AssignedTo...)
		}
		bill.Items = append(bill.Items, item)
	}

	if p.Subtotal == nil || p.Tax == nil || p.Total == nil || p.Currency == nil {
		return nil, fmt.Errorf("bill is missing a required field")
	}
	bill.Subtotal = *p.Subtotal
	bill.Tax = *p.Tax
	if p.Tip != nil {
		bill.Tip = *p.Tip
	}
	bill.Total = *p.Total
	bill.Currency = *p.Currency

	if err := validator.ValidateStructure(bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// decodeBill parses a raw extraction response into a typed bill.
func decodeBill(raw []byte) (*models.Bill, error) {
	var payload billPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid bill JSON: %w", err)
	}
	return payload.toModel(true)
}

// decodeUpdate parses a raw interpretation response.
func decodeUpdate(raw []byte) (*Interpretation, error) {
	var payload updatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid update JSON: %w", err)
	}
	candidate, err := payload.UpdatedBill.toModel(false)
	if err != nil {
		return nil, err
	}
	if payload.ResponseText == "" {
		return nil, fmt.Errorf("update has no response text")
	}
	return &Interpretation{
		Candidate:    candidate,
		ResponseText: payload.ResponseText,
		Correction:   payload.Correction,
	}, nil
}

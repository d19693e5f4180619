// Package validator reconciles candidate bills produced by the
// interpretation collaborator against the session's current bill.
//
// The collaborator returns a full replacement bill, and LLM output is
// untrusted: it may silently rewrite prices, drop items, or invent IDs.
// Reconcile accepts only the assignment changes by default and self-heals
// everything else, so the canonical bill's protected fields can only change
// through an explicit correction signal.
package validator

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Aadesh-Ghodke/splitsmart/internal/models"
)

// ErrMalformedUpdate indicates a candidate bill that fails structural
// validation (missing or unknown item ID, missing required field, negative
// price). The caller keeps its previous bill unchanged.
var ErrMalformedUpdate = errors.New("malformed bill update")

// ValidateStructure checks that a bill is structurally sound: every item
// carries a unique non-empty ID, a description, and a non-negative price,
// and the bill-level amounts are non-negative. It reports, but does not
// enforce, nothing about arithmetic consistency; see calculator.CheckTotals.
func ValidateStructure(bill *models.Bill) error {
	if bill == nil {
		return fmt.Errorf("%w: no bill", ErrMalformedUpdate)
	}
	seen := make(map[string]bool, len(bill.Items))
	for i, item := range bill.Items {
		if item.ID == "" {
			return fmt.Errorf("%w: item %d has no id", ErrMalformedUpdate, i)
		}
		if seen[item.ID] {
			return fmt.Errorf("%w: duplicate item id %q", ErrMalformedUpdate, item.ID)
		}
		seen[item.ID] = true
		if item.Description == "" {
			return fmt.Errorf("%w: item %q has no description", ErrMalformedUpdate, item.ID)
		}
		if item.Price < 0 {
			return fmt.Errorf("%w: item %q has negative price %v", ErrMalformedUpdate, item.ID, item.Price)
		}
	}
	if bill.Subtotal < 0 || bill.Tax < 0 || bill.Tip < 0 || bill.Total < 0 {
		return fmt.Errorf("%w: negative bill amount", ErrMalformedUpdate)
	}
	return nil
}

// Reconcile produces the new canonical bill from the previous bill and a
// candidate replacement.
//
// Without a correction signal, item IDs, descriptions, prices, and the
// bill-level amounts and currency must match prev; any field the candidate
// drifted is reverted to its previous value (self-heal, reported in the
// returned drift list) while assignedTo changes are accepted. This is
// expected model noise, not an error.
//
// With a correction signal the candidate's protected fields are trusted:
// the user explicitly asked for the change, and the collaborator declared
// it. The candidate must still pass structural validation.
//
// On ErrMalformedUpdate the caller keeps prev. The returned bill never
// aliases prev or candidate memory.
func Reconcile(prev, candidate *models.Bill, correction bool) (*models.Bill, []string, error) {
	if prev == nil {
		return nil, nil, fmt.Errorf("%w: no previous bill", ErrMalformedUpdate)
	}
	if err := ValidateStructure(candidate); err != nil {
		return nil, nil, err
	}

	if correction {
		bill := candidate.Clone()
		for i := range bill.Items {
			bill.Items[i].AssignedTo = sanitizeAssignees(bill.Items[i].AssignedTo)
		}
		drift := describeDrift(prev, bill)
		if len(drift) > 0 {
			slog.Info("Applying correction to protected fields", "changes", drift)
		}
		return bill, drift, nil
	}

	if len(candidate.Items) != len(prev.Items) {
		return nil, nil, fmt.Errorf("%w: item count changed from %d to %d",
			ErrMalformedUpdate, len(prev.Items), len(candidate.Items))
	}

	// Rebuild from prev so receipt order and every protected field survive
	// whatever the candidate did to them. Only assignedTo is taken from
	// the candidate, matched by item ID.
	bill := prev.Clone()
	var drift []string

	matched := make(map[string]bool, len(candidate.Items))
	for _, cand := range candidate.Items {
		item := bill.Item(cand.ID)
		if item == nil {
			return nil, nil, fmt.Errorf("%w: unknown item id %q", ErrMalformedUpdate, cand.ID)
		}
		matched[cand.ID] = true

		if cand.Description != item.Description {
			drift = append(drift, fmt.Sprintf("item %s description %q reverted (candidate sent %q)",
				item.ID, item.Description, cand.Description))
		}
		if cand.Price != item.Price {
			drift = append(drift, fmt.Sprintf("item %s price %v reverted (candidate sent %v)",
				item.ID, item.Price, cand.Price))
		}

		item.AssignedTo = sanitizeAssignees(cand.AssignedTo)
	}
	if len(matched) != len(prev.Items) {
		// Equal counts plus an unmatched prev item implies a duplicate or
		// swapped ID slipped past; ValidateStructure already rejects
		// duplicates, so this is about missing coverage.
		return nil, nil, fmt.Errorf("%w: candidate does not cover all items", ErrMalformedUpdate)
	}

	drift = append(drift, describeAmountDrift(prev, candidate)...)
	if len(drift) > 0 {
		slog.Warn("Candidate bill drifted protected fields; reverted", "drift", drift)
	}

	return bill, drift, nil
}

// sanitizeAssignees trims names, drops blanks, and collapses duplicates of
// the same person within one item. Distinct names stay distinct: merging
// "Dave" into "David" is the interpretation collaborator's call, never ours.
func sanitizeAssignees(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := models.NormalizeName(raw)
		if name == "" {
			continue
		}
		key := models.PersonKey(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

// describeDrift lists protected-field differences between prev and next,
// for correction logging.
func describeDrift(prev, next *models.Bill) []string {
	var drift []string
	if len(next.Items) != len(prev.Items) {
		drift = append(drift, fmt.Sprintf("item count changed from %d to %d", len(prev.Items), len(next.Items)))
	}
	for _, item := range next.Items {
		old := prev.Item(item.ID)
		if old == nil {
			drift = append(drift, fmt.Sprintf("item %s added", item.ID))
			continue
		}
		if old.Description != item.Description {
			drift = append(drift, fmt.Sprintf("item %s description %q -> %q", item.ID, old.Description, item.Description))
		}
		if old.Price != item.Price {
			drift = append(drift, fmt.Sprintf("item %s price %v -> %v", item.ID, old.Price, item.Price))
		}
	}
	drift = append(drift, describeAmountDrift(prev, next)...)
	return drift
}

func describeAmountDrift(prev, next *models.Bill) []string {
	var drift []string
	amounts := []struct {
		field      string
		prev, next float64
	}{
		{"subtotal", prev.Subtotal, next.Subtotal},
		{"tax", prev.Tax, next.Tax},
		{"tip", prev.Tip, next.Tip},
		{"total", prev.Total, next.Total},
	}
	for _, a := range amounts {
		if a.prev != a.next {
			drift = append(drift, fmt.Sprintf("%s %v -> %v", a.field, a.prev, a.next))
		}
	}
	if prev.Currency != next.Currency {
		drift = append(drift, fmt.Sprintf("currency %q -> %q", prev.Currency, next.Currency))
	}
	return drift
}

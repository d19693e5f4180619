package llm

import (
	"encoding/json"
	"fmt"

	"github.com/Aadesh-Ghodke/splitsmart/internal/models"
)

const extractSystemPrompt = `You are an expert receipt parser. Be precise with prices. If tip is not visible, set to 0.`

const extractInstruction = `Analyze this receipt. Extract all items, prices, tax, and tip.

Your output MUST be valid JSON and contain ONLY JSON. No markdown, no explanations.

Required JSON schema:
{
  "items": [
    {
      "id": "string, unique id for the item (e.g. item_1)",
      "description": "string, name of the item",
      "price": number,
      "assignedTo": []
    }
  ],
  "subtotal": number,
  "tax": number,
  "tip": number,
  "total": number,
  "currency": "string, currency symbol (e.g. $, EUR)"
}

Leave every "assignedTo" array empty.`

// buildUpdatePrompt renders the interpretation prompt: the full current bill
// state plus the user's command and the update contract.
func buildUpdatePrompt(bill *models.Bill, userText string) string {
	state, err := json.MarshalIndent(bill, "", "  ")
	if err != nil {
		state = []byte("{}")
	}

	return fmt.Sprintf(`Current Bill State:
%s

User Command: %q

Instructions:
1. Interpret the user's command to assign items to people (e.g., "John had the burger").
2. Update the "assignedTo" array for the relevant items in the bill state.
3. If multiple people shared an item, add all their names to "assignedTo".
4. Do NOT change item ids, prices, or descriptions unless the user explicitly asked to correct a mistake.
5. If and only if the user explicitly asked to correct a price or description, apply it and set "correction" to true. Otherwise set "correction" to false.
6. Normalize names to the user's latest usage.
7. Return ONLY valid JSON, no markdown, matching this schema:
{
  "updatedBill": { ...the COMPLETE bill object, same shape as the current state... },
  "responseText": "a short, friendly confirmation message",
  "correction": boolean
}`, state, userText)
}

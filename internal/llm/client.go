// Package llm talks to the external inference service that performs receipt
// extraction and natural-language command interpretation.
//
// Both operations are non-deterministic and their output is untrusted: raw
// responses are decoded into payload structs and structurally validated
// before a typed bill ever leaves this package. Two backends are provided,
// Gemini (REST) and OpenAI, selected by configuration.
package llm

import (
	"context"

	"github.com/Aadesh-Ghodke/splitsmart/internal/models"
)

// Interpretation is the result of interpreting one user command against the
// current bill.
type Interpretation struct {
	// Candidate is the full replacement bill proposed by the model. It has
	// passed structural validation only; reconciling it against the
	// previous bill is the validator package's job.
	Candidate *models.Bill

	// ResponseText is a short conversational confirmation for display.
	ResponseText string

	// Correction is the collaborator-reported signal that the user
	// explicitly asked to change a protected field (price/description)
	// rather than only assignments.
	Correction bool
}

// Extractor converts a receipt image into a candidate bill with all
// assignedTo lists empty.
type Extractor interface {
	ExtractBill(ctx context.Context, image []byte, mimeType string) (*models.Bill, error)
}

// Interpreter converts the current bill plus free text into a candidate
// updated bill and a confirmation string.
type Interpreter interface {
	InterpretCommand(ctx context.Context, bill *models.Bill, userText string) (*Interpretation, error)
}

// Client bundles the two collaborator operations a session consumes.
type Client interface {
	Extractor
	Interpreter
}

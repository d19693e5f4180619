package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Aadesh-Ghodke/splitsmart/internal/models"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"

// GeminiClient implements Client against the generativelanguage REST API.
type GeminiClient struct {
	apiKey string
	model  string
	http   *http.Client
}

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey: apiKey,
		model:  model,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	SystemInstruction *struct {
		Parts []geminiPart `json:"parts"`
	} `json:"system_instruction,omitempty"`
	GenerationConfig map[string]any `json:"generationConfig"`
}

// ExtractBill sends the receipt image inline and decodes the JSON-only reply.
func (g *GeminiClient) ExtractBill(ctx context.Context, image []byte, mimeType string) (*models.Bill, error) {
	start := time.Now()
	parts := []geminiPart{
		{InlineData: &geminiInlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
		{Text: extractInstruction},
	}

	raw, err := g.generate(ctx, parts, extractSystemPrompt)
	if err != nil {
		observeCall("gemini", opExtract, start, err)
		return nil, fmt.Errorf("extract bill: %w", err)
	}

	bill, err := decodeBill(raw)
	observeCall("gemini", opExtract, start, err)
	if err != nil {
		return nil, fmt.Errorf("extract bill: %w", err)
	}
	return bill, nil
}

// InterpretCommand sends the current bill state and user text, returning the
// candidate replacement bill and confirmation.
func (g *GeminiClient) InterpretCommand(ctx context.Context, bill *models.Bill, userText string) (*Interpretation, error) {
	start := time.Now()
	parts := []geminiPart{{Text: buildUpdatePrompt(bill, userText)}}

	raw, err := g.generate(ctx, parts, "")
	if err != nil {
		observeCall("gemini", opInterpret, start, err)
		return nil, fmt.Errorf("interpret command: %w", err)
	}

	update, err := decodeUpdate(raw)
	observeCall("gemini", opInterpret, start, err)
	if err != nil {
		return nil, fmt.Errorf("interpret command: %w", err)
	}
	return update, nil
}

// generate performs one generateContent call and returns the first
// candidate's text, which must be valid JSON.
func (g *GeminiClient) generate(ctx context.Context, parts []geminiPart, system string) ([]byte, error) {
	if g.apiKey == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if g.model == "" {
		return nil, errors.New("missing Gemini model")
	}

	var req geminiRequest
	req.Contents = append(req.Contents, struct {
		Parts []geminiPart `json:"parts"`
	}{Parts: parts})
	req.GenerationConfig = map[string]any{
		"temperature":        0.2,
		"response_mime_type": "application/json",
	}
	if system != "" {
		req.SystemInstruction = &struct {
			Parts []geminiPart `json:"parts"`
		}{Parts: []geminiPart{{Text: system}}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf(geminiEndpoint, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini api error (status %d): %s", resp.StatusCode, raw)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("empty gemini response")
	}

	output := []byte(result.Candidates[0].Content.Parts[0].Text)
	if !json.Valid(output) {
		return nil, errors.New("gemini returned non-json output")
	}
	return output, nil
}

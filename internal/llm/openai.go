package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Aadesh-Ghodke/splitsmart/internal/models"
)

// OpenAIClient implements Client on top of the OpenAI chat completions API,
// using a vision-capable model for receipt images.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates an OpenAI-backed client.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *OpenAIClient) ExtractBill(ctx context.Context, image []byte, mimeType string) (*models.Bill, error) {
	start := time.Now()
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: extractSystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: extractInstruction,
					},
				},
			},
		},
	})
	if err != nil {
		observeCall("openai", opExtract, start, err)
		return nil, fmt.Errorf("extract bill: %w", err)
	}

	raw, err := firstChoice(resp)
	if err != nil {
		observeCall("openai", opExtract, start, err)
		return nil, fmt.Errorf("extract bill: %w", err)
	}

	bill, err := decodeBill(raw)
	observeCall("openai", opExtract, start, err)
	if err != nil {
		return nil, fmt.Errorf("extract bill: %w", err)
	}
	return bill, nil
}

func (c *OpenAIClient) InterpretCommand(ctx context.Context, bill *models.Bill, userText string) (*Interpretation, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUpdatePrompt(bill, userText),
			},
		},
	})
	if err != nil {
		observeCall("openai", opInterpret, start, err)
		return nil, fmt.Errorf("interpret command: %w", err)
	}

	raw, err := firstChoice(resp)
	if err != nil {
		observeCall("openai", opInterpret, start, err)
		return nil, fmt.Errorf("interpret command: %w", err)
	}

	update, err := decodeUpdate(raw)
	observeCall("openai", opInterpret, start, err)
	if err != nil {
		return nil, fmt.Errorf("interpret command: %w", err)
	}
	return update, nil
}

func firstChoice(resp openai.ChatCompletionResponse) ([]byte, error) {
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, errors.New("empty openai response")
	}
	return []byte(resp.Choices[0].Message.Content), nil
}

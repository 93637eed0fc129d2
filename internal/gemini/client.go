package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ModelClient is the single round-trip the engine needs from a model:
// prompt in, raw JSON text out. Tests substitute fakes for it.
type ModelClient interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Client talks to the Gemini API with JSON-only responses.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := c.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)
	return &Client{client: c, model: model}, nil
}

func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	return extractText(resp)
}

func (c *Client) Close() error { return c.client.Close() }

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok && txt != "" {
				return string(txt), nil
			}
		}
	}
	return "", errors.New("gemini returned no text payload")
}

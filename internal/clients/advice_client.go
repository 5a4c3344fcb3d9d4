package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoAPIKey means the advice client was built without credentials.
var ErrNoAPIKey = errors.New("advice api key not configured")

const adviceSystemPrompt = "You are a pet-care expert."

type AdviceClient interface {
	Ask(ctx context.Context, question, breed string) (string, error)
}

type adviceClient struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewAdviceClient talks to an OpenAI-compatible chat completions endpoint.
func NewAdviceClient(url, apiKey, model string, timeout time.Duration) AdviceClient {
	return &adviceClient{
		url:    url,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *adviceClient) Ask(ctx context.Context, question, breed string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	system := adviceSystemPrompt
	if breed != "" {
		system += fmt.Sprintf(" The owner's pet is a %s.", breed)
	}
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "RoRo-Backend/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("advice api returned status %d: %s", resp.StatusCode, string(body))
	}

	var data chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode JSON: %w", err)
	}
	if data.Error != nil {
		return "", fmt.Errorf("advice api error: %s", data.Error.Message)
	}
	if len(data.Choices) == 0 || strings.TrimSpace(data.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("advice api returned no answer")
	}

	return strings.TrimSpace(data.Choices[0].Message.Content), nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/research-intel/internal/httputil"
)

// groqAPIURL is the Groq chat completions endpoint. Package-level var for
// test substitution.
var groqAPIURL = "https://api.groq.com/openai/v1/chat/completions"

const defaultGroqModel = "mixtral-8x7b-32768"

// Groq calls Groq's OpenAI-compatible chat completions API.
type Groq struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Client      *http.Client
	Limiter     *httputil.Limiter
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Name returns "groq".
func (g *Groq) Name() string { return "groq" }

// Generate sends the messages and returns the first choice's content.
func (g *Groq) Generate(ctx context.Context, req Request) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("groq api key is empty")
	}
	body := chatRequest{
		Model:       firstNonEmpty(req.Model, g.Model, defaultGroqModel),
		Messages:    req.Messages,
		Temperature: firstPositive(req.Temperature, g.Temperature),
		MaxTokens:   int(firstPositive(float64(req.MaxTokens), float64(g.MaxTokens))),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, groqAPIURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.Limiter.Do(ctx, g.Client, httpReq, 0)
	if err != nil {
		return "", fmt.Errorf("calling Groq API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("Groq API returned %d: %s", resp.StatusCode, string(b))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding Groq response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("Groq API returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

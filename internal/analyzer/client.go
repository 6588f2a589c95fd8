package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider is the interface for text-completion model backends.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatusError reports a non-success HTTP status from a model backend. It is
// distinguished from transport faults so callers can surface the status code
// in their in-band error strings.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model API status %d: %s", e.Code, e.Body)
}

// NewProvider creates a Provider from configuration. timeoutSec 0 uses the
// 30-second default.
func NewProvider(provider, apiKey, model, endpoint string, timeoutSec int) (Provider, error) {
	timeout := 30 * time.Second
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}

	switch provider {
	case "ollama":
		ep := "http://localhost:11434"
		if endpoint != "" {
			ep = endpoint
		}
		return &OllamaProvider{
			model:    model,
			endpoint: ep,
			client:   &http.Client{Timeout: timeout},
		}, nil
	case "openai":
		ep := "https://api.openai.com/v1"
		if endpoint != "" {
			ep = endpoint
		}
		return &OpenAIProvider{
			apiKey:   apiKey,
			model:    model,
			endpoint: ep,
			client:   &http.Client{Timeout: timeout},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %q", provider)
	}
}

// --- Ollama Provider ---

// OllamaProvider implements Provider for a local Ollama instance.
type OllamaProvider struct {
	model    string
	endpoint string
	client   *http.Client
}

func (p *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model":  p.model,
		"prompt": prompt,
		"stream": false,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.endpoint+"/api/generate", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Body: truncateAPIError(respBody)}
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if result.Response == "" {
		return "No response from AI model", nil
	}
	return result.Response, nil
}

// --- OpenAI Provider ---

// OpenAIProvider implements Provider for OpenAI and compatible APIs.
type OpenAIProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.endpoint+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Body: truncateAPIError(respBody)}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}

	return result.Choices[0].Message.Content, nil
}

// truncateAPIError limits API error response bodies included in error
// strings. Returns at most 512 bytes for diagnostic purposes.
func truncateAPIError(body []byte) string {
	const maxLen = 512
	if len(body) <= maxLen {
		return string(body)
	}
	return string(body[:maxLen]) + "... (truncated)"
}

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

type groqConfig struct {
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type groqProvider struct {
	apiKey      string
	baseURL     string
	temperature float64
	maxTokens   int
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []chatMsg `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *groqProvider) Name() string {
	return "groq"
}

func (p *groqProvider) Generate(ctx context.Context, model string, systemPrompt string, userMessage string) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	messages := make([]chatMsg, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMsg{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMsg{Role: "user", Content: userMessage})
	reqBody := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Stream:      false,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("groq request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("groq response has no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func createGroqFactory(args interface{}) (IProvider, error) {
	cfg := &groqConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}
	provider := &groqProvider{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     baseURL,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	return provider, nil
}

func init() {
	Register("groq", createGroqFactory)
}

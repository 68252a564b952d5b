package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
	groqBaseURL   = "https://api.groq.com/openai/v1"
)

// ChatCompletions speaks the OpenAI chat-completions wire format. Groq
// exposes the same API at a different base URL, so both bindings share this
// adapter and differ only in construction.
type ChatCompletions struct {
	name    string
	apiKey  string
	modelID string
	baseURL string
	client  *http.Client
}

func NewOpenAI(apiKey, modelID string) *ChatCompletions {
	return &ChatCompletions{
		name:    "openai",
		apiKey:  apiKey,
		modelID: modelID,
		baseURL: openAIBaseURL,
		client:  &http.Client{},
	}
}

func NewGroq(apiKey, modelID string) *ChatCompletions {
	return &ChatCompletions{
		name:    "groq",
		apiKey:  apiKey,
		modelID: modelID,
		baseURL: groqBaseURL,
		client:  &http.Client{},
	}
}

func (c *ChatCompletions) Name() string { return c.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionsResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *ChatCompletions) Complete(ctx context.Context, req Request) (Result, error) {
	body := chatCompletionsRequest{Model: c.modelID}
	for _, t := range req.Turns {
		body.Messages = append(body.Messages, chatMessage{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("%s: marshal request: %w", c.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%s: create request: %w", c.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%s: send request: %w", c.name, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return Result{}, fmt.Errorf("%s: read response: %w", c.name, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Result{}, &StatusError{Provider: c.name, Code: res.StatusCode, Body: truncate(string(raw), 4<<10)}
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("%s: parse response: %w", c.name, err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("%s: %w", c.name, ErrEmptyReply)
	}

	model := parsed.Model
	if model == "" {
		model = c.modelID
	}

	return Result{
		Text:  strings.TrimSpace(parsed.Choices[0].Message.Content),
		Model: model,
		Usage: Usage{
			PromptTokens:   parsed.Usage.PromptTokens,
			ResponseTokens: parsed.Usage.CompletionTokens,
			TotalTokens:    parsed.Usage.TotalTokens,
		},
	}, nil
}

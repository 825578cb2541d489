package openai

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

	"interview-assistant/internal/domain"
	"interview-assistant/internal/infra"
)

const (
	DefaultChatModel = "gpt-4o-mini"
	GroqChatModel    = "llama-3.1-8b-instant"
)

// ChatClient generates text through an OpenAI-compatible
// /chat/completions endpoint.
type ChatClient struct {
	apiKey      string
	httpClient  *http.Client
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	retry       infra.RetryConfig
}

func NewChatClient(apiKey, model string) *ChatClient {
	return NewChatClientWithURL(apiKey, model, OpenAIBaseURL)
}

func NewChatClientWithURL(apiKey, model, baseURL string) *ChatClient {
	if model == "" {
		model = DefaultChatModel
	}
	return &ChatClient{
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		baseURL:     baseURL,
		model:       model,
		maxTokens:   1024,
		temperature: 0.3,
		retry:       infra.DefaultRetryConfig(),
	}
}

func (c *ChatClient) SetRetry(cfg infra.RetryConfig) {
	c.retry = cfg
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *ChatClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	bodyBytes, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var result chatResponse
	retryErr := infra.WithRetry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return infra.StatusError("chat", resp.StatusCode, respBody)
		}

		if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		return nil
	})

	if retryErr != nil {
		return "", infra.Unavailable("chat", retryErr)
	}

	if result.Error != nil {
		return "", infra.Unavailable("chat", errors.New(result.Error.Message))
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in chat response", domain.ErrUnparseableResponse)
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

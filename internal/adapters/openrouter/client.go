// Package openrouter implements the Embedder and Completer ports
// against an OpenRouter-compatible API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jggl/kb-assist/internal/domain/entities"
	"github.com/jggl/kb-assist/internal/domain/ports"
)

const (
	defaultBaseURL   = "https://openrouter.ai/api/v1"
	embedTimeout     = 30 * time.Second
	chatTimeout      = 60 * time.Second
	refererHeader    = "https://github.com/jggl/kb-assist"
	defaultChatModel = "openrouter/auto"
	defaultEmbed     = "openai/text-embedding-3-small"
)

// Client is a minimal OpenRouter API client covering the two endpoints
// the pipeline needs: /embeddings and /chat/completions.
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	embedHTTP  *http.Client
	chatHTTP   *http.Client
}

// New creates a client. Empty model names fall back to the defaults.
func New(baseURL, apiKey, chatModel, embedModel string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if chatModel == "" {
		chatModel = defaultChatModel
	}
	if embedModel == "" {
		embedModel = defaultEmbed
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
		embedHTTP:  &http.Client{Timeout: embedTimeout},
		chatHTTP:   &http.Client{Timeout: chatTimeout},
	}
}

type embedRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for text. Any transport failure,
// non-2xx status or response-shape mismatch wraps ports.ErrEmbedding.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Input: text, Model: c.embedModel})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ports.ErrEmbedding, err)
	}

	resp, err := c.post(ctx, c.embedHTTP, "/embeddings", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ports.ErrEmbedding, resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ports.ErrEmbedding, err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", ports.ErrEmbedding)
	}
	return out.Data[0].Embedding, nil
}

type chatRequest struct {
	Model       string                 `json:"model"`
	Messages    []entities.ChatMessage `json:"messages"`
	Temperature float64                `json:"temperature"`
	MaxTokens   int                    `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the message sequence to the chat model and returns
// the completion text verbatim. Failures wrap ports.ErrCompletion.
func (c *Client) Complete(ctx context.Context, messages []entities.ChatMessage, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", ports.ErrCompletion, err)
	}

	resp, err := c.post(ctx, c.chatHTTP, "/chat/completions", body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrCompletion, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ports.ErrCompletion, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ports.ErrCompletion, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ports.ErrCompletion)
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, client *http.Client, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", refererHeader)
	return client.Do(req)
}

/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package completion

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel       = openai.GPT4oMini
	DefaultMaxTokens   = 600
	DefaultTemperature = 0.2
	DefaultTimeout     = 30 * time.Second

	systemPrompt = "You are a helpful medical assistant. You receive a chronological series of lab " +
		"measurements, optionally with a reference range. Comment on trends and on values outside " +
		"the range. Be concise and factual, and do not give a diagnosis."
)

// Config holds the OpenAI-compatible endpoint configuration.
type Config struct {
	APIKey string
	// BaseURL overrides the OpenAI endpoint, e.g. for a local Ollama server.
	BaseURL     string
	Model       string
	MaxTokens   int
	// Temperature defaults to DefaultTemperature when nil. Zero is honored.
	Temperature *float32
	Timeout     time.Duration
}

// Client submits lab series to a chat completion endpoint.
type Client struct {
	client *openai.Client
	config Config
}

// New creates a completion client, filling unset fields with defaults.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	if cfg.Temperature == nil {
		temperature := float32(DefaultTemperature)
		cfg.Temperature = &temperature
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Complete sends prompt followed by payload as the user message and returns
// the trimmed reply.
func (c *Client) Complete(ctx context.Context, prompt, payload string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	// go-openai omits a zero temperature from the request body.
	temperature := *c.config.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserMessage(prompt, payload)},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}

	logger.Debug("completion received",
		"model", c.config.Model,
		"tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return text, nil
}

func buildUserMessage(prompt, payload string) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(prompt))
	sb.WriteString("\n\n---\n\n")
	sb.WriteString(payload)

	return sb.String()
}

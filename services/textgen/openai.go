// Package textgen talks to an OpenAI-compatible chat completions API.
package textgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
)

const defaultBaseURL = "https://api.openai.com/v1"

var ErrEmptyCompletion = errors.New("completion has no content")

type (
	message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	chatRequest struct {
		Model       string    `json:"model"`
		Messages    []message `json:"messages"`
		Temperature float64   `json:"temperature"`
	}

	chatResponse struct {
		Choices []struct {
			Message message `json:"message"`
		} `json:"choices"`
		Error *apiError `json:"error,omitempty"`
	}

	apiError struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	}
)

type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewClient(conf *core.Config) *Client {
	baseURL := strings.TrimRight(conf.TextGen.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  conf.TextGen.APIKey,
		model:   conf.TextGen.Model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Complete sends a system and a user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	payload, err := sonic.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "building chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling chat completions")
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading chat response")
	}

	var out chatResponse
	if err = sonic.Unmarshal(body, &out); err != nil {
		return "", errors.Wrapf(err, "decoding chat response (status %d)", res.StatusCode)
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat completions: %s (%s)", out.Error.Message, out.Error.Type)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions: status %d", res.StatusCode)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return out.Choices[0].Message.Content, nil
}

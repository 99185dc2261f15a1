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

// maxResponseBytes caps provider responses read into memory.
const maxResponseBytes = 4 << 20

// ChatCompletions talks to an OpenAI-compatible /v1/chat/completions endpoint
// (OpenAI itself, LM Studio).
type ChatCompletions struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewChatCompletions(client *http.Client, baseURL, apiKey, model string) *ChatCompletions {
	return &ChatCompletions{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

func (c *ChatCompletions) Model() string {
	return c.model
}

func (c *ChatCompletions) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0,
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := postJSON(ctx, c.client, c.baseURL+"/v1/chat/completions", headers, reqBody, &result); err != nil {
		return "", err
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("unexpected response format from %s: no choices", c.baseURL)
	}
	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty completion from %s", c.baseURL)
	}
	return content, nil
}

// Ollama talks to a local Ollama server's /api/generate endpoint.
type Ollama struct {
	client  *http.Client
	baseURL string
	model   string
}

func NewOllama(client *http.Client, baseURL, model string) *Ollama {
	return &Ollama{client: client, baseURL: strings.TrimRight(baseURL, "/"), model: model}
}

func (o *Ollama) Model() string {
	return o.model
}

func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0,
		},
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := postJSON(ctx, o.client, o.baseURL+"/api/generate", nil, reqBody, &result); err != nil {
		return "", err
	}

	response := strings.TrimSpace(result.Response)
	if response == "" {
		return "", fmt.Errorf("unexpected response format from Ollama")
	}
	return response, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d: %s", url, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

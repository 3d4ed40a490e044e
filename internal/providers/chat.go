package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"decaprep/internal/util"
)

const tutorSystemPrompt = "You are a DECA exam tutor. Explain answers concisely and stay grounded in the provided question."

// chatEndpoint is an OpenAI-compatible chat completions API.
type chatEndpoint struct {
	name    string
	url     string
	apiKey  string
	keyName string
	model   string
	client  *http.Client
}

func (c chatEndpoint) info() ProviderInfo {
	return ProviderInfo{Name: c.name, Model: c.model, Key: c.keyName}
}

func (c chatEndpoint) generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := c.info()
	if c.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("%w: %s key missing for alias %q", util.ErrUnauthorized, c.name, c.keyName)
	}
	prompt := req.Prompt
	if len(req.Context) > 0 {
		prompt += "\n\nContext:\n" + strings.Join(req.Context, "\n\n")
	}
	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": tutorSystemPrompt},
			{"role": "user", "content": prompt},
		},
	}
	if req.Config.Temperature > 0 {
		body["temperature"] = req.Config.Temperature
	}
	if req.Config.MaxTokens > 0 {
		body["max_tokens"] = req.Config.MaxTokens
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("%w: encode %s request: %v", util.ErrPermanent, c.name, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("%w: build %s request: %v", util.ErrPermanent, c.name, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("%w: %s request failed: %v", util.ErrTransient, c.name, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("%w: read %s response: %v", util.ErrTransient, c.name, err)
	}
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, info, statusError(c.name, resp.StatusCode, raw)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return GenerateResponse{}, info, fmt.Errorf("%w: decode %s response: %v", util.ErrPermanent, c.name, err)
	}
	if len(parsed.Choices) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("%w: %s returned empty choices", util.ErrPermanent, c.name)
	}
	if parsed.Choices[0].FinishReason == "content_filter" {
		return GenerateResponse{}, info, fmt.Errorf("%w: %s filtered the completion", util.ErrContentBlocked, c.name)
	}
	return GenerateResponse{Text: parsed.Choices[0].Message.Content}, info, nil
}

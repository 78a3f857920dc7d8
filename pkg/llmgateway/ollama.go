package llmgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// SecondaryConfig configures the self-hosted fallback provider, a plain
// Ollama-style /api/generate endpoint (§6: no auth, single prompt field,
// streaming disabled).
type SecondaryConfig struct {
	BaseURL string
	Model   string
}

type secondaryProvider struct {
	baseURL string
	model   string
	http    *http.Client
}

func newSecondaryProvider(cfg SecondaryConfig, httpClient *http.Client) *secondaryProvider {
	return &secondaryProvider{baseURL: cfg.BaseURL, model: cfg.Model, http: httpClient}
}

func (p *secondaryProvider) name() Provider { return ProviderSecondary }

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response   string `json:"response"`
	Done       bool   `json:"done"`
	EvalCount  int    `json:"eval_count"`
	PromptEval int    `json:"prompt_eval_count"`
}

func (p *secondaryProvider) call(ctx context.Context, prompt string) (text string, tokens int, err error) {
	body, err := json.Marshal(generateRequest{
		Model:   p.model,
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{Temperature: temperature},
	})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("secondary provider returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, err
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", 0, parseFailure{err}
	}
	if parsed.Response == "" {
		return "", 0, parseFailure{errors.New("secondary provider returned empty response")}
	}

	if parsed.EvalCount > 0 || parsed.PromptEval > 0 {
		tokens = parsed.EvalCount + parsed.PromptEval
	}
	return parsed.Response, tokens, nil
}

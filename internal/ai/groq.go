package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lifeos/internal/models"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider is the fast/cheap adapter. Groq speaks the OpenAI
// chat-completions wire format.
type GroqProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGroqProvider creates the adapter. A missing API key is not an error
// here; Generate reports it when actually invoked.
func NewGroqProvider(apiKey, model string) *GroqProvider {
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	return &GroqProvider{
		apiKey:  apiKey,
		baseURL: defaultGroqBaseURL,
		model:   model,
		client:  defaultHTTPClient(),
	}
}

// SetBaseURL overrides the upstream endpoint. Used by tests to point the
// adapter at a local fake.
func (p *GroqProvider) SetBaseURL(u string) { p.baseURL = u }

func (p *GroqProvider) Name() string { return "groq" }

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqRequest struct {
	Model          string        `json:"model"`
	Messages       []groqMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate calls Groq's chat-completions endpoint with the normalized
// request and maps the reply into an AIResponse.
func (p *GroqProvider) Generate(ctx context.Context, req models.AIRequest) (*models.AIResponse, error) {
	if p.apiKey == "" {
		return nil, &ProviderError{
			Provider: p.Name(),
			Message:  "missing credential",
			Err:      &ConfigurationError{Key: "GROQ_API_KEY"},
		}
	}

	model := p.model
	if req.ModelOverride != "" {
		model = req.ModelOverride
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = 0.5
	}

	body := groqRequest{
		Model: model,
		Messages: []groqMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Temperature: temperature,
	}
	if req.JSONMode {
		body.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: "failed to marshal request", Err: err}
	}

	started := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: "failed to create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   p.Name(),
			Model:      model,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(raw), 200),
		}
	}

	var apiResp groqResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: "failed to parse response", Err: err}
	}
	if len(apiResp.Choices) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Model: model, Message: "empty choices in response"}
	}

	return &models.AIResponse{
		Text:       apiResp.Choices[0].Message.Content,
		TokensUsed: apiResp.Usage.TotalTokens,
		ElapsedMs:  time.Since(started).Milliseconds(),
		ModelUsed:  model,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}

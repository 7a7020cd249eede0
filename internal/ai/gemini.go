package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lifeos/internal/models"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider is the higher-context adapter. It carries two model
// classes: a flash model for speed-tier failover and a pro model for
// deep reasoning.
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	flashModel string
	proModel   string
	client     *http.Client
}

// NewGeminiProvider creates the adapter. Construction always succeeds;
// a missing key only matters once Generate runs.
func NewGeminiProvider(apiKey, flashModel, proModel string) *GeminiProvider {
	if flashModel == "" {
		flashModel = "gemini-1.5-flash"
	}
	if proModel == "" {
		proModel = "gemini-1.5-pro"
	}
	return &GeminiProvider{
		apiKey:     apiKey,
		baseURL:    defaultGeminiBaseURL,
		flashModel: flashModel,
		proModel:   proModel,
		client:     defaultHTTPClient(),
	}
}

// SetBaseURL overrides the upstream endpoint for tests.
func (p *GeminiProvider) SetBaseURL(u string) { p.baseURL = u }

func (p *GeminiProvider) Name() string { return "gemini" }

// FlashModel returns the model string for the speed-tier fallback.
func (p *GeminiProvider) FlashModel() string { return p.flashModel }

// ProModel returns the model string for the deep-reasoning tier.
func (p *GeminiProvider) ProModel() string { return p.proModel }

type geminiRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature      float64 `json:"temperature"`
		ResponseMimeType string  `json:"responseMimeType,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Generate calls the generateContent endpoint. Gemini has no separate
// system role on this wire, so the system prompt is prepended to the task.
func (p *GeminiProvider) Generate(ctx context.Context, req models.AIRequest) (*models.AIResponse, error) {
	if p.apiKey == "" {
		return nil, &ProviderError{
			Provider: p.Name(),
			Message:  "missing credential",
			Err:      &ConfigurationError{Key: "GEMINI_API_KEY"},
		}
	}

	model := p.flashModel
	if req.ModelOverride != "" {
		model = req.ModelOverride
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	var body geminiRequest
	body.Contents = append(body.Contents, struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}{
		Role: "user",
		Parts: []struct {
			Text string `json:"text"`
		}{{Text: req.SystemPrompt + "\n\nTask: " + req.UserPrompt}},
	})
	body.GenerationConfig.Temperature = temperature
	if req.JSONMode {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: "failed to marshal request", Err: err}
	}

	started := time.Now()

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: "failed to create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

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

	var apiResp geminiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Message: "failed to parse response", Err: err}
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Model: model, Message: "empty candidates in response"}
	}

	var text strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return &models.AIResponse{
		Text:       text.String(),
		TokensUsed: apiResp.UsageMetadata.TotalTokenCount,
		ElapsedMs:  time.Since(started).Milliseconds(),
		ModelUsed:  model,
	}, nil
}

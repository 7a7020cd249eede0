package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lifeos/internal/models"
)

func TestGroqProvider_MissingKey(t *testing.T) {
	provider := NewGroqProvider("", "")

	_, err := provider.Generate(context.Background(), models.AIRequest{UserPrompt: "hi"})
	if err == nil {
		t.Fatal("Expected an error with no API key")
	}

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigurationError in the chain, got %v", err)
	}
	if cfgErr.Key != "GROQ_API_KEY" {
		t.Errorf("Expected GROQ_API_KEY, got %q", cfgErr.Key)
	}
}

func TestGroqProvider_Generate(t *testing.T) {
	var gotAuth string
	var gotBody groqRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": `["focus","deep-work"]`}},
			},
			"usage": map[string]int{"total_tokens": 42},
		})
	}))
	defer server.Close()

	provider := NewGroqProvider("test-key", "llama-3.1-8b-instant")
	provider.SetBaseURL(server.URL)

	resp, err := provider.Generate(context.Background(), models.AIRequest{
		SystemPrompt: "You tag things.",
		UserPrompt:   "treino de manhã",
		JSONMode:     true,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if gotBody.Model != "llama-3.1-8b-instant" {
		t.Errorf("Expected configured model, got %q", gotBody.Model)
	}
	if gotBody.ResponseFormat == nil || gotBody.ResponseFormat.Type != "json_object" {
		t.Error("JSONMode should request json_object response format")
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Errorf("Expected system+user messages, got %+v", gotBody.Messages)
	}

	if resp.Text != `["focus","deep-work"]` {
		t.Errorf("Unexpected text: %q", resp.Text)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("Expected 42 tokens, got %d", resp.TokensUsed)
	}
	if resp.ModelUsed != "llama-3.1-8b-instant" {
		t.Errorf("Unexpected model: %q", resp.ModelUsed)
	}
}

func TestGroqProvider_ModelOverride(t *testing.T) {
	var gotBody groqRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "ok"}}},
		})
	}))
	defer server.Close()

	provider := NewGroqProvider("test-key", "llama-3.1-8b-instant")
	provider.SetBaseURL(server.URL)

	resp, err := provider.Generate(context.Background(), models.AIRequest{
		UserPrompt:    "hi",
		ModelOverride: "llama-3.3-70b-versatile",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gotBody.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Override should win, got %q", gotBody.Model)
	}
	if resp.ModelUsed != "llama-3.3-70b-versatile" {
		t.Errorf("Response should report the override, got %q", resp.ModelUsed)
	}
}

func TestGroqProvider_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewGroqProvider("test-key", "")
	provider.SetBaseURL(server.URL)

	_, err := provider.Generate(context.Background(), models.AIRequest{UserPrompt: "hi"})
	if err == nil {
		t.Fatal("Expected an error on 429")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected *ProviderError, got %T", err)
	}
	if provErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", provErr.StatusCode)
	}
	if provErr.Provider != "groq" {
		t.Errorf("Expected provider groq, got %q", provErr.Provider)
	}
}

func TestGroqProvider_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	provider := NewGroqProvider("test-key", "")
	provider.SetBaseURL(server.URL)

	_, err := provider.Generate(context.Background(), models.AIRequest{UserPrompt: "hi"})
	if err == nil {
		t.Fatal("Expected an error on empty choices")
	}
}

package ai

import (
	"context"
	"net/http"
	"time"

	"lifeos/internal/models"
)

// Provider is the uniform capability every adapter implements: translate
// the normalized request into the provider's wire format, call it, and
// translate the reply back into a normalized AIResponse.
//
// Generate returns a *ProviderError on network failure, a non-2xx upstream
// response, or a malformed upstream payload. A missing API key also
// surfaces here, never at construction time, so the rest of the system can
// degrade instead of failing at startup.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req models.AIRequest) (*models.AIResponse, error)
}

// defaultHTTPClient is shared by the adapters. LLM responses can be slow,
// so the timeout is generous.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

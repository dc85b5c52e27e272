// Package llmclient talks to an OpenAI-compatible chat-completions endpoint
// used by the model-assisted scoring strategy.
package llmclient

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/syncedsports/refassign/internal/config"
)

// Client is an HTTP client for the reasoning service. Every call is bounded
// by the configured timeout; callers treat any error as the service being
// unavailable.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	defaultModel string
}

// NewClient creates a reasoning-service client from configuration. The API
// key is read from the environment variable named in the config.
func NewClient(cfg *config.Config) *Client {
	apiKey := ""
	if cfg.LLM.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.LLM.APIKeyEnv)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		},
		baseURL:      strings.TrimRight(cfg.LLM.BaseURL, "/"),
		apiKey:       apiKey,
		defaultModel: cfg.LLM.DefaultModel,
	}
}

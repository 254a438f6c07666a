// Package llm provides the model-provider transport.
package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// Format hints how the model should shape its reply text.
type Format string

const (
	// FormatText requests freeform prose.
	FormatText Format = "text"
	// FormatJSON requests a single JSON value as the entire reply.
	FormatJSON Format = "json"
)

// CompletionRequest is a single prompt for the model.
type CompletionRequest struct {
	// System is the system instruction, empty for none.
	System string
	// Prompt is the user-turn text.
	Prompt string
	// ResponseFormat hints the reply shape. Providers treat it as advisory;
	// callers still validate what comes back.
	ResponseFormat Format
	// Temperature controls sampling. Zero means provider default.
	Temperature float64
	// MaxTokens bounds the reply length. Zero means provider default.
	MaxTokens int
}

// Client is the interface all model providers implement. The rest of the
// system treats the provider as an opaque text-in, text-out dependency.
type Client interface {
	// Complete sends one completion request and returns the raw reply text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Ping checks if the provider is reachable and the credential works.
	Ping(ctx context.Context) error
}

// APIError is a non-2xx response from the provider. Status 429 and 5xx are
// transient provider conditions; retry classification happens in callers.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error %d: %s", e.Status, e.Body)
}

package persona

import (
	"context"
	"log/slog"
	"time"

	"github.com/wayfarerhq/wayfarer/internal/backoff"
	"github.com/wayfarerhq/wayfarer/internal/extract"
	"github.com/wayfarerhq/wayfarer/internal/llm"
	"github.com/wayfarerhq/wayfarer/internal/prompts"
)

// busyReply is the canned text for the degraded path.
const busyReply = "All of our guides are helping other travelers right now. Give me a moment and ask again."

const (
	routerTemperature = 0.7
	maxReplyTokens    = 1024
)

// RoutedReply is one persona-attributed answer. It is created per request
// and owned by the caller; nothing is kept server-side.
type RoutedReply struct {
	PersonaID   string    `json:"personaId"`
	PersonaName string    `json:"personaDisplayName"`
	Text        string    `json:"replyText"`
	Timestamp   time.Time `json:"timestamp"`
}

// Router answers traveler messages in character. One model call both
// classifies the message against the persona roster and produces the
// in-character reply.
type Router struct {
	client llm.Client
	policy backoff.Policy
	logger *slog.Logger
}

// NewRouter creates a router sharing the pipeline's retry policy.
func NewRouter(client llm.Client, policy backoff.Policy, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		client: client,
		policy: policy,
		logger: logger,
	}
}

// routedResponse is the wire shape the model is instructed to return.
type routedResponse struct {
	PersonaID string `json:"personaId"`
	Reply     string `json:"reply"`
}

// Ask routes a message and returns an in-character reply. Ask never fails
// outward: if the model call exhausts its retries or the output cannot be
// extracted, the default persona answers with a canned busy message, a
// conversational dead end is worse than a generic reply. The only
// non-reply outcome is cancellation of ctx, returned as its error.
//
// If the model names a persona outside the roster, the default persona is
// substituted and the reply text kept; that is a fallback, not a failure.
func (r *Router) Ask(ctx context.Context, message, tripContext string) (RoutedReply, error) {
	parsed, err := backoff.Invoke(ctx, r.logger, r.policy, func(ctx context.Context) (routedResponse, error) {
		raw, cerr := r.client.Complete(ctx, llm.CompletionRequest{
			System:         prompts.RouterSystem(Roster()),
			Prompt:         prompts.RouteMessage(message, tripContext),
			ResponseFormat: llm.FormatJSON,
			Temperature:    routerTemperature,
			MaxTokens:      maxReplyTokens,
		})
		if cerr != nil {
			return routedResponse{}, cerr
		}

		var resp routedResponse
		if eerr := extract.ExtractInto(raw, extract.Object, &resp); eerr != nil {
			return routedResponse{}, eerr
		}
		if resp.Reply == "" {
			return routedResponse{}, backoff.Permanent(errEmptyReply)
		}
		return resp, nil
	})

	if err != nil {
		// Cancellation stays a distinct outcome so callers can tell
		// "user walked away" apart from "service degraded".
		if ctx.Err() != nil {
			return RoutedReply{}, ctx.Err()
		}

		r.logger.Warn("routing degraded to busy reply", "error", err)
		fallback := Default()
		return RoutedReply{
			PersonaID:   fallback.ID,
			PersonaName: fallback.DisplayName,
			Text:        busyReply,
			Timestamp:   time.Now().UTC(),
		}, nil
	}

	chosen, ok := ByID(parsed.PersonaID)
	if !ok {
		r.logger.Debug("model picked unknown persona, substituting default",
			"picked", parsed.PersonaID,
		)
		chosen = Default()
	}

	return RoutedReply{
		PersonaID:   chosen.ID,
		PersonaName: chosen.DisplayName,
		Text:        parsed.Reply,
		Timestamp:   time.Now().UTC(),
	}, nil
}

var errEmptyReply = &emptyReplyError{}

type emptyReplyError struct{}

func (*emptyReplyError) Error() string { return "model returned an empty reply" }

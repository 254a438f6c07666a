package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/wayfarerhq/wayfarer/internal/backoff"
	"github.com/wayfarerhq/wayfarer/internal/extract"
	"github.com/wayfarerhq/wayfarer/internal/llm"
	"github.com/wayfarerhq/wayfarer/internal/prompts"
)

// Model call parameters shared by all itinerary operations. Generation is
// creative; the rewrites stay closer to the input document.
const (
	generateTemperature = 0.8
	rewriteTemperature  = 0.4
	maxDocumentTokens   = 8192
)

// Pipeline runs the three document operations against the model provider.
// It is stateless: every call builds its own request and owns its own
// retry budget, so concurrent calls need no coordination.
type Pipeline struct {
	client llm.Client
	policy backoff.Policy
	logger *slog.Logger
}

// NewPipeline creates a pipeline. The policy governs retries for every
// operation; see the backoff package for its semantics.
func NewPipeline(client llm.Client, policy backoff.Policy, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		client: client,
		policy: policy,
		logger: logger,
	}
}

// Generate produces a brand-new TravelDocument for the given criteria.
// Invalid criteria fail fast with a *ValidationError before any model call.
func (p *Pipeline) Generate(ctx context.Context, criteria Criteria) (*TravelDocument, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	prompt := prompts.GenerateItinerary(
		criteria.Destination,
		criteria.DurationDays,
		string(criteria.BudgetTier),
		string(criteria.Arrangement),
		criteria.Interests,
	)

	return p.invoke(ctx, "generate", prompt, generateTemperature, func(doc *TravelDocument) error {
		if doc.Days() != criteria.DurationDays {
			return &ValidationError{
				Field:  "itinerary",
				Reason: fmt.Sprintf("got %d days, want %d", doc.Days(), criteria.DurationDays),
			}
		}
		return nil
	})
}

// Constrain rewrites the document's activities to fit under a budget
// ceiling. The ceiling is advisory: the model is instructed to respect
// it but the result is not rejected if the total still exceeds it;
// callers re-check when the ceiling is business-critical. The day count
// and every non-mutable section of the input are preserved.
func (p *Pipeline) Constrain(ctx context.Context, doc *TravelDocument, ceiling int) (*TravelDocument, error) {
	if doc == nil {
		panic("plan: nil document")
	}
	if ceiling < 0 {
		return nil, &ValidationError{Field: "ceiling", Reason: "must be non-negative"}
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("input document: %w", err)
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	out, err := p.invoke(ctx, "constrain",
		prompts.ConstrainItinerary(string(docJSON), ceiling, doc.Days()),
		rewriteTemperature, dayCountCheck(doc.Days()))
	if err != nil {
		return nil, err
	}

	return graftMutation(doc, out), nil
}

// Recontextualize rewrites only the activity lists to suit a mid-trip
// situation, leaving the rest of the document intact apart from the
// summary description.
func (p *Pipeline) Recontextualize(ctx context.Context, doc *TravelDocument, situation Situation) (*TravelDocument, error) {
	if doc == nil {
		panic("plan: nil document")
	}
	if !situation.Valid() {
		return nil, &ValidationError{Field: "situation", Reason: fmt.Sprintf("unknown situation %q", situation)}
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("input document: %w", err)
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	out, err := p.invoke(ctx, "recontextualize",
		prompts.RecontextualizeItinerary(string(docJSON), string(situation), doc.Days()),
		rewriteTemperature, dayCountCheck(doc.Days()))
	if err != nil {
		return nil, err
	}

	return graftMutation(doc, out), nil
}

// invoke runs one model call through the retry machinery. Transport and
// extraction failures are retried; a fresh model call can produce clean
// output where re-parsing the same broken text cannot. Validation
// failures are permanent: identical requests reproduce systematic shape
// mismatches, so the budget is not spent on them.
func (p *Pipeline) invoke(ctx context.Context, op, prompt string, temperature float64, check func(*TravelDocument) error) (*TravelDocument, error) {
	logger := p.logger.With("op", op)

	return backoff.Invoke(ctx, logger, p.policy, func(ctx context.Context) (*TravelDocument, error) {
		raw, err := p.client.Complete(ctx, llm.CompletionRequest{
			System:         prompts.ItinerarySystem,
			Prompt:         prompt,
			ResponseFormat: llm.FormatJSON,
			Temperature:    temperature,
			MaxTokens:      maxDocumentTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("model call: %w", err)
		}

		var doc TravelDocument
		if err := extract.ExtractInto(raw, extract.Object, &doc); err != nil {
			logger.Warn("model output not extractable", "error", err)
			return nil, fmt.Errorf("extract document: %w", err)
		}

		if err := doc.Validate(); err != nil {
			return nil, backoff.Permanent(err)
		}
		if check != nil {
			if err := check(&doc); err != nil {
				return nil, backoff.Permanent(err)
			}
		}

		return &doc, nil
	})
}

// dayCountCheck enforces the mutation postcondition that the day count
// never changes.
func dayCountCheck(want int) func(*TravelDocument) error {
	return func(doc *TravelDocument) error {
		if doc.Days() != want {
			return &ValidationError{
				Field:  "itinerary",
				Reason: fmt.Sprintf("mutation changed day count from %d to %d", want, doc.Days()),
			}
		}
		return nil
	}
}

// graftMutation applies a mutation result onto the input document,
// carrying over only the fields a mutation is allowed to change:
// activities, the summary description, and the recomputed total cost.
// Everything identity-bearing (title, day titles, packing list, wisdom,
// vibe tags) comes from the input, which makes the immutability contract
// hold by construction even when the model drifts.
func graftMutation(in, out *TravelDocument) *TravelDocument {
	result := *in

	result.Itinerary = make([]Day, len(in.Itinerary))
	for i, day := range in.Itinerary {
		result.Itinerary[i] = day
		result.Itinerary[i].Activities = out.Itinerary[i].Activities
	}

	result.Summary.Description = out.Summary.Description
	result.Summary.TotalEstimatedCost = out.Summary.TotalEstimatedCost

	return &result
}

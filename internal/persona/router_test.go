package persona

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wayfarerhq/wayfarer/internal/backoff"
	"github.com/wayfarerhq/wayfarer/internal/llm"
)

type fakeClient struct {
	responses []fakeResponse
	requests  []llm.CompletionRequest
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeClient) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return "", errors.New("fakeClient: no scripted response left")
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r.text, r.err
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func testPolicy() backoff.Policy {
	return backoff.Policy{MaxRetries: 1, InitialDelay: time.Millisecond}
}

func TestAskRoutesToNamedPersona(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{text: `{"personaId": "food-concierge", "reply": "Try the grilled limpets at the harbor."}`},
	}}
	r := NewRouter(client, testPolicy(), nil)

	reply, err := r.Ask(context.Background(), "where should I eat tonight?", "")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	if reply.PersonaID != "food-concierge" {
		t.Errorf("persona = %q", reply.PersonaID)
	}
	if reply.PersonaName != "Sole" {
		t.Errorf("display name = %q", reply.PersonaName)
	}
	if !strings.Contains(reply.Text, "limpets") {
		t.Errorf("text = %q", reply.Text)
	}
	if reply.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestAskSystemPromptCarriesRoster(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{text: `{"personaId": "culture-guide", "reply": "ok"}`},
	}}
	r := NewRouter(client, testPolicy(), nil)

	if _, err := r.Ask(context.Background(), "hi", ""); err != nil {
		t.Fatalf("ask: %v", err)
	}

	system := client.requests[0].System
	for _, p := range All() {
		if !strings.Contains(system, p.ID) {
			t.Errorf("system prompt missing persona %q", p.ID)
		}
	}
}

func TestAskUnknownPersonaFallsBackToDefault(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{text: `{"personaId": "trip-wizard", "reply": "Greetings, traveler!"}`},
	}}
	r := NewRouter(client, testPolicy(), nil)

	reply, err := r.Ask(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	// The reply text is kept; only the attribution moves to the default.
	if reply.PersonaID != DefaultID {
		t.Errorf("persona = %q, want default %q", reply.PersonaID, DefaultID)
	}
	if reply.Text != "Greetings, traveler!" {
		t.Errorf("text = %q", reply.Text)
	}
}

func TestAskDegradesOnExhaustedTransport(t *testing.T) {
	transportErr := &llm.APIError{Status: 503, Body: "overloaded"}
	client := &fakeClient{responses: []fakeResponse{
		{err: transportErr}, {err: transportErr},
	}}
	r := NewRouter(client, testPolicy(), nil)

	reply, err := r.Ask(context.Background(), "help", "")
	if err != nil {
		t.Fatalf("ask must not fail outward: %v", err)
	}

	if reply.PersonaID != DefaultID {
		t.Errorf("persona = %q, want default", reply.PersonaID)
	}
	if reply.Text == "" {
		t.Error("busy reply text empty")
	}
	if len(client.requests) != 2 {
		t.Errorf("model calls = %d, want 2 (budget of 1 retry)", len(client.requests))
	}
}

func TestAskDegradesOnGarbledOutput(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{text: "no json here"},
		{text: "still no json"},
	}}
	r := NewRouter(client, testPolicy(), nil)

	reply, err := r.Ask(context.Background(), "help", "")
	if err != nil {
		t.Fatalf("ask must not fail outward: %v", err)
	}
	if reply.PersonaID != DefaultID {
		t.Errorf("persona = %q, want default", reply.PersonaID)
	}
}

func TestAskAlwaysReturnsRegistryPersona(t *testing.T) {
	outputs := []string{
		`{"personaId": "budget-advisor", "reply": "a"}`,
		`{"personaId": "SAFETY-RESPONDER", "reply": "b"}`, // wrong case: not in set
		`{"personaId": "", "reply": "c"}`,
		`broken output`,
	}

	for _, out := range outputs {
		client := &fakeClient{responses: []fakeResponse{{text: out}, {text: out}}}
		r := NewRouter(client, testPolicy(), nil)

		reply, err := r.Ask(context.Background(), "anything", "")
		if err != nil {
			t.Fatalf("output %q: %v", out, err)
		}
		if _, ok := ByID(reply.PersonaID); !ok {
			t.Errorf("output %q produced persona %q outside the registry", out, reply.PersonaID)
		}
		if reply.Text == "" {
			t.Errorf("output %q produced empty reply text", out)
		}
	}
}

func TestAskCancellationIsDistinct(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{}
	r := NewRouter(client, testPolicy(), nil)

	_, err := r.Ask(ctx, "hello", "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled (not a busy reply)", err)
	}
	if len(client.requests) != 0 {
		t.Errorf("model calls = %d, want 0", len(client.requests))
	}
}

func TestAskEmptyReplyNotRetriedAndDegrades(t *testing.T) {
	client := &fakeClient{responses: []fakeResponse{
		{text: `{"personaId": "budget-advisor", "reply": ""}`},
	}}
	r := NewRouter(client, testPolicy(), nil)

	reply, err := r.Ask(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if len(client.requests) != 1 {
		t.Errorf("model calls = %d, want 1 (empty reply is permanent)", len(client.requests))
	}
	if reply.PersonaID != DefaultID {
		t.Errorf("persona = %q, want default", reply.PersonaID)
	}
}

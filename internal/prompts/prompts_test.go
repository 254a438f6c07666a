package prompts

import (
	"strings"
	"testing"
)

func TestGenerateItinerary(t *testing.T) {
	p := GenerateItinerary("Flores", 3, "medium", "couple", []string{"Nature", "Food"})

	for _, want := range []string{"Flores", "3-day", "medium", "couple", "Nature, Food", "exactly 3 days", `"dayNumber"`} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateItineraryNoInterests(t *testing.T) {
	p := GenerateItinerary("Oslo", 2, "luxury", "solo", nil)
	if strings.Contains(p, "Interests:") {
		t.Error("prompt should omit interests line when none given")
	}
}

func TestConstrainItinerary(t *testing.T) {
	p := ConstrainItinerary(`{"summary":{}}`, 50000, 4)

	for _, want := range []string{"50000", "exactly 4 days", `{"summary":{}}`, "cheaper or free"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRecontextualizeItinerary(t *testing.T) {
	tests := []struct {
		situation string
		want      string
	}{
		{"adverse-weather", "indoor"},
		{"fatigue", "slow the pace"},
		{"low-engagement", "memorable"},
		{"something-else", "something-else"},
	}

	for _, tt := range tests {
		p := RecontextualizeItinerary("{}", tt.situation, 2)
		if !strings.Contains(p, tt.want) {
			t.Errorf("situation %q: prompt missing %q", tt.situation, tt.want)
		}
		if !strings.Contains(p, "exactly 2 days") {
			t.Errorf("situation %q: prompt missing day constraint", tt.situation)
		}
	}
}

func TestRouterSystem(t *testing.T) {
	roster := "- budget-advisor: money questions\n- culture-guide: local customs\n"
	p := RouterSystem(roster)

	if !strings.Contains(p, "budget-advisor") {
		t.Error("system prompt missing roster entries")
	}
	if !strings.Contains(p, `"personaId"`) {
		t.Error("system prompt missing reply schema")
	}
}

func TestRouteMessage(t *testing.T) {
	if got := RouteMessage("where to eat?", ""); got != "where to eat?" {
		t.Errorf("plain message = %q", got)
	}

	got := RouteMessage("where to eat?", "3 days in Lisbon")
	if !strings.Contains(got, "3 days in Lisbon") || !strings.Contains(got, "where to eat?") {
		t.Errorf("contextual message = %q", got)
	}
}

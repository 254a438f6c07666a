// Package persona routes traveler messages to a fixed set of specialist
// personas and answers in character.
package persona

import (
	"fmt"
	"strings"
)

// Persona is one named response style. Personas are process-wide static
// configuration: built at init, read-only afterward, addressed by ID.
type Persona struct {
	ID          string
	DisplayName string
	Tone        string
	Color       string // accent color for the UI layer
}

// DefaultID is the persona substituted when the model picks an unknown
// ID and the one used for the degraded "service busy" reply.
const DefaultID = "culture-guide"

// registry is the fixed persona set. Never mutated after init.
var registry = []Persona{
	{
		ID:          "budget-advisor",
		DisplayName: "Penny",
		Tone:        "practical and numbers-first, always names a cheaper alternative",
		Color:       "#2e7d32",
	},
	{
		ID:          "culture-guide",
		DisplayName: "Mara",
		Tone:        "warm and curious, explains local customs and etiquette",
		Color:       "#6a1b9a",
	},
	{
		ID:          "safety-responder",
		DisplayName: "Dov",
		Tone:        "calm and direct, leads with the safest concrete action",
		Color:       "#c62828",
	},
	{
		ID:          "food-concierge",
		DisplayName: "Sole",
		Tone:        "enthusiastic and specific, recommends dishes before restaurants",
		Color:       "#ef6c00",
	},
	{
		ID:          "content-coach",
		DisplayName: "Nico",
		Tone:        "upbeat and visual, frames every answer as a story worth capturing",
		Color:       "#1565c0",
	},
}

var byID = func() map[string]Persona {
	m := make(map[string]Persona, len(registry))
	for _, p := range registry {
		m[p.ID] = p
	}
	return m
}()

// All returns the full persona set in registry order. The returned slice
// is a copy; callers may not mutate the registry.
func All() []Persona {
	out := make([]Persona, len(registry))
	copy(out, registry)
	return out
}

// ByID looks up a persona. ok is false for unknown IDs.
func ByID(id string) (Persona, bool) {
	p, ok := byID[id]
	return p, ok
}

// Default returns the fallback persona.
func Default() Persona {
	return byID[DefaultID]
}

// Roster renders the persona set as "- id: description" lines for the
// router's system prompt.
func Roster() string {
	var b strings.Builder
	for _, p := range registry {
		fmt.Fprintf(&b, "- %s: %s\n", p.ID, p.Tone)
	}
	return b.String()
}

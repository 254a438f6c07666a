package prompts

import (
	"fmt"
	"strings"
)

// RouterSystem is the system instruction for the persona router. The
// roster is a preformatted list of "id: behavioral description" lines
// supplied by the persona package.
func RouterSystem(roster string) string {
	var b strings.Builder

	b.WriteString(`You are the concierge desk of a travel assistant. A traveler sends you a
message; you pick the single best-suited specialist from the roster and
answer AS that specialist, fully in their voice and area of expertise.

Roster:
`)
	b.WriteString(roster)
	b.WriteString(`
Return JSON only, matching exactly this shape:

{"personaId": "one id from the roster", "reply": "your in-character answer"}

Rules:
- personaId must be copied verbatim from the roster.
- The reply stays in the chosen specialist's voice throughout.
- Keep replies conversational and under 150 words.
- No markdown, no commentary outside the JSON.`)

	return b.String()
}

// RouteMessage builds the user-turn prompt for a single routed question.
// The context string carries whatever the caller knows about the current
// trip; it may be empty.
func RouteMessage(message, context string) string {
	if context == "" {
		return message
	}
	return fmt.Sprintf("Trip context:\n%s\n\nTraveler's message:\n%s", context, message)
}

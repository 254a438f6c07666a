package prompts

import (
	"fmt"
	"strings"
)

// documentSchema describes the JSON shape every itinerary operation must
// return. It is embedded verbatim in each prompt so the model sees the
// identical contract regardless of which operation is running.
const documentSchema = `Return JSON only, matching exactly this shape:

{
  "summary": {
    "title": "string",
    "description": "string",
    "totalEstimatedCost": 0,
    "vibeTags": ["string"]
  },
  "packingList": [{"item": "string", "reason": "string"}],
  "localWisdom": {
    "dos": ["string"],
    "donts": ["string"],
    "localPhrase": {"phrase": "string", "meaning": "string"}
  },
  "itinerary": [
    {
      "dayNumber": 1,
      "title": "string",
      "activities": [
        {
          "timeStart": "09:00",
          "timeEnd": "11:00",
          "placeName": "string",
          "type": "string",
          "isHiddenGem": false,
          "description": "string",
          "estimatedCost": 0,
          "coordinates": {"lat": 0.0, "lng": 0.0},
          "bookingTip": "string"
        }
      ]
    }
  ]
}

Rules:
- dayNumber starts at 1 and increases by one per day with no gaps.
- Every day has at least one activity.
- Times are 24-hour "HH:MM"; timeStart is before timeEnd.
- All costs are non-negative integers in the destination's minor currency units.
- Coordinates are real WGS84 values for the named place.
- No markdown, no commentary, no code fences outside the JSON.`

// ItinerarySystem is the system instruction shared by all itinerary
// operations.
const ItinerarySystem = `You are an expert travel planner. You produce complete, realistic trip
plans with accurate local knowledge. You reply with a single JSON document
and nothing else.`

// GenerateItinerary builds the prompt for a brand-new trip plan.
func GenerateItinerary(destination string, durationDays int, budgetTier, arrangement string, interests []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Plan a %d-day trip to %s.\n\n", durationDays, destination)
	fmt.Fprintf(&b, "Traveler profile:\n- Budget: %s\n- Traveling as: %s\n", budgetTier, arrangement)
	if len(interests) > 0 {
		fmt.Fprintf(&b, "- Interests: %s\n", strings.Join(interests, ", "))
	}
	b.WriteString("\nInclude at least one hidden gem that typical tourists miss.\n")
	fmt.Fprintf(&b, "The itinerary must contain exactly %d days.\n\n", durationDays)
	b.WriteString(documentSchema)

	return b.String()
}

// ConstrainItinerary builds the prompt for a budget-ceiling rewrite of an
// existing document. The ceiling is advisory: the model is instructed to
// get under it, but the pipeline does not reject output that misses.
func ConstrainItinerary(documentJSON string, ceiling, durationDays int) string {
	var b strings.Builder

	b.WriteString("Rewrite this trip plan to fit a tighter budget.\n\n")
	fmt.Fprintf(&b, "Current plan:\n%s\n\n", documentJSON)
	fmt.Fprintf(&b, "Target: total cost at or below %d (same minor currency units as the plan).\n\n", ceiling)
	b.WriteString(`Constraints:
- Keep the same destination.
`)
	fmt.Fprintf(&b, "- Keep exactly %d days — do not add or remove days.\n", durationDays)
	b.WriteString(`- Replace expensive activities with cheaper or free equivalents.
- Recompute estimatedCost for every activity and totalEstimatedCost for the trip.
- Update summary.description to reflect the budget-conscious plan.
- Leave day titles, the packing list, and local wisdom unchanged.

`)
	b.WriteString(documentSchema)

	return b.String()
}

// RecontextualizeItinerary builds the prompt for a situation-driven rewrite
// of the activity lists.
func RecontextualizeItinerary(documentJSON string, situation string, durationDays int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Adapt this trip plan for a traveler dealing with: %s.\n\n", situationGuidance(situation))
	fmt.Fprintf(&b, "Current plan:\n%s\n\n", documentJSON)
	b.WriteString(`Constraints:
- Keep the same destination.
`)
	fmt.Fprintf(&b, "- Keep exactly %d days — do not add or remove days.\n", durationDays)
	b.WriteString(`- Rewrite only the activities arrays to suit the situation.
- Update summary.description with a short note about the adjustment.
- Leave day titles, the packing list, local wisdom, and vibe tags unchanged.

`)
	b.WriteString(documentSchema)

	return b.String()
}

// situationGuidance expands a situation tag into instructions the model
// can act on.
func situationGuidance(situation string) string {
	switch situation {
	case "adverse-weather":
		return "adverse weather — swap outdoor activities for indoor equivalents (museums, markets, covered attractions)"
	case "fatigue":
		return "fatigue — slow the pace, fewer activities per day, later starts, more rest stops and cafes"
	case "low-engagement":
		return "low engagement — the current plan feels boring; swap in more distinctive, interactive, memorable activities"
	default:
		return situation
	}
}

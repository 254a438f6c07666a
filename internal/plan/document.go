// Package plan defines the travel document and the pipeline that
// generates and mutates it through the model provider.
package plan

import (
	"fmt"
	"strconv"
	"strings"
)

// TravelDocument is the structured trip plan. All three pipeline
// operations produce this same shape, so callers can treat any
// operation's result interchangeably.
type TravelDocument struct {
	Summary     Summary       `json:"summary"`
	PackingList []PackingItem `json:"packingList"`
	LocalWisdom LocalWisdom   `json:"localWisdom"`
	Itinerary   []Day         `json:"itinerary"`
}

// Summary is the trip overview.
type Summary struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	TotalEstimatedCost int      `json:"totalEstimatedCost"` // minor units, currency-agnostic
	VibeTags           []string `json:"vibeTags"`
}

// PackingItem is one entry on the packing list.
type PackingItem struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// LocalWisdom carries destination etiquette and one useful phrase.
type LocalWisdom struct {
	Dos         []string `json:"dos"`
	Donts       []string `json:"donts"`
	LocalPhrase Phrase   `json:"localPhrase"`
}

// Phrase is a local expression with its meaning.
type Phrase struct {
	Phrase  string `json:"phrase"`
	Meaning string `json:"meaning"`
}

// Day is one itinerary day. DayNumber is 1-based and contiguous.
type Day struct {
	DayNumber  int        `json:"dayNumber"`
	Title      string     `json:"title"`
	Activities []Activity `json:"activities"`
}

// Activity is a single scheduled item within a day.
type Activity struct {
	TimeStart     string      `json:"timeStart"` // "HH:MM", 24h
	TimeEnd       string      `json:"timeEnd"`
	PlaceName     string      `json:"placeName"`
	Type          string      `json:"type"` // free-form category tag
	IsHiddenGem   bool        `json:"isHiddenGem"`
	Description   string      `json:"description"`
	EstimatedCost int         `json:"estimatedCost"` // minor units, non-negative
	Coordinates   Coordinates `json:"coordinates"`
	BookingTip    string      `json:"bookingTip"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ValidationError reports a document or input that violates the schema
// contract. Validation failures are never retried; an identical request
// is unlikely to fix a systematic shape mismatch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the document invariants: a non-empty itinerary with
// contiguous 1-based day numbers, at least one activity per day, valid
// activity times and coordinates, and non-negative costs.
func (d *TravelDocument) Validate() error {
	if d.Summary.TotalEstimatedCost < 0 {
		return &ValidationError{Field: "summary.totalEstimatedCost", Reason: "must be non-negative"}
	}
	if len(d.Itinerary) == 0 {
		return &ValidationError{Field: "itinerary", Reason: "must not be empty"}
	}

	for i, day := range d.Itinerary {
		if day.DayNumber != i+1 {
			return &ValidationError{
				Field:  fmt.Sprintf("itinerary[%d].dayNumber", i),
				Reason: fmt.Sprintf("got %d, want contiguous 1-based numbering (%d)", day.DayNumber, i+1),
			}
		}
		if len(day.Activities) == 0 {
			return &ValidationError{
				Field:  fmt.Sprintf("itinerary[%d].activities", i),
				Reason: "day must have at least one activity",
			}
		}

		for j, act := range day.Activities {
			field := func(name string) string {
				return fmt.Sprintf("itinerary[%d].activities[%d].%s", i, j, name)
			}

			if act.PlaceName == "" {
				return &ValidationError{Field: field("placeName"), Reason: "must not be empty"}
			}
			if act.EstimatedCost < 0 {
				return &ValidationError{Field: field("estimatedCost"), Reason: "must be non-negative"}
			}

			start, err := parseClock(act.TimeStart)
			if err != nil {
				return &ValidationError{Field: field("timeStart"), Reason: err.Error()}
			}
			end, err := parseClock(act.TimeEnd)
			if err != nil {
				return &ValidationError{Field: field("timeEnd"), Reason: err.Error()}
			}
			if start >= end {
				return &ValidationError{
					Field:  field("timeEnd"),
					Reason: fmt.Sprintf("%s must be after timeStart %s", act.TimeEnd, act.TimeStart),
				}
			}

			if act.Coordinates.Lat < -90 || act.Coordinates.Lat > 90 {
				return &ValidationError{Field: field("coordinates.lat"), Reason: "must be within [-90, 90]"}
			}
			if act.Coordinates.Lng < -180 || act.Coordinates.Lng > 180 {
				return &ValidationError{Field: field("coordinates.lng"), Reason: "must be within [-180, 180]"}
			}
		}
	}

	return nil
}

// Days returns the number of itinerary days.
func (d *TravelDocument) Days() int {
	return len(d.Itinerary)
}

// ActivityCostSum totals every activity's estimated cost. The summary's
// totalEstimatedCost is not required to match this exactly; mutations may
// recompute it.
func (d *TravelDocument) ActivityCostSum() int {
	sum := 0
	for _, day := range d.Itinerary {
		for _, act := range day.Activities {
			sum += act.EstimatedCost
		}
	}
	return sum
}

// parseClock converts an "HH:MM" 24h string to minutes since midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%q is not an HH:MM time", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%q has an invalid hour", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%q has an invalid minute", s)
	}
	return hour*60 + minute, nil
}

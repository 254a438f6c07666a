package plan

import "fmt"

// BudgetTier is the traveler's spending appetite.
type BudgetTier string

const (
	BudgetShoestring BudgetTier = "shoestring"
	BudgetMedium     BudgetTier = "medium"
	BudgetLuxury     BudgetTier = "luxury"
)

// Valid reports whether the tier is a known value.
func (b BudgetTier) Valid() bool {
	switch b {
	case BudgetShoestring, BudgetMedium, BudgetLuxury:
		return true
	}
	return false
}

// TravelerArrangement is who is traveling.
type TravelerArrangement string

const (
	TravelSolo    TravelerArrangement = "solo"
	TravelCouple  TravelerArrangement = "couple"
	TravelFamily  TravelerArrangement = "family"
	TravelFriends TravelerArrangement = "friends"
)

// Valid reports whether the arrangement is a known value.
func (a TravelerArrangement) Valid() bool {
	switch a {
	case TravelSolo, TravelCouple, TravelFamily, TravelFriends:
		return true
	}
	return false
}

// Situation names a mid-trip condition that Recontextualize rewrites
// activities for.
type Situation string

const (
	SituationAdverseWeather Situation = "adverse-weather"
	SituationFatigue        Situation = "fatigue"
	SituationLowEngagement  Situation = "low-engagement"
)

// Valid reports whether the situation is a known value.
func (s Situation) Valid() bool {
	switch s {
	case SituationAdverseWeather, SituationFatigue, SituationLowEngagement:
		return true
	}
	return false
}

// MaxInterests caps how many interest tags a request may carry.
const MaxInterests = 5

// MaxDurationDays bounds trip length.
const MaxDurationDays = 60

// ErrEmptyDestination is returned by Generate before any model call when
// the destination is blank.
var ErrEmptyDestination = &ValidationError{Field: "destination", Reason: "must not be empty"}

// Criteria is the input to Generate.
type Criteria struct {
	Destination  string              `json:"destination"`
	DurationDays int                 `json:"durationDays"`
	BudgetTier   BudgetTier          `json:"budgetTier"`
	Arrangement  TravelerArrangement `json:"travelerArrangement"`
	Interests    []string            `json:"interests"`
}

// Validate checks the criteria without touching the network.
func (c Criteria) Validate() error {
	if c.Destination == "" {
		return ErrEmptyDestination
	}
	if c.DurationDays < 1 || c.DurationDays > MaxDurationDays {
		return &ValidationError{
			Field:  "durationDays",
			Reason: fmt.Sprintf("got %d, want 1-%d", c.DurationDays, MaxDurationDays),
		}
	}
	if !c.BudgetTier.Valid() {
		return &ValidationError{Field: "budgetTier", Reason: fmt.Sprintf("unknown tier %q", c.BudgetTier)}
	}
	if !c.Arrangement.Valid() {
		return &ValidationError{Field: "travelerArrangement", Reason: fmt.Sprintf("unknown arrangement %q", c.Arrangement)}
	}
	if len(c.Interests) > MaxInterests {
		return &ValidationError{
			Field:  "interests",
			Reason: fmt.Sprintf("got %d tags, want at most %d", len(c.Interests), MaxInterests),
		}
	}
	return nil
}

// Package prompts contains all LLM prompt templates used by Wayfarer.
//
// Prompt text is Go code rather than config files because it is program logic:
// templates use fmt.Sprintf interpolation, benefit from compile-time embedding,
// and can be validated by tests. User-facing configuration lives in config.yaml;
// this package holds the instructions sent to the model for each pipeline
// operation (itinerary generation, budget rewrite, situation rewrite) and for
// the persona router.
//
// Convention: each prompt category gets its own file (itinerary.go, router.go)
// with an exported function that accepts the dynamic parts and returns the
// fully interpolated prompt string.
package prompts

package llm

// ModelCost is the USD price per million tokens for a model.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the list price for a model ID, or nil if it is not in
// the table. OpenRouter IDs carry a vendor prefix and are looked up as-is.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	return nil
}

// EstimateCost sums the cost of a usage breakdown. Unknown models are skipped
// and reported through the second return value.
func EstimateCost(model string, inputTokens, outputTokens int) (float64, bool) {
	c := LookupCost(model)
	if c == nil {
		return 0, false
	}
	return c.Cost(inputTokens, outputTokens), true
}

// Covers the models the friendly names resolve to plus common overrides.
var modelCosts = map[string]ModelCost{
	"claude-haiku-4-5-20251001": {1, 5},
	"claude-sonnet-4-20250514":  {3, 15},
	"claude-sonnet-4-5":         {3, 15},
	"gpt-4o":                    {2.5, 10},
	"gpt-4o-mini":               {0.15, 0.6},
	"gpt-4.1-mini":              {0.4, 1.6},
	"gemini-2.0-flash":          {0.1, 0.4},
	"gemini-2.5-flash":          {0.3, 2.5},
	"gemini-2.5-pro":            {1.25, 10},

	"google/gemini-2.0-flash-001":      {0.1, 0.4},
	"anthropic/claude-haiku-4.5":       {1, 5},
	"openai/gpt-4o-mini":               {0.15, 0.6},
	"meta-llama/llama-3.1-8b-instruct": {0.02, 0.05},
}

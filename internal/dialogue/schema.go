package dialogue

import "github.com/abhisek/socratic/internal/llm"

// ReplySchema is the structured tutor reply.
var ReplySchema = &llm.Schema{
	Name:        "tutor-reply",
	Description: "The tutor's next message to the student and how much guidance it gives",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reply": map[string]any{
				"type":        "string",
				"description": "The message shown to the student (1-4 sentences)",
			},
			"hint_level": map[string]any{
				"type":        "integer",
				"description": "0 = open question, 1 = focused question, 2 = concrete hint, 3 = direct walkthrough",
				"minimum":     0,
				"maximum":     3,
			},
		},
		"required":             []any{"reply", "hint_level"},
		"additionalProperties": false,
	},
}

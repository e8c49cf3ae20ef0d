package dialogue

import (
	"fmt"
	"strings"

	"github.com/abhisek/socratic/internal/session"
	"github.com/abhisek/socratic/internal/stuck"
)

const systemPromptBase = `You are a Socratic math tutor. Guide the student to solve the problem themselves.
Never state the final answer. Ask one question at a time and build on what the student just said.
When the student reaches the correct answer, confirm it clearly and congratulate them.`

// systemPrompt returns the system prompt tuned for the audience.
func systemPrompt(d Difficulty, structured bool) string {
	var b strings.Builder
	b.WriteString(systemPromptBase)
	fmt.Fprintf(&b, "\n\nYou are talking with %s.", audience[d])
	if structured {
		b.WriteString("\n\nRespond with a JSON object: \"reply\" is your message to the student and " +
			"\"hint_level\" (0-3) says how much guidance the reply gives.")
	}
	return b.String()
}

// buildUserMessage renders the context window and the adaptation guidance
// into a single prompt.
func buildUserMessage(cc ConversationContext) string {
	var b strings.Builder

	if cc.Problem != nil && cc.Problem.Text != "" {
		fmt.Fprintf(&b, "Problem: %s\n\n", cc.Problem.Text)
	}

	b.WriteString("Conversation so far:\n")
	for _, m := range cc.Messages {
		speaker := "Student"
		if m.Role == session.RoleTutor {
			speaker = "Tutor"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
	}

	fmt.Fprintf(&b, "\nGuidance: %s\n", stuck.Hint(cc.StuckCount))
	if cc.LastHintLevel > 0 {
		fmt.Fprintf(&b, "Your previous reply was at hint level %d.\n", cc.LastHintLevel)
	}
	b.WriteString("\nWrite the tutor's next message.")
	return b.String()
}

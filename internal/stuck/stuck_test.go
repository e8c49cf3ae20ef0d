package stuck

import (
	"strings"
	"testing"

	"github.com/abhisek/socratic/internal/session"
)

// transcript builds messages from "u:" and "t:" prefixed lines.
func transcript(lines ...string) []session.Message {
	msgs := make([]session.Message, 0, len(lines))
	for _, l := range lines {
		role := session.RoleUser
		if strings.HasPrefix(l, "t:") {
			role = session.RoleTutor
		}
		msgs = append(msgs, session.NewMessage(role, strings.TrimSpace(l[2:])))
	}
	return msgs
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		msgs []session.Message
		want int
	}{
		{"empty window", nil, 0},
		{
			"engaged student",
			transcript(
				"u: I subtracted three from both sides",
				"t: Good. What does that leave you with?",
				"u: It leaves two x equals eight",
				"t: And then?",
			),
			0,
		},
		{
			"two tutor turns then confusion",
			transcript(
				"t: What is the first step?",
				"u: I don't know",
				"t: Think about what undoes addition.",
				"t: Try subtracting from both sides.",
			),
			1,
		},
		{
			"long tutor monologue contributes at most two",
			transcript(
				"u: I added everything together first",
				"t: one", "t: two", "t: three", "t: four", "t: five",
			),
			2,
		},
		{
			"two short replies add one",
			transcript(
				"t: What is 3 + 5?",
				"u: 7",
				"t: Count again from 3.",
				"u: 9?",
				"t: Let's use a number line.",
			),
			1,
		},
		{
			"runs and struggle combine up to the cap",
			transcript(
				"u: no",
				"t: Look at the left side.",
				"t: What is multiplied by x?",
				"u: idk",
				"t: It is the 2.",
				"t: Divide both sides by 2.",
			),
			3,
		},
		{
			"only the last six messages count",
			transcript(
				"u: no", "u: idk", "u: nope",
				"t: a", "t: b", "t: c",
				"u: I divided both sides by two to get x",
				"t: Good thinking, what next?",
				"u: Then I checked it by substituting back",
				"t: And did it work?",
				"u: Yes it balanced on both sides",
				"t: Great.",
			),
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compute(tt.msgs); got != tt.want {
				t.Errorf("Compute() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeAlwaysInRange(t *testing.T) {
	lines := []string{"t: hmm", "u: no", "t: ok?", "u: I think the answer is 12 now", "t: why?", "u: stuck"}
	for n := 0; n < 64; n++ {
		var msgs []session.Message
		for i := 0; i < 6; i++ {
			if n&(1<<i) != 0 {
				msgs = append(msgs, transcript(lines[i])...)
			} else {
				msgs = append(msgs, transcript("t: keep going")...)
			}
		}
		if got := Compute(msgs); got < 0 || got > MaxLevel {
			t.Fatalf("Compute() = %d out of range for mask %b", got, n)
		}
	}
}

func TestHint(t *testing.T) {
	if !strings.Contains(Hint(0), "engaging well") {
		t.Errorf("Hint(0) = %q", Hint(0))
	}
	if !strings.Contains(Hint(1), "more specific questions") {
		t.Errorf("Hint(1) = %q", Hint(1))
	}
	if !strings.Contains(Hint(2), "concrete hint") {
		t.Errorf("Hint(2) = %q", Hint(2))
	}
	if Hint(3) != Hint(7) {
		t.Error("levels above the cap should share the most direct hint")
	}
	if Hint(-1) != Hint(0) {
		t.Error("negative level should fall back to level 0")
	}
}

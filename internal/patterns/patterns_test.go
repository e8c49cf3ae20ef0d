package patterns

import "testing"

func TestNormalize(t *testing.T) {
	got := Normalize("  That’s   RIGHT\n well done ")
	if got != "that's right well done" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestIsConfused(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"I don't know", true},
		{"i dont know what to do", true},
		{"No idea", true},
		{"I'm stuck", true},
		{"I can’t do this", true},
		{"no", true},
		{"Yes.", true},
		{"not sure", true},
		{"x equals 4 because 2 times 2", false},
		{"that helps a lot", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsConfused(tt.input); got != tt.want {
			t.Errorf("IsConfused(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsShort(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"4", true},
		{"  ok  ", true},
		{"123456789", true},
		{"1234567890", false},
		{"I subtracted 3 from both sides", false},
	}
	for _, tt := range tests {
		if got := IsShort(tt.input); got != tt.want {
			t.Errorf("IsShort(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsksQuestion(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"What is x?", true},
		{"Great, now subtract 3 from both sides?", true},
		{"Tell me the first step.", true},
		{"Let's look at the left side.", true},
		{"Let’s try again.", true},
		{"How would you isolate x.", true},
		{"Which operation comes first.", true},
		{"Can you check your work.", true},
		{"Do you see the pattern.", true},
		{"That's correct! You solved it, x = 4. Well done!", false},
		{"Showing your work helped.", false},
	}
	for _, tt := range tests {
		if got := AsksQuestion(tt.input); got != tt.want {
			t.Errorf("AsksQuestion(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestConfirmationPredicates(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string) bool
		input string
		want  bool
	}{
		{"strong solved it", StrongConfirmation, "You've solved it!", true},
		{"strong you solved", StrongConfirmation, "Yes! You solved it.", true},
		{"strong problem solved", StrongConfirmation, "The problem is solved.", true},
		{"strong completed", StrongConfirmation, "You have completed the exercise.", true},
		{"strong congrats", StrongConfirmation, "Congratulations on completing this one.", true},
		{"strong negative", StrongConfirmation, "Keep going, you're close.", false},
		{"medium thats right", MediumConfirmation, "That's right.", true},
		{"medium that is correct", MediumConfirmation, "That is correct.", true},
		{"medium co-occurring", MediumConfirmation, "Correct, you found it.", true},
		{"medium correct alone", MediumConfirmation, "Correct.", false},
		{"praise", Praise, "Great job!", true},
		{"praise negative", Praise, "Try again.", false},
		{"solving token", SolvingToken, "You're solving it nicely", true},
		{"solving negative", SolvingToken, "You're close", false},
		{"answer token", AnswerToken, "Your answer works", true},
		{"correctness token", CorrectnessToken, "Exactly.", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.input); got != tt.want {
				t.Errorf("got %v, want %v for %q", got, tt.want, tt.input)
			}
		})
	}
}

func TestPhraseLists(t *testing.T) {
	if p, ok := HighValuePhrase("Congratulations! You solved the equation."); !ok || p != "congratulations! you solved" {
		t.Errorf("HighValuePhrase = %q, %v", p, ok)
	}
	if _, ok := HighValuePhrase("Nice try."); ok {
		t.Error("expected no high-value phrase")
	}
	if p, ok := MediumValuePhrase("Perfect, that's correct."); !ok || p != "perfect" {
		t.Errorf("MediumValuePhrase = %q, %v", p, ok)
	}
}

func TestFinalAnswer(t *testing.T) {
	tests := []struct {
		input      string
		wantOK     bool
		literal    string
		normalized string
		kind       AnswerKind
	}{
		{"4", true, "4", "4", KindBareNumber},
		{" -12. ", true, "-12", "-12", KindBareNumber},
		{"3.50", true, "3.50", "3.5", KindBareNumber},
		{"2/4", true, "2/4", "1/2", KindBareNumber},
		{"x = 7", true, "7", "7", KindAssignment},
		{"So answer: 007", true, "007", "7", KindAssignment},
		{"I worked it through and the answer is 12", true, "12", "12", KindStatement},
		{"after checking twice it's 9", true, "9", "9", KindStatement},
		{"I think 15 because of the tens", true, "15", "15", KindBelief},
		{"I got x=3 after dividing", true, "3", "3", KindAssignment},
		{"maybe 8", true, "8", "8", KindEmbedded},
		{"I added them up and my final total came to 42 apples", true, "42", "42", KindEmbedded},
		{"I added 3 and 4 but then I was not really sure at all", false, "", "", ""},
		{"I don't know", false, "", "", ""},
		{"", false, "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := FinalAnswer(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("FinalAnswer(%q) ok = %v, want %v (got %+v)", tt.input, ok, tt.wantOK, got)
			}
			if !ok {
				return
			}
			if got.Literal != tt.literal {
				t.Errorf("literal = %q, want %q", got.Literal, tt.literal)
			}
			if got.Normalized != tt.normalized {
				t.Errorf("normalized = %q, want %q", got.Normalized, tt.normalized)
			}
			if got.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", got.Kind, tt.kind)
			}
		})
	}
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"007", "7", false},
		{"+5", "5", false},
		{"3.50", "3.5", false},
		{"6/8", "3/4", false},
		{"4/2", "2", false},
		{"1/-2", "-1/2", false},
		{"0/5", "0", false},
		{"1/0", "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeNumber(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeNumber(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeNumber(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNumbers(t *testing.T) {
	got := Numbers("Solve 2x + 03 = 11 and 4/8")
	want := []string{"2", "3", "11", "1/2"}
	if len(got) != len(want) {
		t.Fatalf("Numbers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Numbers[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

package completion

import "github.com/abhisek/socratic/internal/patterns"

// Rule scores a single tutor message. A zero score means the rule did not fire.
type Rule struct {
	Name   string
	Reason string
	Score  func(text string, w Weights) int
}

// ConfirmationRules are the tutor confirmation tiers, strongest first. Only
// the first tier that fires contributes.
func ConfirmationRules() []Rule {
	return []Rule{
		{
			Name:   "strong-confirmation",
			Reason: "tutor explicitly confirmed the problem is solved",
			Score: func(text string, w Weights) int {
				if patterns.StrongConfirmation(text) {
					return w.StrongConfirm
				}
				return 0
			},
		},
		{
			Name:   "medium-confirmation",
			Reason: "tutor confirmed the answer is correct",
			Score: func(text string, w Weights) int {
				if patterns.MediumConfirmation(text) {
					return w.MediumConfirm
				}
				return 0
			},
		},
		{
			Name:   "weak-confirmation",
			Reason: "tutor praised a correct answer",
			Score: func(text string, w Weights) int {
				if !patterns.Praise(text) || !patterns.AnswerToken(text) {
					return 0
				}
				if patterns.SolvingToken(text) {
					return w.WeakSolvingConfirm
				}
				return w.WeakConfirm
			},
		},
	}
}

// PhraseRules are the completion-phrase bonuses checked on the latest tutor
// message. A high-value phrase short-circuits the rest.
func PhraseRules() []Rule {
	return []Rule{
		{
			Name:   "high-value-phrase",
			Reason: "tutor used an explicit completion phrase",
			Score: func(text string, w Weights) int {
				if _, ok := patterns.HighValuePhrase(text); ok {
					return w.HighValuePhrase
				}
				return 0
			},
		},
		{
			Name:   "medium-value-phrase",
			Reason: "tutor praised the work alongside a correctness word",
			Score: func(text string, w Weights) int {
				if _, ok := patterns.MediumValuePhrase(text); ok && patterns.CorrectnessToken(text) {
					return w.MediumValuePhrase
				}
				return 0
			},
		},
	}
}

// firstMatch returns the first rule in rules that fires on text.
func firstMatch(rules []Rule, text string, w Weights) (Rule, int, bool) {
	for _, r := range rules {
		if pts := r.Score(text, w); pts > 0 {
			return r, pts, true
		}
	}
	return Rule{}, 0, false
}

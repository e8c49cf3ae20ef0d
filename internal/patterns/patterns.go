// Package patterns holds the fixed phrase and regex matchers used to read
// tutoring transcripts. Everything here is stateless and safe for concurrent use.
package patterns

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ShortResponseLen is the rune count below which a student reply counts as terse.
const ShortResponseLen = 10

var quoteReplacer = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"“", `"`,
	"”", `"`,
)

var spaceRe = regexp.MustCompile(`\s+`)

// Normalize lowercases s, straightens curly quotes and collapses whitespace.
func Normalize(s string) string {
	s = quoteReplacer.Replace(strings.ToLower(s))
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

var (
	confusedRe = regexp.MustCompile(`\b(?:don'?t know|do not know|no idea|stuck|can'?t|cannot|confused|not sure|idk|help)\b`)

	// terseReplies are whole-message replies that carry no reasoning.
	terseReplies = map[string]bool{
		"no": true, "yes": true, "nope": true, "yeah": true, "yep": true, "ok": true,
	}
)

// IsConfused reports whether a student message signals confusion.
func IsConfused(s string) bool {
	n := Normalize(s)
	if terseReplies[strings.Trim(n, ".!")] {
		return true
	}
	return confusedRe.MatchString(n)
}

// IsShort reports whether s has fewer than ShortResponseLen runes once trimmed.
func IsShort(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) < ShortResponseLen
}

// questionOpenerRe covers the opener tokens a probing tutor uses. The
// "what do you / what is / what are / what would" templates are subsumed by "what".
var questionOpenerRe = regexp.MustCompile(`\b(?:what|how|which|can you|do you|let's|let us|tell me)\b`)

// AsksQuestion reports whether a tutor message is still probing the student.
func AsksQuestion(s string) bool {
	if strings.Contains(s, "?") {
		return true
	}
	return questionOpenerRe.MatchString(Normalize(s))
}

var (
	strongConfirmationRe = regexp.MustCompile(
		`\byou(?:'ve| have)? (?:solved|cracked) (?:it|the problem|this|the equation)\b` +
			`|\bproblem (?:is|has been) solved\b` +
			`|\byou(?:'ve| have) completed\b` +
			`|\bcongratulations on completing\b`)

	thatsRightRe     = regexp.MustCompile(`\bthat(?:'s| is) (?:exactly )?(?:right|correct)\b`)
	correctOrRightRe = regexp.MustCompile(`\b(?:correct|right)\b`)
	answerFoundRe    = regexp.MustCompile(`\b(?:answer|solution|found)\b`)

	praiseRe        = regexp.MustCompile(`\b(?:well done|great job|good job|nice work|great work|excellent|perfect|fantastic|awesome)\b`)
	solvingRe       = regexp.MustCompile(`\bsolv(?:e|ed|es|ing)\b|\bsolution\b`)
	answerishRe     = regexp.MustCompile(`\b(?:solv\w*|solution|answer|correct|right)\b`)
	correctnessRe   = regexp.MustCompile(`\b(?:correct|right|exactly|accurate)\b`)
	answerIndicator = regexp.MustCompile(`\b(?:answer|solution|result|equals?|total|final)\b`)
)

// StrongConfirmation matches explicit solved/completed statements.
func StrongConfirmation(s string) bool { return strongConfirmationRe.MatchString(Normalize(s)) }

// MediumConfirmation matches "that's right/correct", or correct/right alongside
// answer/solution/found.
func MediumConfirmation(s string) bool {
	n := Normalize(s)
	if thatsRightRe.MatchString(n) {
		return true
	}
	return correctOrRightRe.MatchString(n) && answerFoundRe.MatchString(n)
}

// Praise matches bare praise tokens.
func Praise(s string) bool { return praiseRe.MatchString(Normalize(s)) }

// SolvingToken matches solve/solved/solving/solution.
func SolvingToken(s string) bool { return solvingRe.MatchString(Normalize(s)) }

// AnswerToken matches any solving, answer or correctness word.
func AnswerToken(s string) bool { return answerishRe.MatchString(Normalize(s)) }

// CorrectnessToken matches correct/right/exactly/accurate.
func CorrectnessToken(s string) bool { return correctnessRe.MatchString(Normalize(s)) }

var highValuePhrases = []string{
	"well done on solving",
	"congratulations! you solved",
	"congratulations, you solved",
	"congratulations you solved",
	"you've found the correct answer",
	"you have found the correct answer",
	"you found the correct answer",
	"you've found the right answer",
	"you found the right answer",
	"you got the correct answer",
	"that's the correct answer",
	"you solved it",
	"you've solved it",
	"you have solved it",
	"excellent work solving",
	"great job solving",
}

var mediumValuePhrases = []string{
	"well done",
	"great job",
	"good job",
	"nice work",
	"great work",
	"excellent",
	"perfect",
	"fantastic",
	"awesome",
	"bravo",
}

// HighValuePhrase returns the first curated completion phrase found in s.
func HighValuePhrase(s string) (string, bool) {
	return containsAny(Normalize(s), highValuePhrases)
}

// MediumValuePhrase returns the first curated praise phrase found in s.
func MediumValuePhrase(s string) (string, bool) {
	return containsAny(Normalize(s), mediumValuePhrases)
}

func containsAny(s string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return p, true
		}
	}
	return "", false
}

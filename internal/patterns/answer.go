package patterns

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// AnswerKind identifies which extraction rule produced an Answer.
type AnswerKind string

const (
	KindBareNumber AnswerKind = "bare-number"
	KindAssignment AnswerKind = "assignment"
	KindStatement  AnswerKind = "statement"
	KindBelief     AnswerKind = "belief"
	KindEmbedded   AnswerKind = "embedded"
)

// embeddedAnswerMaxLen is the length below which any number in a message is
// taken as an attempted answer.
const embeddedAnswerMaxLen = 20

// Answer is a final-answer literal extracted from a student message.
type Answer struct {
	Literal    string
	Normalized string
	Kind       AnswerKind
	Label      string // assignment target, e.g. "x" in "x = 7"
}

const numberExpr = `[-+]?\d+(?:\.\d+)?(?: ?/ ?\d+)?`

var (
	bareNumberRe = regexp.MustCompile(`^(` + numberExpr + `)[.!]?$`)
	assignmentRe = regexp.MustCompile(`\b([a-z][a-z0-9_]*) ?[=:] ?(` + numberExpr + `)`)
	statementRe  = regexp.MustCompile(
		`\b(?:the )?(?:answer|solution|result) (?:is|was|should be|would be|must be)(?: that)? (?:[a-z] ?= ?)?(` + numberExpr + `)` +
			`|\bit(?:'s| is) (` + numberExpr + `)`)
	beliefRe = regexp.MustCompile(
		`\bi (?:got|get|think|believe|found|calculated|have) (?:it'?s |it is |that |that it'?s |the answer is )?(?:[a-z] ?= ?)?(` + numberExpr + `)`)
	embeddedNumberRe = regexp.MustCompile(numberExpr)
)

// FinalAnswer extracts a final-answer literal from a student message. Rules
// are tried in priority order and the first match wins: a bare signed number,
// a label assignment, an "the answer is N" statement, an "I got N" belief,
// then any embedded number when the message is short or mentions an answer.
func FinalAnswer(s string) (Answer, bool) {
	n := Normalize(s)
	if n == "" {
		return Answer{}, false
	}

	if m := bareNumberRe.FindStringSubmatch(n); m != nil {
		return newAnswer(m[1], KindBareNumber, ""), true
	}
	if m := assignmentRe.FindStringSubmatch(n); m != nil {
		return newAnswer(m[2], KindAssignment, m[1]), true
	}
	if m := statementRe.FindStringSubmatch(n); m != nil {
		return newAnswer(firstGroup(m), KindStatement, ""), true
	}
	if m := beliefRe.FindStringSubmatch(n); m != nil {
		return newAnswer(m[1], KindBelief, ""), true
	}

	if utf8.RuneCountInString(n) < embeddedAnswerMaxLen || answerIndicator.MatchString(n) {
		if all := embeddedNumberRe.FindAllString(n, -1); len(all) > 0 {
			return newAnswer(all[len(all)-1], KindEmbedded, ""), true
		}
	}
	return Answer{}, false
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

func newAnswer(literal string, kind AnswerKind, label string) Answer {
	literal = strings.TrimSpace(literal)
	normalized, err := NormalizeNumber(literal)
	if err != nil {
		normalized = literal
	}
	return Answer{Literal: literal, Normalized: normalized, Kind: kind, Label: label}
}

// NormalizeNumber canonicalises a numeric literal so equal values compare equal:
// leading zeros and trailing decimal zeros are dropped and fractions are reduced.
func NormalizeNumber(literal string) (string, error) {
	literal = strings.ReplaceAll(strings.TrimSpace(literal), " ", "")
	literal = strings.TrimPrefix(literal, "+")

	if strings.Contains(literal, "/") {
		num, den, err := parseFraction(literal)
		if err != nil {
			return "", err
		}
		if den == 0 {
			return "", fmt.Errorf("zero denominator")
		}
		if den < 0 {
			num, den = -num, -den
		}
		g := gcd(abs(num), den)
		if g > 1 {
			num /= g
			den /= g
		}
		if den == 1 {
			return strconv.FormatInt(num, 10), nil
		}
		return fmt.Sprintf("%d/%d", num, den), nil
	}

	if strings.Contains(literal, ".") {
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return "", fmt.Errorf("invalid decimal: %w", err)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}

	n, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid integer: %w", err)
	}
	return strconv.FormatInt(n, 10), nil
}

func parseFraction(s string) (int64, int64, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid fraction format: %q", s)
	}
	num, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid numerator: %w", err)
	}
	den, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid denominator: %w", err)
	}
	return num, den, nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// Numbers returns every numeric literal in s, normalised.
func Numbers(s string) []string {
	all := embeddedNumberRe.FindAllString(Normalize(s), -1)
	out := make([]string, 0, len(all))
	for _, lit := range all {
		if n, err := NormalizeNumber(lit); err == nil {
			out = append(out, n)
		}
	}
	return out
}

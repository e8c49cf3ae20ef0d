// Package completion decides from transcript text alone whether a student
// has reached an answer and the tutor has confirmed it.
package completion

import (
	"fmt"

	"github.com/abhisek/socratic/internal/patterns"
	"github.com/abhisek/socratic/internal/session"
)

// Confidence grades a verdict.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ReasonStillAsking is the sole reason reported when the tutor is still probing.
const ReasonStillAsking = "tutor still asking questions"

// Score is the result of evaluating a transcript.
type Score struct {
	Score       int        `json:"score"`
	IsCompleted bool       `json:"is_completed"`
	Confidence  Confidence `json:"confidence"`
	Reasons     []string   `json:"reasons"`

	// Answer is the student answer literal that matched, if any.
	Answer string `json:"answer,omitempty"`
}

// Detector evaluates transcripts. It holds no mutable state and is safe for
// concurrent use.
type Detector struct {
	weights       Weights
	confirmations []Rule
	phrases       []Rule
}

// New creates a Detector with the given weights.
func New(w Weights) *Detector {
	return &Detector{
		weights:       w,
		confirmations: ConfirmationRules(),
		phrases:       PhraseRules(),
	}
}

// Weights returns the detector's weights.
func (d *Detector) Weights() Weights { return d.weights }

// Evaluate scores transcript. The result depends only on its arguments.
func (d *Detector) Evaluate(transcript []session.Message, problem *session.ProblemRef) Score {
	w := d.weights
	if len(transcript) == 0 {
		return Score{Confidence: ConfidenceLow, Reasons: []string{}}
	}

	lastTutor, hasTutor := session.LastByRole(transcript, session.RoleTutor)
	if hasTutor && patterns.AsksQuestion(lastTutor.Content) {
		return Score{
			Score:      0,
			Confidence: ConfidenceHigh,
			Reasons:    []string{ReasonStillAsking},
		}
	}

	score := 0
	reasons := []string{}

	answer, found := d.studentAnswer(transcript, problem)
	if found {
		score += w.Answer
		reasons = append(reasons, fmt.Sprintf("student gave a final answer (%s)", answer.Literal))
	}

	if r, pts, ok := d.confirmation(transcript); ok {
		score += pts
		reasons = append(reasons, r.Reason)
	}

	if hasTutor {
		if r, pts, ok := firstMatch(d.phrases, lastTutor.Content, w); ok {
			score += pts
			reasons = append(reasons, r.Reason)
		}
	}

	if exchangePairs(transcript) >= w.MinExchanges {
		score += w.ExchangeBonus
		reasons = append(reasons, fmt.Sprintf("at least %d question and answer exchanges", w.MinExchanges))
	}
	if exchangePairs(session.Window(transcript, w.ClosingWindow)) > 0 {
		score += w.ClosingBonus
		reasons = append(reasons, "conversation ends on a natural closing exchange")
	}

	if score > w.MaxScore {
		score = w.MaxScore
	}

	res := Score{
		Score:       score,
		IsCompleted: (score >= w.CompletedWithAnswer && found) || score >= w.CompletedWithoutAnswer,
		Confidence:  d.confidence(score, found),
		Reasons:     reasons,
	}
	if found {
		res.Answer = answer.Literal
	}
	return res
}

// studentAnswer scans the newest user messages, newest first, and returns
// the first final answer found. An embedded number that only repeats a number
// from the problem statement is not an answer.
func (d *Detector) studentAnswer(transcript []session.Message, problem *session.ProblemRef) (patterns.Answer, bool) {
	var given map[string]bool
	if problem != nil {
		given = make(map[string]bool)
		for _, n := range patterns.Numbers(problem.Text) {
			given[n] = true
		}
	}

	scanned := 0
	for i := len(transcript) - 1; i >= 0 && scanned < d.weights.AnswerScanDepth; i-- {
		m := transcript[i]
		if m.Role != session.RoleUser {
			continue
		}
		scanned++
		a, ok := patterns.FinalAnswer(m.Content)
		if !ok {
			continue
		}
		if a.Kind == patterns.KindEmbedded && given[a.Normalized] {
			continue
		}
		return a, true
	}
	return patterns.Answer{}, false
}

// confirmation applies the tiers in order across the newest tutor messages
// and returns the first tier that fires on any of them.
func (d *Detector) confirmation(transcript []session.Message) (Rule, int, bool) {
	var recent []string
	for i := len(transcript) - 1; i >= 0 && len(recent) < d.weights.ConfirmScanDepth; i-- {
		if transcript[i].Role == session.RoleTutor {
			recent = append(recent, transcript[i].Content)
		}
	}
	for _, r := range d.confirmations {
		for _, text := range recent {
			if pts := r.Score(text, d.weights); pts > 0 {
				return r, pts, true
			}
		}
	}
	return Rule{}, 0, false
}

func (d *Detector) confidence(score int, answerFound bool) Confidence {
	w := d.weights
	switch {
	case answerFound && score >= w.HighWithAnswer, !answerFound && score >= w.HighWithoutAnswer:
		return ConfidenceHigh
	case answerFound && score >= w.MediumWithAnswer:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// exchangePairs counts adjacent user→tutor message pairs.
func exchangePairs(msgs []session.Message) int {
	n := 0
	for i := 0; i+1 < len(msgs); i++ {
		if msgs[i].Role == session.RoleUser && msgs[i+1].Role == session.RoleTutor {
			n++
		}
	}
	return n
}

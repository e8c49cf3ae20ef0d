package dialogue

import (
	"context"

	"github.com/abhisek/socratic/internal/completion"
	"github.com/abhisek/socratic/internal/session"
)

// ConversationContext is what the tutor model sees for one turn. It is
// derived per turn and never stored.
type ConversationContext struct {
	SessionID     string
	Problem       *session.ProblemRef
	Messages      []session.Message
	StuckCount    int
	LastHintLevel int
	Difficulty    Difficulty
}

// Turn is the outcome of Continue.
type Turn struct {
	TutorMessage session.Message
	Completion   completion.Score
	StuckLevel   int
}

// SessionStore is the subset of session.Store the orchestrator needs.
type SessionStore interface {
	Create(ctx context.Context, problem *session.ProblemRef, owner, difficulty string) *session.Session
	Get(ctx context.Context, id, owner string) (*session.Session, error)
	Append(ctx context.Context, id string, msg session.Message, owner string) (*session.Session, error)
	MarkCompleted(ctx context.Context, id, owner string) error
	Delete(ctx context.Context, id, owner string) error
}

// CompletionListener is notified once per turn whose verdict is completed.
type CompletionListener interface {
	SessionCompleted(ctx context.Context, sess *session.Session, score completion.Score)
}

// CompletionListenerFunc adapts a function to CompletionListener.
type CompletionListenerFunc func(ctx context.Context, sess *session.Session, score completion.Score)

func (f CompletionListenerFunc) SessionCompleted(ctx context.Context, sess *session.Session, score completion.Score) {
	f(ctx, sess, score)
}

// Observer receives per-turn measurements.
type Observer interface {
	TurnFinished(outcome string, seconds float64)
	StuckLevel(level int)
	Verdict(score completion.Score)
	ProviderError(class string)
}

// Turn outcomes reported to the Observer.
const (
	OutcomeOK            = "ok"
	OutcomeProviderError = "provider_error"
	OutcomeSessionError  = "session_error"
)

type nopObserver struct{}

func (nopObserver) TurnFinished(string, float64) {}
func (nopObserver) StuckLevel(int)               {}
func (nopObserver) Verdict(completion.Score)     {}
func (nopObserver) ProviderError(string)         {}

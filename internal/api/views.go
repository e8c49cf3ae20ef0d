package api

import (
	"time"

	"github.com/abhisek/socratic/internal/completion"
	"github.com/abhisek/socratic/internal/dialogue"
	"github.com/abhisek/socratic/internal/session"
)

type createSessionRequest struct {
	Problem    string `json:"problem" validate:"required,max=4000"`
	ProblemID  string `json:"problem_id" validate:"omitempty,max=128"`
	Difficulty string `json:"difficulty" validate:"omitempty,max=32"`
}

type continueRequest struct {
	Content    string `json:"content" validate:"required,max=4000"`
	Difficulty string `json:"difficulty" validate:"omitempty,max=32"`
}

type problemView struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

type messageView struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	HintLevel int       `json:"hint_level,omitempty"`
}

type sessionView struct {
	ID           string        `json:"id"`
	Problem      *problemView  `json:"problem,omitempty"`
	Difficulty   string        `json:"difficulty"`
	Status       string        `json:"status"`
	Guest        bool          `json:"guest"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity time.Time     `json:"last_activity"`
	ExpiresAt    *time.Time    `json:"expires_at,omitempty"`
	Messages     []messageView `json:"messages"`
}

type completionView struct {
	Score       int      `json:"score"`
	IsCompleted bool     `json:"is_completed"`
	Confidence  string   `json:"confidence"`
	Reasons     []string `json:"reasons"`
	Answer      string   `json:"answer,omitempty"`
}

type turnView struct {
	TutorMessage messageView    `json:"tutor_message"`
	Completion   completionView `json:"completion"`
	StuckLevel   int            `json:"stuck_level"`
}

type errorView struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

func newMessageView(m session.Message) messageView {
	return messageView{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		Timestamp: m.Timestamp,
		HintLevel: m.HintLevel,
	}
}

func newSessionView(s *session.Session, timeout time.Duration) sessionView {
	v := sessionView{
		ID:           s.ID,
		Difficulty:   s.Difficulty,
		Status:       string(s.Status),
		Guest:        s.IsGuest(),
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		Messages:     make([]messageView, 0, len(s.Messages)),
	}
	if s.Problem != nil {
		v.Problem = &problemView{ID: s.Problem.ID, Text: s.Problem.Text}
	}
	if timeout > 0 {
		exp := s.ExpiresAt(timeout)
		v.ExpiresAt = &exp
	}
	for _, m := range s.Messages {
		v.Messages = append(v.Messages, newMessageView(m))
	}
	return v
}

func newCompletionView(c completion.Score) completionView {
	reasons := c.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return completionView{
		Score:       c.Score,
		IsCompleted: c.IsCompleted,
		Confidence:  string(c.Confidence),
		Reasons:     reasons,
		Answer:      c.Answer,
	}
}

func newTurnView(t *dialogue.Turn) turnView {
	return turnView{
		TutorMessage: newMessageView(t.TutorMessage),
		Completion:   newCompletionView(t.Completion),
		StuckLevel:   t.StuckLevel,
	}
}

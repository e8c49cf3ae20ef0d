// Package dialogue runs tutoring turns: it records the student's message,
// reads the stuck and completion signals off the updated transcript, asks
// the model for the tutor's reply and records that too.
package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/socratic/internal/completion"
	"github.com/abhisek/socratic/internal/llm"
	"github.com/abhisek/socratic/internal/session"
	"github.com/abhisek/socratic/internal/stuck"
)

// PurposeTutorReply labels tutor reply requests in the LLM event log.
const PurposeTutorReply = "tutor-reply"

var (
	// ErrEmptyProblem is returned by Begin for a blank problem.
	ErrEmptyProblem = errors.New("problem text is required")

	// ErrEmptyMessage is returned by Continue for a blank student message.
	ErrEmptyMessage = errors.New("message content is required")

	// ErrEmptyReply means the model produced nothing usable.
	ErrEmptyReply = errors.New("tutor reply was empty")
)

// Orchestrator is the entry point request handlers use.
type Orchestrator struct {
	store     SessionStore
	provider  llm.Provider
	detector  *completion.Detector
	cfg       Config
	listeners []CompletionListener
	observer  Observer
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDetector replaces the default completion detector.
func WithDetector(d *completion.Detector) Option {
	return func(o *Orchestrator) { o.detector = d }
}

// WithCompletionListener adds a listener for completed verdicts.
func WithCompletionListener(l CompletionListener) Option {
	return func(o *Orchestrator) { o.listeners = append(o.listeners, l) }
}

// WithObserver sets the per-turn measurement sink.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator.
func New(store SessionStore, provider llm.Provider, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		provider: provider,
		detector: completion.New(completion.DefaultWeights()),
		cfg:      cfg,
		observer: nopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Begin starts a session for problem. An empty owner makes a guest session.
func (o *Orchestrator) Begin(ctx context.Context, problem session.ProblemRef, owner, difficulty string) (*session.Session, error) {
	problem.Text = strings.TrimSpace(problem.Text)
	if problem.Text == "" {
		return nil, ErrEmptyProblem
	}
	d, err := ParseDifficulty(difficulty)
	if err != nil {
		return nil, err
	}

	sess := o.store.Create(ctx, &problem, owner, string(d))
	o.logger.Info("session started", "session_id", sess.ID, "guest", sess.IsGuest(), "difficulty", d)
	return sess, nil
}

// Get returns a snapshot of the session.
func (o *Orchestrator) Get(ctx context.Context, id, owner string) (*session.Session, error) {
	return o.store.Get(ctx, id, owner)
}

// End deletes the session from both tiers.
func (o *Orchestrator) End(ctx context.Context, id, owner string) error {
	if err := o.store.Delete(ctx, id, owner); err != nil {
		return err
	}
	o.logger.Info("session ended", "session_id", id)
	return nil
}

// Continue records the student's message and produces the tutor's reply.
// The completion verdict covers the transcript up to and including the
// student's message, not the reply generated here. An empty difficulty
// keeps the session's own.
//
// Provider failures are returned wrapped and are not retried here; the
// student's message stays in the transcript.
func (o *Orchestrator) Continue(ctx context.Context, id, userText, owner, difficulty string) (*Turn, error) {
	start := time.Now()
	turn, err := o.continueTurn(ctx, id, userText, owner, difficulty)

	outcome := OutcomeOK
	var provErr *ProviderError
	switch {
	case errors.As(err, &provErr):
		outcome = OutcomeProviderError
		o.observer.ProviderError(string(llm.Classify(provErr.Err)))
	case err != nil:
		outcome = OutcomeSessionError
	}
	o.observer.TurnFinished(outcome, time.Since(start).Seconds())
	return turn, err
}

func (o *Orchestrator) continueTurn(ctx context.Context, id, userText, owner, difficulty string) (*Turn, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, ErrEmptyMessage
	}

	var override Difficulty
	if difficulty != "" {
		d, err := ParseDifficulty(difficulty)
		if err != nil {
			return nil, err
		}
		override = d
	}

	sess, err := o.store.Append(ctx, id, session.NewMessage(session.RoleUser, userText), owner)
	if err != nil {
		return nil, err
	}

	d := override
	if d == "" {
		// Sessions always carry a parsed difficulty; an unreadable one
		// from an older row falls back to the default.
		if d, err = ParseDifficulty(sess.Difficulty); err != nil {
			d = DefaultDifficulty
		}
	}

	level := stuck.Compute(sess.Messages)
	score := o.detector.Evaluate(sess.Messages, sess.Problem)
	o.observer.StuckLevel(level)
	o.observer.Verdict(score)

	cc := ConversationContext{
		SessionID:  sess.ID,
		Problem:    sess.Problem,
		Messages:   session.Window(sess.Messages, o.cfg.WindowSize),
		StuckCount: level,
		Difficulty: d,
	}
	if last, ok := session.LastByRole(sess.Messages, session.RoleTutor); ok {
		cc.LastHintLevel = last.HintLevel
	}

	reply, hintLevel, err := o.generate(ctx, cc)
	if err != nil {
		o.logger.Error("tutor reply failed",
			"session_id", sess.ID,
			"class", string(llm.Classify(err)),
			"error", err)
		return nil, err
	}

	tutorMsg := session.NewMessage(session.RoleTutor, reply)
	tutorMsg.HintLevel = hintLevel
	updated, err := o.store.Append(ctx, id, tutorMsg, owner)
	if err != nil {
		return nil, err
	}

	if score.IsCompleted {
		o.complete(ctx, updated, score)
	}

	o.logger.Debug("turn complete",
		"session_id", sess.ID,
		"stuck_level", level,
		"score", score.Score,
		"completed", score.IsCompleted)

	return &Turn{
		TutorMessage: updated.Messages[len(updated.Messages)-1],
		Completion:   score,
		StuckLevel:   level,
	}, nil
}

func (o *Orchestrator) complete(ctx context.Context, sess *session.Session, score completion.Score) {
	if sess.Status != session.StatusCompleted {
		if err := o.store.MarkCompleted(ctx, sess.ID, sess.Owner); err != nil {
			o.logger.Warn("mark completed failed", "session_id", sess.ID, "error", err)
		} else {
			sess.Status = session.StatusCompleted
		}
	}
	o.logger.Info("session completed",
		"session_id", sess.ID,
		"score", score.Score,
		"confidence", score.Confidence)
	for _, l := range o.listeners {
		l.SessionCompleted(ctx, sess, score)
	}
}

// temperature picks the sampling temperature for a stuck level.
func (o *Orchestrator) temperature(level int) float64 {
	if level >= o.cfg.StuckThreshold {
		return o.cfg.StuckTemperature
	}
	return o.cfg.Temperature
}

func (o *Orchestrator) generate(ctx context.Context, cc ConversationContext) (string, int, error) {
	ctx = llm.WithPurpose(ctx, PurposeTutorReply)
	ctx, cancel := context.WithTimeout(ctx, o.cfg.TurnTimeout)
	defer cancel()

	req := llm.Request{
		System: systemPrompt(cc.Difficulty, o.cfg.Structured),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(cc)},
		},
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.temperature(cc.StuckCount),
	}
	if o.cfg.Structured {
		req.Schema = ReplySchema
	}

	resp, err := o.provider.Generate(ctx, req)
	var content json.RawMessage
	switch {
	case err == nil:
		content = resp.Content
	default:
		// A reply that failed the schema is still a reply.
		var inv *llm.ErrInvalidResponse
		if !errors.As(err, &inv) || len(inv.Content) == 0 {
			return "", 0, &ProviderError{Err: err}
		}
		content = inv.Content
	}

	reply, hintLevel := parseReply(content, cc.StuckCount)
	if reply == "" {
		return "", 0, &ProviderError{Err: &llm.ErrInvalidResponse{Content: content, Err: ErrEmptyReply}}
	}
	return reply, hintLevel, nil
}

type replyOutput struct {
	Reply     string `json:"reply"`
	HintLevel *int   `json:"hint_level"`
}

// parseReply accepts the structured object, a bare JSON string or plain
// text. Without a reported hint level the stuck level stands in.
func parseReply(content json.RawMessage, fallbackLevel int) (string, int) {
	var out replyOutput
	if err := json.Unmarshal(content, &out); err == nil && strings.TrimSpace(out.Reply) != "" {
		level := fallbackLevel
		if out.HintLevel != nil {
			level = min(max(*out.HintLevel, 0), stuck.MaxLevel)
		}
		return strings.TrimSpace(out.Reply), level
	}

	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return strings.TrimSpace(s), fallbackLevel
	}
	text := strings.TrimSpace(string(content))
	if strings.HasPrefix(text, "{") {
		return "", fallbackLevel
	}
	return text, fallbackLevel
}

// ProviderError wraps a failure of the reply generator so callers can tell
// it apart from session errors.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("generate tutor reply: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

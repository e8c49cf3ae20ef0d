package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// MaxMessages is the number of messages retained per session. Older
	// messages are dropped first.
	MaxMessages = 100

	// Timeout is how long a session lives after creation.
	Timeout = 30 * time.Minute

	// SweepInterval is the default period of the background expiry sweep.
	SweepInterval = 5 * time.Minute
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleTutor Role = "tutor"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Message is a single transcript entry. Messages are never modified after
// they are appended.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// HintLevel is the guidance level the tutor reported for this reply.
	// Zero for user messages.
	HintLevel int `json:"hint_level,omitempty"`
}

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewMessageID returns a time-sortable message id.
func NewMessageID(t time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), idEntropy).String()
}

// NewMessage builds a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	now := time.Now()
	return Message{
		ID:        NewMessageID(now),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
}

// ProblemRef identifies the problem a session is working on.
type ProblemRef struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// Session is one tutoring conversation about one problem.
type Session struct {
	ID           string
	Owner        string // empty for guests
	Problem      *ProblemRef
	Difficulty   string
	Messages     []Message
	CreatedAt    time.Time
	LastActivity time.Time
	Status       Status
}

// IsGuest reports whether the session has no durable identity.
func (s *Session) IsGuest() bool { return s.Owner == "" }

// ExpiresAt returns the instant the session expires under the given timeout.
func (s *Session) ExpiresAt(timeout time.Duration) time.Time {
	return s.CreatedAt.Add(timeout)
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := *s
	if s.Problem != nil {
		p := *s.Problem
		c.Problem = &p
	}
	c.Messages = make([]Message, len(s.Messages))
	copy(c.Messages, s.Messages)
	return &c
}

// Window returns up to the last n messages of msgs.
func Window(msgs []Message, n int) []Message {
	if n <= 0 {
		return nil
	}
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

// LastByRole returns the most recent message with the given role.
func LastByRole(msgs []Message, role Role) (Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == role {
			return msgs[i], true
		}
	}
	return Message{}, false
}

// capMessages keeps the most recent max messages, preserving order.
func capMessages(msgs []Message, max int) []Message {
	if max <= 0 || len(msgs) <= max {
		return msgs
	}
	kept := make([]Message, max)
	copy(kept, msgs[len(msgs)-max:])
	return kept
}

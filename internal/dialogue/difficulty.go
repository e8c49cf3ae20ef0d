package dialogue

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDifficulty is returned for a difficulty name that is not recognised.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulty tunes the tutor's vocabulary and pacing.
type Difficulty string

const (
	Elementary Difficulty = "elementary"
	Middle     Difficulty = "middle"
	High       Difficulty = "high"
	Advanced   Difficulty = "advanced"

	DefaultDifficulty = Middle
)

var audience = map[Difficulty]string{
	Elementary: "an elementary school student. Use short sentences, everyday words and small numbers in any examples",
	Middle:     "a middle school student. Use plain language and introduce terms like variable or expression only when needed",
	High:       "a high school student. Standard mathematical vocabulary is fine",
	Advanced:   "an advanced student. Be concise and precise, and expect formal notation",
}

// ParseDifficulty accepts a difficulty name in any case. The empty string
// yields DefaultDifficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultDifficulty, nil
	}
	d := Difficulty(s)
	if _, ok := audience[d]; !ok {
		return "", fmt.Errorf("%w %q (want elementary, middle, high or advanced)", ErrUnknownDifficulty, s)
	}
	return d, nil
}

func (d Difficulty) String() string { return string(d) }

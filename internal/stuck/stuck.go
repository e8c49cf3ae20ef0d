// Package stuck derives how much extra guidance a student needs from the
// shape of the most recent turns.
package stuck

import (
	"github.com/abhisek/socratic/internal/patterns"
	"github.com/abhisek/socratic/internal/session"
)

const (
	// WindowSize is the number of trailing messages considered.
	WindowSize = 6

	// MaxLevel is the highest stuck level.
	MaxLevel = 3

	// maxRunContribution caps what a single run of tutor messages adds.
	maxRunContribution = 2

	// struggleThreshold is the number of short or confused replies that adds a level.
	struggleThreshold = 2
)

// Compute returns a stuck level in [0, MaxLevel] for the trailing window of
// a transcript. Only the last WindowSize messages are used.
func Compute(msgs []session.Message) int {
	window := session.Window(msgs, WindowSize)

	level := 0
	run := 0
	struggling := 0
	for i := len(window) - 1; i >= 0; i-- {
		m := window[i]
		if m.Role == session.RoleTutor {
			run++
			continue
		}
		level += runContribution(run)
		run = 0
		if patterns.IsShort(m.Content) || patterns.IsConfused(m.Content) {
			struggling++
		}
	}
	level += runContribution(run)

	if struggling >= struggleThreshold {
		level++
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return level
}

// runContribution scores a run of n consecutive tutor messages.
func runContribution(n int) int {
	if n <= 1 {
		return 0
	}
	return min(n-1, maxRunContribution)
}

var hints = [...]string{
	"The student is engaging well. Keep asking open questions that let them find the next step.",
	"The student needs more specific questions. Narrow the focus to a single step.",
	"Provide a concrete hint about the next step without giving away the answer.",
	"Provide a more direct hint. Walk through the next step together, but let the student finish it.",
}

// Hint returns the adaptation guidance for a stuck level.
func Hint(level int) string {
	if level < 0 {
		level = 0
	}
	if level >= len(hints) {
		level = len(hints) - 1
	}
	return hints[level]
}

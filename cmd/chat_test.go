package cmd

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/socratic/internal/dialogue"
	"github.com/abhisek/socratic/internal/llm"
	"github.com/abhisek/socratic/internal/session"
)

func newChatFixture(t *testing.T, replies ...llm.MockResponse) (*dialogue.Orchestrator, string, *cobra.Command) {
	t.Helper()
	store := session.NewStore()
	t.Cleanup(store.Close)
	orch := dialogue.New(store, llm.NewMockProvider(replies...), dialogue.DefaultConfig())

	sess, err := orch.Begin(context.Background(), session.ProblemRef{Text: "Solve 2x + 3 = 11"}, "", "")
	require.NoError(t, err)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return orch, sess.ID, cmd
}

func TestChatLoop_StopsWhenSolved(t *testing.T) {
	orch, id, cmd := newChatFixture(t,
		llm.TextResponse("That's right."),
		llm.TextResponse("Great work."),
	)

	in := bufio.NewScanner(strings.NewReader("x = 4\n\nthanks\nnever read\n"))
	var out bytes.Buffer
	require.NoError(t, chatLoop(cmd, orch, id, "", in, &out))

	assert.Contains(t, out.String(), "That's right.")
	assert.Contains(t, out.String(), "Solved! Answer: 4")
	assert.NotContains(t, out.String(), "never read")
}

func TestChatLoop_Quit(t *testing.T) {
	orch, id, cmd := newChatFixture(t)

	in := bufio.NewScanner(strings.NewReader("/quit\n"))
	var out bytes.Buffer
	require.NoError(t, chatLoop(cmd, orch, id, "", in, &out))
	assert.NotContains(t, out.String(), "tutor")
}

func TestChatLoop_ShowsProviderErrors(t *testing.T) {
	orch, id, cmd := newChatFixture(t, llm.MockResponse{Err: &llm.ErrQuotaExceeded{}})

	in := bufio.NewScanner(strings.NewReader("help\n"))
	var out bytes.Buffer
	require.NoError(t, chatLoop(cmd, orch, id, "", in, &out))
	assert.Contains(t, out.String(), "run out of capacity")
}

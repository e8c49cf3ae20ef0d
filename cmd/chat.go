package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/socratic/internal/dialogue"
	"github.com/abhisek/socratic/internal/llm"
	"github.com/abhisek/socratic/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat [problem]",
	Short: "Work through a problem with the tutor in the terminal",
	Long: "chat starts a tutoring session for the given problem and reads your replies from stdin. " +
		"Type /quit to leave.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		difficulty, _ := cmd.Flags().GetString("difficulty")
		user, _ := cmd.Flags().GetString("user")

		t, err := newTutor(ctx, cmd, nil)
		if err != nil {
			return err
		}
		defer t.Close()

		in := bufio.NewScanner(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		problem := ""
		if len(args) == 1 {
			problem = args[0]
		} else {
			fmt.Fprint(out, "Problem: ")
			if in.Scan() {
				problem = in.Text()
			}
		}

		sess, err := t.orch.Begin(ctx, session.ProblemRef{Text: problem}, user, difficulty)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, problemStyle.Render(sess.Problem.Text))
		fmt.Fprintln(out, statusStyle.Render(fmt.Sprintf("session %s · %s", sess.ID, sess.Difficulty)))

		return chatLoop(cmd, t.orch, sess.ID, user, in, out)
	},
}

func chatLoop(cmd *cobra.Command, orch *dialogue.Orchestrator, id, user string, in *bufio.Scanner, out io.Writer) error {
	ctx := cmd.Context()
	for {
		fmt.Fprint(out, studentLabel.Render("you")+" › ")
		if !in.Scan() {
			return in.Err()
		}
		text := strings.TrimSpace(in.Text())
		switch text {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}

		turn, err := orch.Continue(ctx, id, text, user, "")
		if err != nil {
			msg := err.Error()
			if llm.Classify(err) != llm.ClassUnknown {
				msg = llm.UserMessage(err)
			}
			fmt.Fprintln(out, errorStyle.Render(msg))
			continue
		}

		fmt.Fprintln(out, tutorLabel.Render("tutor")+" › "+turn.TutorMessage.Content)
		c := turn.Completion
		fmt.Fprintln(out, statusStyle.Render(fmt.Sprintf("stuck %d · score %d (%s)", turn.StuckLevel, c.Score, c.Confidence)))
		if c.IsCompleted {
			line := "Solved!"
			if c.Answer != "" {
				line = fmt.Sprintf("Solved! Answer: %s", c.Answer)
			}
			fmt.Fprintln(out, solvedStyle.Render(line))
			return nil
		}
	}
}

func init() {
	chatCmd.Flags().StringP("difficulty", "d", "", "elementary, middle, high or advanced")
	chatCmd.Flags().StringP("user", "u", "", "Identity to persist the session under (guest when empty)")
}

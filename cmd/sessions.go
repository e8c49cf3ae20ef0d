package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/socratic/internal/session"
	"github.com/abhisek/socratic/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect persisted tutoring sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted sessions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		owner, _ := cmd.Flags().GetString("user")
		status, _ := cmd.Flags().GetString("status")

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		recs, err := s.SessionRepo().List(cmd.Context(), store.ListOpts{
			Owner:  owner,
			Status: session.Status(status),
			Limit:  limit,
		})
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		fmt.Printf("%-36s  %-16s  %-10s  %-9s  %4s  %-19s  %s\n",
			"ID", "User", "Difficulty", "Status", "Msgs", "Last activity", "Problem")
		fmt.Println(strings.Repeat("─", 130))
		now := time.Now()
		for _, r := range recs {
			status := string(r.Status)
			if !now.Before(r.ExpiresAt) {
				status = "expired"
			}
			problem := ""
			if r.Problem != nil {
				problem = truncate(r.Problem.Text, 30)
			}
			fmt.Printf("%-36s  %-16s  %-10s  %-9s  %4d  %-19s  %s\n",
				r.ID,
				truncate(r.Owner, 16),
				r.Difficulty,
				status,
				len(r.Messages),
				r.LastActivity.Local().Format("2006-01-02 15:04:05"),
				problem,
			)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session transcript and its completion verdicts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		rec, err := s.SessionRepo().Get(ctx, args[0])
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("session %s not found", args[0])
		}

		fmt.Printf("ID:          %s\n", rec.ID)
		fmt.Printf("User:        %s\n", rec.Owner)
		if rec.Problem != nil {
			fmt.Printf("Problem:     %s\n", rec.Problem.Text)
		}
		fmt.Printf("Difficulty:  %s\n", rec.Difficulty)
		fmt.Printf("Status:      %s\n", rec.Status)
		fmt.Printf("Started:     %s\n", rec.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Expires:     %s\n", rec.ExpiresAt.Local().Format("2006-01-02 15:04:05"))

		sep := strings.Repeat("─", 60)
		fmt.Println()
		fmt.Println(sep)
		for _, m := range rec.Messages {
			label := "student"
			if m.Role == session.RoleTutor {
				label = fmt.Sprintf("tutor [hint %d]", m.HintLevel)
			}
			fmt.Printf("%s  %s\n  %s\n", m.Timestamp.Local().Format("15:04:05"), label, m.Content)
		}
		fmt.Println(sep)

		verdicts, err := s.EventRepo().QueryCompletions(ctx, rec.ID)
		if err != nil {
			return err
		}
		for _, v := range verdicts {
			fmt.Printf("Completed at %s: score %d, %s confidence",
				v.Timestamp.Local().Format("15:04:05"), v.Score, v.Confidence)
			if v.Answer != "" {
				fmt.Printf(", answer %s", v.Answer)
			}
			fmt.Println()
			for _, reason := range v.Reasons {
				fmt.Printf("  - %s\n", reason)
			}
		}
		return nil
	},
}

var sessionsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired sessions from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.SessionRepo().PurgeExpired(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d expired session(s).\n", n)
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
	sessionsListCmd.Flags().StringP("user", "u", "", "Only sessions owned by this identity")
	sessionsListCmd.Flags().String("status", "", "Filter by status (active, completed)")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsPurgeCmd)
}

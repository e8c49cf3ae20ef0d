package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/socratic/internal/dialogue"
	"github.com/abhisek/socratic/internal/llm"
	"github.com/abhisek/socratic/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		since, _ := cmd.Flags().GetDuration("since")

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		opts := store.QueryOpts{Limit: limit, Purpose: purpose}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM requests recorded.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-12s  %-28s  %6s  %6s  %7s  %s\n",
			"ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 100))
		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Printf("%-5d  %-19s  %-12s  %-28s  %6d  %6d  %7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Purpose, 12),
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		fmt.Printf("ID:        %d\n", e.ID)
		fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Provider:  %s\n", e.Provider)
		fmt.Printf("Model:     %s\n", e.Model)
		fmt.Printf("Purpose:   %s\n", e.Purpose)
		fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		if cost, ok := llm.EstimateCost(e.Model, e.InputTokens, e.OutputTokens); ok {
			fmt.Printf("Cost:      %s\n", formatCost(cost))
		}
		fmt.Printf("Latency:   %dms\n", e.LatencyMs)
		if e.ErrorMessage != "" {
			fmt.Printf("Error:     %s\n", e.ErrorMessage)
		}

		printSection("REQUEST", e.RequestBody)
		printSection("RESPONSE", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		stats, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(stats) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		rule := strings.Repeat("─", 72)
		fmt.Println("Usage by purpose")
		fmt.Println(rule)
		fmt.Printf("%-16s  %6s  %10s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Total", "Avg ms")
		fmt.Println(rule)
		var calls, in, out int
		for _, st := range stats {
			fmt.Printf("%-16s  %6d  %10d  %10d  %10d  %8d\n",
				truncate(st.Purpose, 16), st.Calls, st.InputTokens, st.OutputTokens,
				st.InputTokens+st.OutputTokens, st.AvgLatencyMs)
			calls += st.Calls
			in += st.InputTokens
			out += st.OutputTokens
		}
		fmt.Println(rule)
		fmt.Printf("%-16s  %6d  %10d  %10d  %10d\n", "TOTAL", calls, in, out, in+out)

		models, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(models) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Println("Estimated cost (USD)")
		fmt.Println(rule)
		fmt.Printf("%-32s  %6s  %10s  %10s  %9s\n", "Model", "Calls", "Input", "Output", "Cost")
		fmt.Println(rule)
		var total float64
		var unpriced []string
		for _, mu := range models {
			cost, ok := llm.EstimateCost(mu.Model, mu.InputTokens, mu.OutputTokens)
			costStr := "?"
			if ok {
				total += cost
				costStr = formatCost(cost)
			} else {
				unpriced = append(unpriced, mu.Model)
			}
			fmt.Printf("%-32s  %6d  %10d  %10d  %9s\n",
				truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, costStr)
		}
		fmt.Println(rule)
		label := "TOTAL"
		if len(unpriced) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Printf("%-32s  %6s  %10s  %10s  %9s\n", label, "", "", "", formatCost(total))
		if len(unpriced) > 0 {
			fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func printSection(title, body string) {
	sep := strings.Repeat("─", 60)
	fmt.Println()
	fmt.Println(sep)
	fmt.Println(title)
	fmt.Println(sep)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Println(body)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. "+dialogue.PurposeTutorReply+")")
	llmListCmd.Flags().Duration("since", 0, "Only events newer than this (e.g. 24h)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}

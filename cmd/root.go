package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/socratic/internal/config"
	"github.com/abhisek/socratic/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "socratic",
	Short: "Socratic math tutoring service",
	Long: "socratic runs guided math tutoring sessions: the tutor answers questions with questions, " +
		"adapts when the student is stuck and detects when the problem has been solved.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SOCRATIC_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides SOCRATIC_CONFIG env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then SOCRATIC_DB or the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// openStore loads configuration and opens the database it points at.
func openStore(cmd *cobra.Command) (*store.Store, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}

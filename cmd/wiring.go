package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/abhisek/socratic/internal/completion"
	"github.com/abhisek/socratic/internal/config"
	"github.com/abhisek/socratic/internal/dialogue"
	"github.com/abhisek/socratic/internal/llm"
	"github.com/abhisek/socratic/internal/metrics"
	"github.com/abhisek/socratic/internal/session"
	"github.com/abhisek/socratic/internal/store"
)

// tutor bundles everything a tutoring front end needs.
type tutor struct {
	cfg      *config.Config
	logger   *slog.Logger
	st       *store.Store
	sessions *session.Store
	orch     *dialogue.Orchestrator
}

// newTutor opens the database and wires the session store, provider and
// orchestrator. reg may be nil when metrics are not exported.
func newTutor(ctx context.Context, cmd *cobra.Command, reg prometheus.Registerer) (*tutor, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	provider, err := newProvider(ctx, st.EventRepo(), logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	var (
		sessionListener session.Listener
		observer        dialogue.Observer
	)
	if reg != nil {
		rec := metrics.New(reg)
		sessionListener, observer = rec, rec
	}

	sessions := session.NewStore(
		session.WithPersister(st.SessionRepo()),
		session.WithTimeout(cfg.Session.Timeout),
		session.WithMaxMessages(cfg.Session.MaxMessages),
		session.WithQueueSize(cfg.Session.QueueSize),
		session.WithLogger(logger),
		session.WithListener(sessionListener),
	)

	opts := []dialogue.Option{
		dialogue.WithDetector(completion.New(cfg.Completion)),
		dialogue.WithCompletionListener(store.NewCompletionRecorder(st.EventRepo(), logger)),
		dialogue.WithLogger(logger),
	}
	if observer != nil {
		opts = append(opts, dialogue.WithObserver(observer))
	}
	orch := dialogue.New(sessions, provider, cfg.Dialogue, opts...)

	return &tutor{cfg: cfg, logger: logger, st: st, sessions: sessions, orch: orch}, nil
}

// Close drains pending session writes before closing the database.
func (t *tutor) Close() {
	t.sessions.Close()
	if err := t.st.Close(); err != nil {
		t.logger.Warn("close database", "error", err)
	}
}

// newProvider builds the LLM provider from SOCRATIC_* variables. When those
// do not name a usable provider the first standard API key found in the
// environment is used.
func newProvider(ctx context.Context, repo store.EventRepo, logger *slog.Logger) (llm.Provider, error) {
	cfg := llm.ConfigFromEnv()
	if cfg.Validate() != nil && os.Getenv("SOCRATIC_LLM_PROVIDER") == "" {
		if discovered, ok := llm.DiscoverConfig(); ok {
			cfg = discovered
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(errors.New("LLM provider not configured (set SOCRATIC_LLM_PROVIDER=mock to run offline)"), err)
	}
	provider, err := llm.NewProvider(ctx, cfg, repo, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("llm provider ready", "provider", cfg.Provider, "model", provider.ModelID())
	return provider, nil
}

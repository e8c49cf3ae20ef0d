package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/socratic/internal/completion"
	"github.com/abhisek/socratic/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id, owner string, at time.Time, msgs ...string) session.Record {
	rec := session.Record{
		ID:           id,
		Owner:        owner,
		Problem:      &session.ProblemRef{ID: "p-1", Text: "Solve 2x + 3 = 11"},
		Difficulty:   "middle",
		StartedAt:    at,
		LastActivity: at,
		ExpiresAt:    at.Add(30 * time.Minute),
		Status:       session.StatusActive,
	}
	for i, m := range msgs {
		role := session.RoleUser
		if i%2 == 1 {
			role = session.RoleTutor
		}
		rec.Messages = append(rec.Messages, session.Message{
			ID: fmt.Sprintf("m%d", i), Role: role, Content: m, Timestamp: at,
		})
	}
	return rec
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// journal_mode reports "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestWithPragmas(t *testing.T) {
	got := withPragmas("/tmp/a.db")
	if !strings.HasPrefix(got, "/tmp/a.db?_pragma=foreign_keys(1)&") {
		t.Fatalf("unexpected dsn %q", got)
	}
	got = withPragmas("file:x?mode=memory")
	if !strings.HasPrefix(got, "file:x?mode=memory&_pragma=") {
		t.Fatalf("unexpected dsn %q", got)
	}
	if strings.Count(got, "_pragma=") != len(pragmas) {
		t.Fatalf("expected %d pragmas in %q", len(pragmas), got)
	}
}

func TestFileDatabaseUsesWAL(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "wal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
}

func TestSessionRepo_SaveLoad(t *testing.T) {
	repo := openTestStore(t).SessionRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	rec := testRecord("s1", "alice", now, "I think x = 4", "Great job! That's correct.")
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Load(ctx, "s1", "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("expected a record")
	}
	if got.Problem == nil || got.Problem.Text != "Solve 2x + 3 = 11" || got.Problem.ID != "p-1" {
		t.Errorf("problem = %+v", got.Problem)
	}
	if len(got.Messages) != 2 || got.Messages[1].Role != session.RoleTutor {
		t.Errorf("messages = %+v", got.Messages)
	}
	if !got.ExpiresAt.Equal(rec.ExpiresAt) || !got.StartedAt.Equal(now) {
		t.Errorf("times = %s / %s", got.StartedAt, got.ExpiresAt)
	}
	if got.Status != session.StatusActive || got.Difficulty != "middle" {
		t.Errorf("status/difficulty = %q/%q", got.Status, got.Difficulty)
	}

	other, err := repo.Load(ctx, "s1", "mallory")
	if err != nil {
		t.Fatalf("load other owner: %v", err)
	}
	if other != nil {
		t.Fatal("record must not load for a different owner")
	}

	missing, err := repo.Load(ctx, "nope", "alice")
	if err != nil || missing != nil {
		t.Fatalf("missing record = %v, %v", missing, err)
	}
}

func TestSessionRepo_SaveWithoutProblem(t *testing.T) {
	repo := openTestStore(t).SessionRepo()
	ctx := context.Background()

	rec := testRecord("s1", "alice", time.Now().UTC())
	rec.Problem = nil
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Problem != nil {
		t.Fatalf("expected no problem, got %+v", got.Problem)
	}
	if got.Messages == nil || len(got.Messages) != 0 {
		t.Fatalf("expected empty messages, got %#v", got.Messages)
	}
}

func TestSessionRepo_Upsert(t *testing.T) {
	repo := openTestStore(t).SessionRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	if err := repo.Save(ctx, testRecord("s1", "alice", now, "hi")); err != nil {
		t.Fatalf("save: %v", err)
	}
	later := testRecord("s1", "alice", now, "hi", "What do you notice?", "x = 4")
	later.LastActivity = now.Add(time.Minute)
	later.Status = session.StatusCompleted
	if err := repo.Save(ctx, later); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := repo.Load(ctx, "s1", "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Messages) != 3 {
		t.Errorf("messages = %d, want 3", len(got.Messages))
	}
	if got.Status != session.StatusCompleted {
		t.Errorf("status = %q", got.Status)
	}
	if !got.LastActivity.Equal(later.LastActivity) {
		t.Errorf("last activity = %s", got.LastActivity)
	}
}

func TestSessionRepo_Delete(t *testing.T) {
	repo := openTestStore(t).SessionRepo()
	ctx := context.Background()

	if err := repo.Save(ctx, testRecord("s1", "alice", time.Now().UTC())); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Delete(ctx, "s1", "mallory"); err != nil {
		t.Fatalf("delete other owner: %v", err)
	}
	if got, _ := repo.Load(ctx, "s1", "alice"); got == nil {
		t.Fatal("delete by another owner must not remove the record")
	}

	if err := repo.Delete(ctx, "s1", "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := repo.Load(ctx, "s1", "alice"); got != nil {
		t.Fatal("record should be gone")
	}
	if err := repo.Delete(ctx, "s1", "alice"); err != nil {
		t.Fatalf("deleting a missing record should succeed: %v", err)
	}
}

func TestSessionRepo_PurgeExpired(t *testing.T) {
	repo := openTestStore(t).SessionRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	for i, started := range []time.Time{now.Add(-2 * time.Hour), now.Add(-31 * time.Minute), now.Add(-time.Minute)} {
		if err := repo.Save(ctx, testRecord(fmt.Sprintf("s%d", i), "alice", started)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	n, err := repo.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 2 {
		t.Fatalf("purged %d, want 2", n)
	}
	left, err := repo.List(ctx, ListOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 1 || left[0].ID != "s2" {
		t.Fatalf("remaining = %+v", left)
	}
}

func TestSessionRepo_List(t *testing.T) {
	repo := openTestStore(t).SessionRepo()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	recs := []session.Record{
		testRecord("a1", "alice", now.Add(-3*time.Minute)),
		testRecord("a2", "alice", now.Add(-1*time.Minute)),
		testRecord("b1", "bob", now.Add(-2*time.Minute)),
	}
	recs[0].Status = session.StatusCompleted
	for _, r := range recs {
		if err := repo.Save(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	tests := []struct {
		name string
		opts ListOpts
		want []string
	}{
		{"all newest first", ListOpts{}, []string{"a2", "b1", "a1"}},
		{"by owner", ListOpts{Owner: "alice"}, []string{"a2", "a1"}},
		{"by status", ListOpts{Status: session.StatusCompleted}, []string{"a1"}},
		{"limit", ListOpts{Limit: 1}, []string{"a2"}},
		{"expired", ListOpts{ExpiredBefore: now.Add(27*time.Minute + 30*time.Second)}, []string{"a1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			var ids []string
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestSessionRepo_BacksSessionStore(t *testing.T) {
	repo := openTestStore(t).SessionRepo()
	ctx := context.Background()

	st := session.NewStore(session.WithPersister(repo))
	sess := st.Create(ctx, &session.ProblemRef{Text: "What is 3 * 4?"}, "alice", "elementary")
	if _, err := st.Append(ctx, sess.ID, session.NewMessage(session.RoleUser, "12"), "alice"); err != nil {
		t.Fatalf("append: %v", err)
	}
	st.Close()

	rec, err := repo.Load(ctx, sess.ID, "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec == nil || len(rec.Messages) != 1 || rec.Messages[0].Content != "12" {
		t.Fatalf("persisted record = %+v", rec)
	}

	// A fresh store hydrates the session from the durable tier.
	st2 := session.NewStore(session.WithPersister(repo))
	defer st2.Close()
	got, err := st2.Get(ctx, sess.ID, "alice")
	if err != nil {
		t.Fatalf("get after restart: %v", err)
	}
	if len(got.Messages) != 1 || got.Difficulty != "elementary" {
		t.Fatalf("hydrated session = %+v", got)
	}
}

func TestLLMEvents(t *testing.T) {
	repo := openTestStore(t).EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "tutor-reply", InputTokens: 100, OutputTokens: 20, LatencyMs: 300, Success: true, RequestBody: "[user]\nhi", ResponseBody: `{"reply":"hello"}`},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "tutor-reply", InputTokens: 50, OutputTokens: 10, LatencyMs: 100, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "tutor-reply", LatencyMs: 200, Success: false, ErrorMessage: "rate limited"},
		{Provider: "anthropic", Model: "claude-haiku-4-5-20251001", Purpose: "chat-opening", InputTokens: 10, OutputTokens: 5, LatencyMs: 50, Success: true},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 4 || all[0].Purpose != "chat-opening" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if all[0].Timestamp.IsZero() {
		t.Fatal("timestamp not recorded")
	}

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2, Purpose: "tutor-reply"})
	if err != nil {
		t.Fatalf("query limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ErrorMessage != "rate limited" {
		t.Fatalf("limited = %+v", limited)
	}

	first, err := repo.GetLLMEvent(ctx, all[3].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.RequestBody != "[user]\nhi" || first.ResponseBody != `{"reply":"hello"}` || !first.Success {
		t.Fatalf("event = %+v", first)
	}
	if missing, err := repo.GetLLMEvent(ctx, 9999); err != nil || missing != nil {
		t.Fatalf("missing event = %v, %v", missing, err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("byPurpose = %+v", byPurpose)
	}
	tutor := byPurpose[1]
	if tutor.Purpose != "tutor-reply" || tutor.Calls != 3 || tutor.InputTokens != 150 || tutor.AvgLatencyMs != 200 {
		t.Fatalf("tutor usage = %+v", tutor)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[1].Model != "gpt-4o-mini" || byModel[1].Calls != 2 {
		t.Fatalf("byModel = %+v", byModel)
	}
}

func TestCompletionRecorder(t *testing.T) {
	repo := openTestStore(t).EventRepo()
	rec := NewCompletionRecorder(repo, nil)
	ctx := context.Background()

	score := completion.Score{
		Score:       100,
		IsCompleted: true,
		Confidence:  completion.ConfidenceHigh,
		Reasons:     []string{"student gave a final answer (4)", "tutor confirmed the answer is correct"},
		Answer:      "4",
	}

	rec.SessionCompleted(ctx, &session.Session{ID: "guest-1"}, score)
	rec.SessionCompleted(ctx, &session.Session{ID: "s1", Owner: "alice"}, score)

	guest, err := repo.QueryCompletions(ctx, "guest-1")
	if err != nil {
		t.Fatalf("query guest: %v", err)
	}
	if len(guest) != 0 {
		t.Fatal("guest completions must not be stored")
	}

	got, err := repo.QueryCompletions(ctx, "s1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	e := got[0]
	if e.Owner != "alice" || e.Score != 100 || !e.Completed || e.Confidence != "high" || e.Answer != "4" {
		t.Fatalf("event = %+v", e)
	}
	if len(e.Reasons) != 2 || e.Reasons[1] != "tutor confirmed the answer is correct" {
		t.Fatalf("reasons = %v", e.Reasons)
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("SOCRATIC_DB", filepath.Join(dir, "custom", "tutor.db"))
	p, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if p != filepath.Join(dir, "custom", "tutor.db") {
		t.Fatalf("path = %q", p)
	}

	t.Setenv("SOCRATIC_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if p != filepath.Join(dir, "socratic", "socratic.db") {
		t.Fatalf("path = %q", p)
	}
}

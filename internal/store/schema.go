package store

import (
	"context"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableSessions    = "tutor_sessions"
	tableLLMEvents   = "llm_request_events"
	tableCompletions = "completion_events"
)

// Timestamps are stored as unix milliseconds.

func sessionsTable() *schema.Table {
	return schema.NewTable(tableSessions).
		AddPrimary(&schema.Column{Name: "id", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "owner", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "problem_id", Type: field.TypeString, Nullable: true}).
		AddColumn(&schema.Column{Name: "problem_text", Type: field.TypeString, Size: 1 << 16, Nullable: true}).
		AddColumn(&schema.Column{Name: "difficulty", Type: field.TypeString, Default: ""}).
		AddColumn(&schema.Column{Name: "status", Type: field.TypeString, Default: "active"}).
		AddColumn(&schema.Column{Name: "messages_json", Type: field.TypeString, Size: 1 << 24}).
		AddColumn(&schema.Column{Name: "message_count", Type: field.TypeInt, Default: 0}).
		AddColumn(&schema.Column{Name: "started_at", Type: field.TypeInt64}).
		AddColumn(&schema.Column{Name: "last_activity", Type: field.TypeInt64}).
		AddColumn(&schema.Column{Name: "expires_at", Type: field.TypeInt64}).
		AddIndex("tutorsession_owner", false, []string{"owner"}).
		AddIndex("tutorsession_expires_at", false, []string{"expires_at"})
}

func llmEventsTable() *schema.Table {
	return schema.NewTable(tableLLMEvents).
		AddPrimary(&schema.Column{Name: "id", Type: field.TypeInt, Increment: true}).
		AddColumn(&schema.Column{Name: "created_at", Type: field.TypeInt64}).
		AddColumn(&schema.Column{Name: "provider", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "model", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "purpose", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "input_tokens", Type: field.TypeInt, Default: 0}).
		AddColumn(&schema.Column{Name: "output_tokens", Type: field.TypeInt, Default: 0}).
		AddColumn(&schema.Column{Name: "latency_ms", Type: field.TypeInt64, Default: 0}).
		AddColumn(&schema.Column{Name: "success", Type: field.TypeBool}).
		AddColumn(&schema.Column{Name: "error_message", Type: field.TypeString, Size: 1 << 16, Default: ""}).
		AddColumn(&schema.Column{Name: "request_body", Type: field.TypeString, Size: 1 << 24, Default: ""}).
		AddColumn(&schema.Column{Name: "response_body", Type: field.TypeString, Size: 1 << 24, Default: ""}).
		AddIndex("llmrequestevent_purpose", false, []string{"purpose"})
}

func completionsTable() *schema.Table {
	return schema.NewTable(tableCompletions).
		AddPrimary(&schema.Column{Name: "id", Type: field.TypeInt, Increment: true}).
		AddColumn(&schema.Column{Name: "created_at", Type: field.TypeInt64}).
		AddColumn(&schema.Column{Name: "session_id", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "owner", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "score", Type: field.TypeInt}).
		AddColumn(&schema.Column{Name: "completed", Type: field.TypeBool}).
		AddColumn(&schema.Column{Name: "confidence", Type: field.TypeString}).
		AddColumn(&schema.Column{Name: "reasons_json", Type: field.TypeString, Size: 1 << 16}).
		AddColumn(&schema.Column{Name: "answer", Type: field.TypeString, Default: ""}).
		AddIndex("completionevent_session_id", false, []string{"session_id"})
}

// migrate creates or alters the tables to match the definitions above.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, sessionsTable(), llmEventsTable(), completionsTable())
}

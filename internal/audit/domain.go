package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/agrocrm/backoffice/internal/store"
)

// NewEntryID returns a lexically sortable identifier for an audit row.
func NewEntryID() string { return ulid.Make().String() }

// Action is the semantic classification of one audited mutation.
type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionUpdate  Action = "UPDATE"
	ActionDelete  Action = "DELETE"
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
)

// Actions lists every audit action.
func Actions() []Action {
	return []Action{ActionCreate, ActionUpdate, ActionDelete, ActionApprove, ActionReject}
}

// ParseAction normalises s into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Actions() {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("audit: unknown action %q", s)
}

// Entry is one immutable audit log row.
type Entry struct {
	ID                string          `json:"id"`
	Model             string          `json:"model"`
	Action            Action          `json:"action"`
	RecordID          *string         `json:"recordId"`
	Before            json.RawMessage `json:"before"`
	After             json.RawMessage `json:"after"`
	PerformedAt       time.Time       `json:"performedAt"`
	PerformedByUserID *string         `json:"performedByUserId"`
}

// Record converts the entry into an AuditLog row.
func (e Entry) Record() store.Record {
	return store.Record{
		"id":                   e.ID,
		"model":                e.Model,
		"action":               string(e.Action),
		"record_id":            nullableString(e.RecordID),
		"before":               nullableJSON(e.Before),
		"after":                nullableJSON(e.After),
		"performed_at":         e.PerformedAt,
		"performed_by_user_id": nullableString(e.PerformedByUserID),
	}
}

// EntryFromRecord decodes an AuditLog row. JSON columns arrive as raw bytes
// from memory and as decoded values from PostgreSQL.
func EntryFromRecord(r store.Record) (Entry, error) {
	before, err := rawJSON(r["before"])
	if err != nil {
		return Entry{}, fmt.Errorf("audit: decode before: %w", err)
	}
	after, err := rawJSON(r["after"])
	if err != nil {
		return Entry{}, fmt.Errorf("audit: decode after: %w", err)
	}
	e := Entry{
		ID:                r.String("id"),
		Model:             r.String("model"),
		Action:            Action(r.String("action")),
		RecordID:          optionalString(r["record_id"]),
		Before:            before,
		After:             after,
		PerformedByUserID: optionalString(r["performed_by_user_id"]),
	}
	if ts, ok := r["performed_at"].(time.Time); ok {
		e.PerformedAt = ts
	}
	return e, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func rawJSON(v any) (json.RawMessage, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return t, nil
	case []byte:
		return json.RawMessage(t), nil
	case string:
		return json.RawMessage(t), nil
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

func optionalString(v any) *string {
	switch t := v.(type) {
	case string:
		return &t
	case *string:
		if t == nil {
			return nil
		}
		s := *t
		return &s
	}
	return nil
}

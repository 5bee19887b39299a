package entity

import (
	"time"
)

type ActionType string

const (
	ActionCreate ActionType = "Create"
	ActionUpdate ActionType = "Update"
	ActionDelete ActionType = "Delete"
)

const (
	EntityProject = "project"
	EntityTask    = "task"
	EntityComment = "comment"
)

type AuditRecord struct {
	ID         int        `json:"id"`
	UserID     int        `json:"userId"`
	Action     ActionType `json:"action"`
	EntityType string     `json:"entityType"`
	EntityID   int        `json:"entityId"`
	OldValues  *string    `json:"oldValues,omitempty"`
	NewValues  *string    `json:"newValues,omitempty"`
	Changes    *string    `json:"changes,omitempty"`
	ChangedAt  time.Time  `json:"changedAt"`
}

// AuditMessage travels over the audit queue; the worker turns it into an AuditRecord.
type AuditMessage struct {
	UserID     int            `json:"user_id"`
	Action     ActionType     `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   int            `json:"entity_id"`
	OldValues  map[string]any `json:"old_values,omitempty"`
	NewValues  map[string]any `json:"new_values,omitempty"`
	Changes    map[string]any `json:"changes,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

package usecase

import (
	"context"
	"time"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/sirupsen/logrus"
)

// auditor wraps the publisher so services never fail because of the audit queue.
type auditor struct {
	publisher AuditPublisher
	log       *logrus.Logger
	now       func() time.Time
}

func newAuditor(publisher AuditPublisher, log *logrus.Logger) *auditor {
	return &auditor{publisher: publisher, log: log, now: time.Now}
}

func (a *auditor) record(
	ctx context.Context,
	action entity.ActionType,
	userID int,
	entityType string,
	entityID int,
	oldValues, newValues map[string]any,
) {
	if a.publisher == nil {
		return
	}

	msg := &entity.AuditMessage{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValues:  oldValues,
		NewValues:  newValues,
		Timestamp:  a.now(),
	}
	if action == entity.ActionUpdate {
		msg.Changes = diffValues(oldValues, newValues)
	}

	if err := a.publisher.PublishAuditMessage(ctx, msg); err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"entity_type": entityType,
			"entity_id":   entityID,
			"action":      action,
		}).Warn("audit publish failed")
	}
}

// Вычисляем изменения
func diffValues(oldValues, newValues map[string]any) map[string]any {
	changes := make(map[string]any)
	for key, newValue := range newValues {
		if oldValue := oldValues[key]; oldValue != newValue {
			changes[key] = map[string]any{"old": oldValue, "new": newValue}
		}
	}
	for key, oldValue := range oldValues {
		if _, ok := newValues[key]; !ok {
			changes[key] = map[string]any{"old": oldValue, "new": nil}
		}
	}
	return changes
}

func projectValues(p *entity.Project) map[string]any {
	values := map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"owner_id":    p.OwnerID,
	}
	if p.ImagePath != nil {
		values["image_path"] = *p.ImagePath
	}
	return values
}

func taskValues(t *entity.Task) map[string]any {
	return map[string]any{
		"title":       t.Title,
		"description": t.Description,
		"status":      string(t.Status),
		"project_id":  t.ProjectID,
		"assignee_id": t.AssigneeID,
	}
}

func commentValues(c *entity.Comment) map[string]any {
	return map[string]any{
		"content":   c.Content,
		"task_id":   c.TaskID,
		"author_id": c.AuthorID,
	}
}

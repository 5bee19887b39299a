package client

import (
	"context"
	"errors"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/sirupsen/logrus"
)

var errSearchDisabled = errors.New("search index is not configured")

// Noop stands in for any optional collaborator whose settings are empty.
type Noop struct {
	Log  *logrus.Logger
	Name string
}

func (n Noop) skip(op string) {
	n.Log.WithField("collaborator", n.Name).Debugf("%s skipped: not configured", op)
}

func (n Noop) Send(_ context.Context, chatID int64, _ string) error {
	n.skip("notification")
	return nil
}

func (n Noop) PublishAuditMessage(_ context.Context, _ *entity.AuditMessage) error {
	n.skip("audit publish")
	return nil
}

func (n Noop) Put(_ context.Context, _, _ string, _ []byte) (string, error) {
	n.skip("image upload")
	return "", errors.New("image storage is not configured")
}

func (n Noop) Delete(_ context.Context, _ string) error {
	n.skip("image delete")
	return nil
}

func (n Noop) Search(_ context.Context, _ string) ([]entity.ProjectDocument, error) {
	return nil, errSearchDisabled
}

func (n Noop) Upsert(_ context.Context, _ entity.ProjectDocument) error {
	n.skip("index upsert")
	return nil
}

func (n Noop) Remove(_ context.Context, _ int) error {
	n.skip("index remove")
	return nil
}

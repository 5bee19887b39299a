package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/St1cky1/task-tracker/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// errMalformed marks messages that will never parse; they are dropped instead of requeued.
var errMalformed = errors.New("malformed audit message")

// DeliverySource отдает поток сообщений из очереди аудита
type DeliverySource interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

type AuditWorker struct {
	source    DeliverySource
	auditRepo repository.IAuditRepository
	log       *logrus.Logger
}

func NewAuditWorker(source DeliverySource, auditRepo repository.IAuditRepository, log *logrus.Logger) *AuditWorker {
	return &AuditWorker{
		source:    source,
		auditRepo: auditRepo,
		log:       log,
	}
}

// Start consumes until ctx is cancelled or the broker closes the channel.
func (w *AuditWorker) Start(ctx context.Context) error {
	msgs, err := w.source.Consume("audit_worker")
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	w.log.Info("audit worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("audit worker stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("audit delivery channel closed")
			}
			w.processMessage(ctx, msg)
		}
	}
}

func (w *AuditWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	err := w.handle(ctx, msg.Body)
	switch {
	case err == nil:
		msg.Ack(false)
	case errors.Is(err, errMalformed):
		w.log.WithError(err).Warn("dropping audit message")
		msg.Nack(false, false) // Не возвращаем в очередь
	default:
		w.log.WithError(err).Error("audit message not stored, requeueing")
		msg.Nack(false, true) // Возвращаем в очередь для повторной обработки
	}
}

func (w *AuditWorker) handle(ctx context.Context, body []byte) error {
	// 1. Парсим сообщение
	var auditMsg entity.AuditMessage
	if err := json.Unmarshal(body, &auditMsg); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if auditMsg.EntityType == "" || auditMsg.EntityID == 0 {
		return fmt.Errorf("%w: entity is not set", errMalformed)
	}

	// 2. Конвертируем в AuditRecord
	record, err := ToAuditRecord(&auditMsg)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	// 3. Сохраняем в БД
	if err := w.auditRepo.Create(ctx, record); err != nil {
		return err
	}

	w.log.WithFields(logrus.Fields{
		"action":      record.Action,
		"entity_type": record.EntityType,
		"entity_id":   record.EntityID,
	}).Debug("audit record stored")
	return nil
}

// ToAuditRecord serialises the value maps of a message into JSON columns.
func ToAuditRecord(msg *entity.AuditMessage) (*entity.AuditRecord, error) {
	oldValues, err := jsonColumn(msg.OldValues)
	if err != nil {
		return nil, err
	}
	newValues, err := jsonColumn(msg.NewValues)
	if err != nil {
		return nil, err
	}
	changes, err := jsonColumn(msg.Changes)
	if err != nil {
		return nil, err
	}

	return &entity.AuditRecord{
		UserID:     msg.UserID,
		Action:     msg.Action,
		EntityType: msg.EntityType,
		EntityID:   msg.EntityID,
		OldValues:  oldValues,
		NewValues:  newValues,
		Changes:    changes,
		ChangedAt:  msg.Timestamp,
	}, nil
}

func jsonColumn(values map[string]any) (*string, error) {
	if values == nil {
		return nil, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

package main

import (
	"io"
	"strings"
	"testing"

	"github.com/St1cky1/task-tracker/internal/config"
	"github.com/sirupsen/logrus"
)

func TestRunRequiresRabbitMQ(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	err := run(&config.Config{}, log)
	if err == nil || !strings.Contains(err.Error(), "RABBITMQ_URL") {
		t.Errorf("expected missing RABBITMQ_URL error, got %v", err)
	}
}

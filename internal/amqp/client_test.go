package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial AMQP: connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed delivery channel", errors.New("message channel closed"), true},
		{"validation error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRequeueOnFailure(t *testing.T) {
	if !requeueOnFailure(amqp091.Delivery{Redelivered: false}) {
		t.Error("first failure should be requeued")
	}
	if requeueOnFailure(amqp091.Delivery{Redelivered: true}) {
		t.Error("failure on redelivery should be dropped")
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "eixo", queueName: "export_jobs"}

	if client.isCircuitOpen() {
		t.Fatal("circuit breaker should be closed initially")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit breaker should open after max failures")
	}

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Error("circuit should move to half-open after the timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Errorf("state = %d, want StateHalfOpen", client.state)
	}

	client.recordSuccess()
	if atomic.LoadInt64(&client.failureCount) != 0 || atomic.LoadInt32(&client.state) != StateClosed {
		t.Error("success should reset the breaker")
	}
}

func TestClient_PublishExportJob_Guards(t *testing.T) {
	client := &Client{exchangeName: "eixo", queueName: "export_jobs"}
	msg := NewExportJobMessage("user-1", "sheets")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.PublishExportJob(ctx, msg); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: got %v", err)
	}

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()
	err := client.PublishExportJob(context.Background(), msg)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open circuit: got %v", err)
	}

	client.recordSuccess()
	err = client.PublishExportJob(context.Background(), msg)
	if err == nil || !strings.Contains(err.Error(), "channel not open") {
		t.Errorf("no channel: got %v", err)
	}
}

func TestExportJobMessage_JSON(t *testing.T) {
	msg := NewExportJobMessage("user-1", "sheets")
	if msg.JobID == "" || msg.RequestedAt.IsZero() {
		t.Fatalf("message not initialised: %+v", msg)
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if !strings.Contains(string(data), `"user_id":"user-1"`) {
		t.Errorf("unexpected JSON: %s", data)
	}

	parsed, err := ExportJobMessageFromJSON(data)
	if err != nil {
		t.Fatalf("ExportJobMessageFromJSON() error = %v", err)
	}
	if parsed.JobID != msg.JobID || parsed.Format != "sheets" || !parsed.RequestedAt.Equal(msg.RequestedAt) {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}

	if _, err := ExportJobMessageFromJSON([]byte(`{"user_id": 42}`)); err == nil {
		t.Error("expected error for mistyped field")
	}
}

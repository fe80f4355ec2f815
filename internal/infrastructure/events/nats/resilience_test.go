package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestClassifyNATSError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "nil", err: nil, retryable: false, record: false},
		{name: "canceled", err: context.Canceled, retryable: false, record: false},
		{name: "deadline", err: context.DeadlineExceeded, retryable: false, record: false},
		{name: "no servers", err: nats.ErrNoServers, retryable: true, record: true},
		{name: "timeout", err: nats.ErrTimeout, retryable: true, record: true},
		{name: "connection closed", err: nats.ErrConnectionClosed, retryable: true, record: true},
		{name: "disconnected", err: nats.ErrDisconnected, retryable: true, record: true},
		{name: "other", err: errors.New("bad subject"), retryable: false, record: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := classifyNATSError(tt.err)
			if class.Retryable != tt.retryable {
				t.Fatalf("expected retryable=%v, got %v", tt.retryable, class.Retryable)
			}
			if class.RecordFailure != tt.record {
				t.Fatalf("expected record=%v, got %v", tt.record, class.RecordFailure)
			}
		})
	}
}

package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"go.aocore.tech/internal/common/metrics"
)

type stubPublisher struct {
	err  error
	sent []*Message
}

func (s *stubPublisher) Publish(_ context.Context, msg *Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubPublisher) Close() error { return nil }

func TestMessageBuilder(t *testing.T) {
	msg := NewMessageBuilder("aocore.execution.succeeded").
		WithData([]byte(`{"id":"1"}`)).
		WithMessageGroup("endpoint-1").
		WithDeduplicationID("exec-1").
		WithMetadata("correlationId", "trace-1").
		WithMetadata("empty", "").
		Build()

	if msg.Subject != "aocore.execution.succeeded" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if msg.MessageGroup != "endpoint-1" || msg.DeduplicationID != "exec-1" {
		t.Errorf("group/dedup not set: %+v", msg)
	}
	if msg.Metadata["correlationId"] != "trace-1" {
		t.Errorf("metadata not set: %v", msg.Metadata)
	}
	if _, ok := msg.Metadata["empty"]; ok {
		t.Error("empty metadata values should be skipped")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want QueueType
		ok   bool
	}{
		{"", QueueTypeEmbedded, true},
		{"nats", QueueTypeNATS, true},
		{"sqs", QueueTypeSQS, true},
		{"none", QueueTypeNone, true},
		{"kafka", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseType(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestInstrumentCountsOutcomes(t *testing.T) {
	subject := "aocore.execution.test-instrument"
	stub := &stubPublisher{}
	p := Instrument(stub)

	before := testutil.ToFloat64(metrics.QueueMessagesPublished.WithLabelValues(subject))
	if err := p.Publish(context.Background(), &Message{Subject: subject}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := testutil.ToFloat64(metrics.QueueMessagesPublished.WithLabelValues(subject)); got != before+1 {
		t.Errorf("published counter = %v, want %v", got, before+1)
	}

	stub.err = errors.New("broker down")
	errsBefore := testutil.ToFloat64(metrics.QueuePublishErrors.WithLabelValues(subject))
	if err := p.Publish(context.Background(), &Message{Subject: subject}); err == nil {
		t.Fatal("expected error")
	}
	if got := testutil.ToFloat64(metrics.QueuePublishErrors.WithLabelValues(subject)); got != errsBefore+1 {
		t.Errorf("error counter = %v, want %v", got, errsBefore+1)
	}
}

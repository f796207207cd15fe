package sqs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"go.aocore.tech/internal/queue"
)

// MockSQSClient implements a mock SQS client for testing
type MockSQSClient struct {
	sendMessageFunc        func(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	getQueueAttributesFunc func(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)

	sendMessageCalls atomic.Int32

	mu       sync.Mutex
	captured []*sqs.SendMessageInput
}

func NewMockSQSClient() *MockSQSClient {
	return &MockSQSClient{}
}

func (m *MockSQSClient) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.sendMessageCalls.Add(1)
	m.mu.Lock()
	m.captured = append(m.captured, params)
	m.mu.Unlock()
	if m.sendMessageFunc != nil {
		return m.sendMessageFunc(ctx, params, optFns...)
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

func (m *MockSQSClient) GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	if m.getQueueAttributesFunc != nil {
		return m.getQueueAttributesFunc(ctx, params, optFns...)
	}
	return &sqs.GetQueueAttributesOutput{}, nil
}

func (m *MockSQSClient) last() *sqs.SendMessageInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.captured) == 0 {
		return nil
	}
	return m.captured[len(m.captured)-1]
}

func testMessage() *queue.Message {
	return queue.NewMessageBuilder("aocore.execution.succeeded").
		WithData([]byte(`{"executionId":"e1"}`)).
		WithMessageGroup("endpoint-1").
		WithDeduplicationID("e1:success").
		WithMetadata("correlationId", "trace-1").
		Build()
}

func TestPublisherPublishStandardQueue(t *testing.T) {
	mockClient := NewMockSQSClient()
	client := NewClientWithAPI(mockClient, &queue.SQSConfig{
		QueueURL: "https://sqs.us-east-1.amazonaws.com/123456789/executions",
	})

	if err := client.Publisher().Publish(context.Background(), testMessage()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if mockClient.sendMessageCalls.Load() != 1 {
		t.Errorf("Expected 1 send call, got %d", mockClient.sendMessageCalls.Load())
	}

	input := mockClient.last()
	if aws.ToString(input.MessageBody) != `{"executionId":"e1"}` {
		t.Errorf("Message body mismatch: %s", aws.ToString(input.MessageBody))
	}
	if aws.ToString(input.MessageAttributes["Subject"].StringValue) != "aocore.execution.succeeded" {
		t.Errorf("Subject attribute not set correctly")
	}
	if aws.ToString(input.MessageAttributes["correlationId"].StringValue) != "trace-1" {
		t.Errorf("metadata attribute not set correctly")
	}
	if input.MessageGroupId != nil || input.MessageDeduplicationId != nil {
		t.Errorf("standard queues must not receive FIFO fields")
	}
}

func TestPublisherPublishFIFOQueue(t *testing.T) {
	mockClient := NewMockSQSClient()
	client := NewClientWithAPI(mockClient, &queue.SQSConfig{
		QueueURL: "https://sqs.us-east-1.amazonaws.com/123456789/executions.fifo",
	})

	if err := client.Publisher().Publish(context.Background(), testMessage()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	input := mockClient.last()
	if aws.ToString(input.MessageGroupId) != "endpoint-1" {
		t.Errorf("MessageGroupId not set correctly")
	}
	if aws.ToString(input.MessageDeduplicationId) != "e1:success" {
		t.Errorf("MessageDeduplicationId not set correctly")
	}
}

func TestPublisherPublishError(t *testing.T) {
	mockClient := NewMockSQSClient()
	mockClient.sendMessageFunc = func(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
		return nil, errors.New("throttled")
	}
	client := NewClientWithAPI(mockClient, &queue.SQSConfig{QueueURL: "q"})

	if err := client.Publisher().Publish(context.Background(), testMessage()); err == nil {
		t.Fatal("expected error")
	}
}

func TestHealthCheck(t *testing.T) {
	mockClient := NewMockSQSClient()
	mockClient.getQueueAttributesFunc = func(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
		return nil, errors.New("access denied")
	}
	client := NewClientWithAPI(mockClient, &queue.SQSConfig{QueueURL: "q"})

	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check error")
	}
}

func TestNewClientRequiresQueueURL(t *testing.T) {
	if _, err := NewClient(context.Background(), &queue.SQSConfig{}); err == nil {
		t.Fatal("expected error without queue url")
	}
}

// Package sqs provides the AWS SQS event publisher
package sqs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"go.aocore.tech/internal/queue"
)

// SQSClientAPI defines the subset of the SQS client used here (for testing)
type SQSClientAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

// Client provides AWS SQS queue operations
type Client struct {
	sqs    SQSClientAPI
	config *queue.SQSConfig
}

// NewClient creates a new SQS client. A custom endpoint with static
// credentials is used for LocalStack.
func NewClient(ctx context.Context, cfg *queue.SQSConfig) (*Client, error) {
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("sqs queue url is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var sqsOpts []func(*sqs.Options)
	if cfg.Endpoint != "" {
		sqsOpts = append(sqsOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return NewClientWithAPI(sqs.NewFromConfig(awsCfg, sqsOpts...), cfg), nil
}

// NewClientWithAPI wraps an existing SQS API implementation.
func NewClientWithAPI(api SQSClientAPI, cfg *queue.SQSConfig) *Client {
	return &Client{sqs: api, config: cfg}
}

// Publisher returns an SQS publisher for the configured queue
func (c *Client) Publisher() queue.Publisher {
	return &Publisher{
		client:   c.sqs,
		queueURL: c.config.QueueURL,
		fifo:     strings.HasSuffix(c.config.QueueURL, ".fifo"),
	}
}

// QueueURL returns the configured queue URL
func (c *Client) QueueURL() string {
	return c.config.QueueURL
}

// HealthCheck verifies that the SQS queue is accessible
func (c *Client) HealthCheck(ctx context.Context) error {
	input := &sqs.GetQueueAttributesInput{
		QueueUrl: aws.String(c.config.QueueURL),
		AttributeNames: []types.QueueAttributeName{
			types.QueueAttributeNameApproximateNumberOfMessages,
		},
	}

	_, err := c.sqs.GetQueueAttributes(ctx, input)
	return err
}

// Close is a no-op; the AWS client holds no long-lived connections.
func (c *Client) Close() error {
	return nil
}

// Publisher publishes messages to SQS
type Publisher struct {
	client   SQSClientAPI
	queueURL string
	fifo     bool
}

// Publish sends a message. Group and deduplication ids are only sent to
// FIFO queues; standard queues reject them.
func (p *Publisher) Publish(ctx context.Context, msg *queue.Message) error {
	attrs := map[string]types.MessageAttributeValue{
		"Subject": {
			DataType:    aws.String("String"),
			StringValue: aws.String(msg.Subject),
		},
	}
	for k, v := range msg.Metadata {
		attrs[k] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(v),
		}
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(p.queueURL),
		MessageBody:       aws.String(string(msg.Data)),
		MessageAttributes: attrs,
	}
	if p.fifo {
		group := msg.MessageGroup
		if group == "" {
			group = msg.Subject
		}
		input.MessageGroupId = aws.String(group)
		if msg.DeduplicationID != "" {
			input.MessageDeduplicationId = aws.String(msg.DeduplicationID)
		}
	}

	out, err := p.client.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send SQS message: %w", err)
	}

	slog.DebugContext(ctx, "Published SQS message",
		"subject", msg.Subject,
		"messageId", aws.ToString(out.MessageId))
	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return nil
}

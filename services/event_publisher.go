package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// EventPublisher publishes settlement events for downstream consumers
// (notifications, reconciliation).
type EventPublisher interface {
	Publish(ctx context.Context, topicArn string, message []byte) error
}

// SNSPublisher publishes to an AWS SNS topic.
type SNSPublisher struct {
	client *sns.Client
	logger *zap.Logger
}

func NewSNSPublisher(cfg aws.Config, logger *zap.Logger) *SNSPublisher {
	return &SNSPublisher{client: sns.NewFromConfig(cfg), logger: logger}
}

// Publish publishes a raw message to the given SNS topic ARN.
func (p *SNSPublisher) Publish(ctx context.Context, topicArn string, message []byte) error {
	if topicArn == "" {
		return fmt.Errorf("empty topicArn")
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(topicArn),
		Message:  aws.String(string(message)),
	}
	if _, err := p.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("sns publish failed for topic %s: %w", topicArn, err)
	}

	p.logger.Debug("sns message published",
		zap.String("topic_arn", topicArn),
		zap.Int("message_len", len(message)),
	)
	return nil
}

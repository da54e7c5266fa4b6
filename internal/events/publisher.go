// Package events publishes design-submitted events to SQS for downstream
// consumers. Publishing is best-effort: the HTTP path logs failures and
// carries on.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/sony/gobreaker/v2"

	"streetplan/internal/types"
)

// Publisher emits the event for a stored design.
type Publisher interface {
	PublishDesignSubmitted(ctx context.Context, evt types.DesignSubmittedEvent) error
}

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends events to one queue through a circuit breaker. While
// the breaker is open, publishing fails fast with upstream_queue_unavailable.
type SQSPublisher struct {
	client   SQSSender
	queueURL string
	breaker  *gobreaker.CircuitBreaker[*sqs.SendMessageOutput]
	logger   *slog.Logger
}

// NewSQSPublisher creates a publisher for queueURL. The breaker opens after
// more than 5 consecutive failures and probes again after 30 seconds.
func NewSQSPublisher(client SQSSender, queueURL string, logger *slog.Logger) *SQSPublisher {
	cb := gobreaker.NewCircuitBreaker[*sqs.SendMessageOutput](gobreaker.Settings{
		Name:        "sqs-design-events",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &SQSPublisher{
		client:   client,
		queueURL: queueURL,
		breaker:  cb,
		logger:   logger,
	}
}

// PublishDesignSubmitted serializes evt and sends it to the queue. The
// project ID is used as message attribute so consumers can filter.
func (p *SQSPublisher) PublishDesignSubmitted(ctx context.Context, evt types.DesignSubmittedEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: failed to marshal %s: %w", evt.Type, err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(evt.Type),
			},
			"projectId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(evt.ProjectID),
			},
		},
	}

	out, err := p.breaker.Execute(func() (*sqs.SendMessageOutput, error) {
		return p.client.SendMessage(ctx, input)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return types.NewAppError(types.ErrCodeUpstreamQueue, "design event queue unavailable", err)
		}
		return fmt.Errorf("events: failed to send %s to %s: %w", evt.Type, p.queueURL, err)
	}

	p.logger.InfoContext(ctx, "design event published",
		"queue_url", p.queueURL,
		"message_id", aws.ToString(out.MessageId),
		"project_id", evt.ProjectID,
		"design_id", evt.DesignID,
	)
	return nil
}

// NoopPublisher drops every event. Used when no queue is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishDesignSubmitted(context.Context, types.DesignSubmittedEvent) error {
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streetplan/internal/types"
)

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent() types.DesignSubmittedEvent {
	return types.NewDesignSubmittedEvent(&types.Design{
		ID:        "dsg_1",
		ProjectID: "prj_1",
		Sliders:   types.SliderValues{RemovedParkingSpots: 12, AddedGreenUnits: 4},
		Metrics:   types.Metrics{ParkingPressure: 81},
		CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	})
}

func TestSQSPublisher_Publish(t *testing.T) {
	client := &mockSQS{}
	p := NewSQSPublisher(client, "https://sqs.eu-west-1.amazonaws.com/123/design-events", testLogger())

	require.NoError(t, p.PublishDesignSubmitted(context.Background(), testEvent()))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "https://sqs.eu-west-1.amazonaws.com/123/design-events", aws.ToString(in.QueueUrl))
	assert.Equal(t, "design.submitted", aws.ToString(in.MessageAttributes["type"].StringValue))
	assert.Equal(t, "prj_1", aws.ToString(in.MessageAttributes["projectId"].StringValue))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &body))
	assert.Equal(t, "design.submitted", body["type"])
	assert.Equal(t, "prj_1", body["projectId"])
	assert.Equal(t, "dsg_1", body["designId"])
	assert.Equal(t, "2026-03-02T10:00:00Z", body["createdAt"])
	assert.Equal(t, 12.0, body["sliders"].(map[string]any)["removedParkingSpots"])
	assert.Equal(t, 81.0, body["metrics"].(map[string]any)["parkingPressure"])
}

func TestSQSPublisher_SendError(t *testing.T) {
	client := &mockSQS{err: errors.New("access denied")}
	p := NewSQSPublisher(client, "q", testLogger())

	err := p.PublishDesignSubmitted(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	var appErr *types.AppError
	assert.False(t, errors.As(err, &appErr), "plain send failures are not breaker errors")
}

func TestSQSPublisher_BreakerOpens(t *testing.T) {
	client := &mockSQS{err: errors.New("throttled")}
	p := NewSQSPublisher(client, "q", testLogger())
	ctx := context.Background()

	// The breaker trips after more than 5 consecutive failures.
	for i := 0; i < 6; i++ {
		require.Error(t, p.PublishDesignSubmitted(ctx, testEvent()))
	}
	require.Len(t, client.inputs, 6)

	err := p.PublishDesignSubmitted(ctx, testEvent())
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamQueue, appErr.Code)
	assert.Len(t, client.inputs, 6, "open breaker must not call SQS")
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.PublishDesignSubmitted(context.Background(), testEvent()))
}

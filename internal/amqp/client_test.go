package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, 1 * time.Second},
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{64, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{errors.New("dial tcp 127.0.0.1:5672: connect: connection refused"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("write: broken pipe"), true},
		{fmt.Errorf("consume: %w", amqp091.ErrClosed), true},
		{errors.New("Exception (404) NOT_FOUND - no queue"), false},
		{errors.New("invalid input"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, isConnectionError(tt.err), "%v", tt.err)
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "goals", queueName: "goal_events"}

	assert.False(t, client.isCircuitOpen(), "closed initially")

	for i := 0; i < maxFailures-1; i++ {
		client.recordFailure()
	}
	assert.False(t, client.isCircuitOpen(), "below threshold")
	client.recordFailure()
	assert.True(t, client.isCircuitOpen(), "open at threshold")

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	assert.False(t, client.isCircuitOpen(), "half-open after timeout")
	assert.Equal(t, StateHalfOpen, atomic.LoadInt32(&client.state))

	client.recordFailure()
	assert.Equal(t, StateOpen, atomic.LoadInt32(&client.state), "a half-open failure reopens")

	client.recordSuccess()
	assert.Equal(t, StateClosed, atomic.LoadInt32(&client.state))
	assert.Zero(t, atomic.LoadInt64(&client.failureCount))
}

func TestClient_PublishGoalEvent_ShortCircuits(t *testing.T) {
	client := &Client{exchangeName: "goals", queueName: "goal_events"}

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()
	err := client.PublishGoalEvent(context.Background(), "g1", GoalCreated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")

	client.recordSuccess()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, client.PublishGoalEvent(ctx, "g1", GoalCreated))
}

func TestGoalEventMessage_JSON(t *testing.T) {
	msg := NewGoalEventMessage("g1", GoalUpdated)
	assert.NotEmpty(t, msg.ID)
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)

	b, err := msg.ToJSON()
	require.NoError(t, err)
	parsed, err := GoalEventMessageFromJSON(b)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, parsed.ID)
	assert.Equal(t, "g1", parsed.GoalID)
	assert.Equal(t, GoalUpdated, parsed.Kind)
	assert.True(t, parsed.Timestamp.Equal(msg.Timestamp))
}

func TestGoalEventMessage_Invalid(t *testing.T) {
	for _, body := range []string{
		`{"goal_id": 5}`,
		`{"kind": "goal.created"}`,
		`{"goal_id": "g1", "kind": "goal.deleted"}`,
		`not json`,
	} {
		_, err := GoalEventMessageFromJSON([]byte(body))
		assert.Error(t, err, body)
	}
}

type fakeAck struct {
	acked, nacked, requeued int
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked++; return nil }
func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	if requeue {
		f.requeued++
	}
	return nil
}
func (f *fakeAck) Reject(uint64, bool) error { return nil }

func TestHandleDelivery(t *testing.T) {
	good, _ := NewGoalEventMessage("g1", GoalCreated).ToJSON()

	tests := []struct {
		name       string
		body       []byte
		handlerErr error
		want       fakeAck
		called     bool
	}{
		{"success acks", good, nil, fakeAck{acked: 1}, true},
		{"handler error requeues", good, errors.New("sheets down"), fakeAck{nacked: 1, requeued: 1}, true},
		{"bad body is dropped", []byte("{"), nil, fakeAck{nacked: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			called := false
			handleDelivery(context.Background(), amqp091.Delivery{Acknowledger: ack, Body: tt.body},
				func(_ context.Context, msg *GoalEventMessage) error {
					called = true
					assert.Equal(t, "g1", msg.GoalID)
					return tt.handlerErr
				})
			assert.Equal(t, tt.want, *ack)
			assert.Equal(t, tt.called, called)
		})
	}
}

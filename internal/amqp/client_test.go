package amqp

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	applog "gofinances/internal/log"
)

func testClient() *Client {
	return &Client{
		url:          "amqp://invalid:5672/",
		exchangeName: "gofinances",
		queueName:    "transaction.recorded",
		logger:       applog.Discard(),
	}
}

func TestTransactionRecordedMessage_JSON(t *testing.T) {
	msg := NewTransactionRecordedMessage("user-1", "tx-1", "negative", "food", "12.50")
	if msg.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := TransactionRecordedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.UserID != "user-1" || got.ID != "tx-1" || got.Category != "food" || got.Amount != "12.50" {
		t.Errorf("unexpected message %+v", got)
	}
	if !got.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, msg.Timestamp)
	}

	if _, err := TransactionRecordedMessageFromJSON([]byte("{")); err == nil {
		t.Error("expected error for truncated body")
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	c := testClient()

	for i := 0; i < maxFailures-1; i++ {
		c.recordFailure()
		if c.isCircuitOpen() {
			t.Fatalf("circuit open after %d failures", i+1)
		}
	}
	c.recordFailure()
	if !c.isCircuitOpen() {
		t.Fatal("circuit should be open")
	}

	err := c.PublishTransactionRecorded(context.Background(), NewTransactionRecordedMessage("u", "t", "positive", "salary", "1"))
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	c := testClient()
	for i := 0; i < maxFailures; i++ {
		c.recordFailure()
	}
	c.lastFailure.Store(time.Now().Add(-openTimeout - time.Second).UnixNano())

	if c.isCircuitOpen() {
		t.Fatal("circuit should allow a trial request after the timeout")
	}
	if got := atomic.LoadInt32(&c.state); got != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", got)
	}

	// a failed trial reopens immediately
	c.recordFailure()
	if !c.isCircuitOpen() {
		t.Error("circuit should reopen after a failed trial")
	}

	c.recordSuccess()
	if c.isCircuitOpen() {
		t.Error("circuit should close after success")
	}
	if got := atomic.LoadInt64(&c.failureCount); got != 0 {
		t.Errorf("failureCount = %d, want 0", got)
	}
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, maxBackoff},
		{40, maxBackoff},
	}
	for _, tt := range tests {
		if got := exponentialBackoff(tt.attempt); got != tt.want {
			t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{amqp091.ErrClosed, true},
		{errors.New("unexpected EOF"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("connection reset by peer"), true},
		{errors.New("PRECONDITION_FAILED"), false},
	}
	for _, tt := range tests {
		if got := isConnectionError(tt.err); got != tt.want {
			t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestClose_WithoutConnection(t *testing.T) {
	c := testClient()
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

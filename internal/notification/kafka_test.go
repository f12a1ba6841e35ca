package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestKafkaNotifier_Send(t *testing.T) {
	writer := &mockWriter{}
	n := &KafkaNotifier{logger: newTestLogger(), writer: writer, topic: "balance_alerts"}

	err := n.Send(context.Background(), "john.doe@email.com", "Low Balance Alert", "balance is low")
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)
	assert.Equal(t, []byte("john.doe@email.com"), writer.messages[0].Key)

	var event alertEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, "Low Balance Alert", event.Subject)
	assert.Equal(t, "balance is low", event.Body)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestKafkaNotifier_SendFailure(t *testing.T) {
	writer := &mockWriter{err: errors.New("broker unavailable")}
	n := &KafkaNotifier{logger: newTestLogger(), writer: writer, topic: "balance_alerts"}

	err := n.Send(context.Background(), "john.doe@email.com", "subject", "body")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish alert event")
}

func TestKafkaNotifier_Close(t *testing.T) {
	writer := &mockWriter{}
	n := &KafkaNotifier{logger: newTestLogger(), writer: writer, topic: "balance_alerts"}

	require.NoError(t, n.Close())
	assert.True(t, writer.closed)
}

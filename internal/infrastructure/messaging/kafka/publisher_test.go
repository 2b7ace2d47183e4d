package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
)

type capturingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *capturingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *capturingWriter) Close() error { return nil }

func TestPublish_KeysByAppealID(t *testing.T) {
	w := &capturingWriter{}
	p := NewPublisherWithWriter(w, logging.NewNopLogger())

	e := appeal.Event{
		Type:       appeal.EventStatusChanged,
		AppealID:   "appeal-1",
		Reference:  "APP/Q9999/W/24/0000042",
		ActorID:    "officer-7",
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, []byte("appeal-1"), msg.Key)

	var decoded appeal.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, appeal.EventStatusChanged, decoded.Type)

	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("appeal.status_changed"), msg.Headers[0].Value)
}

func TestPublish_AfterCloseFails(t *testing.T) {
	p := NewPublisherWithWriter(&capturingWriter{}, logging.NewNopLogger())
	require.NoError(t, p.Close())

	err := p.Publish(context.Background(), appeal.Event{AppealID: "appeal-1"})
	assert.ErrorIs(t, err, ErrPublisherClosed)
}

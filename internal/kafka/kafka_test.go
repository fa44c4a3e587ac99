package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/indigoair/indigo/internal/events"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{topic: "indigo.events", writer: w, logger: discard}

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.Publish(context.Background(), events.Event{Type: events.BookingCreated, FlightID: "F1", OccurredAt: at}))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("F1"), w.msgs[0].Key)
	assert.Equal(t, "booking_created", string(w.msgs[0].Headers[0].Value))

	var e events.Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &e))
	assert.Equal(t, events.BookingCreated, e.Type)
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("leader not available")}, logger: discard}
	err := p.Publish(context.Background(), events.Event{Type: events.BookingCreated})
	assert.ErrorContains(t, err, "leader not available")
}

func TestConsumer_Consume(t *testing.T) {
	good, _ := json.Marshal(events.Event{Type: events.BookingCancelled, BookingID: "B1"})
	r := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte("{not json")},
		{Offset: 2, Value: good},
	}}
	c := &Consumer{reader: r, logger: discard}

	var handled []string
	err := c.Consume(context.Background(), func(_ context.Context, e events.Event) error {
		handled = append(handled, e.BookingID)
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"B1"}, handled)
	assert.Equal(t, []int64{1, 2}, r.committed)
}

func TestConsumer_HandlerError(t *testing.T) {
	good, _ := json.Marshal(events.Event{Type: events.BookingCreated})
	r := &fakeReader{msgs: []kafka.Message{{Offset: 7, Value: good}}}
	c := &Consumer{reader: r, logger: discard}

	err := c.Consume(context.Background(), func(context.Context, events.Event) error {
		return errors.New("smtp down")
	})
	assert.ErrorContains(t, err, "smtp down")
	assert.Empty(t, r.committed)
}

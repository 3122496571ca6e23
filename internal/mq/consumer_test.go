package mq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAck struct {
	mu    sync.Mutex
	acks  []uint64
	nacks []uint64
}

func (f *fakeAck) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, tag)
	return nil
}

func (f *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacks = append(f.nacks, tag)
	return nil
}

func (f *fakeAck) Reject(tag uint64, requeue bool) error { return nil }

func TestConsumer_DrainAcksAndNacks(t *testing.T) {
	ack := &fakeAck{}
	c := NewConsumer("amqp://unused", "q", func(ctx context.Context, body []byte) error {
		if string(body) == "bad" {
			return errors.New("cannot handle")
		}
		return nil
	}, logging.Nop{})

	msgs := make(chan amqp.Delivery, 3)
	msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("ok")}
	msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("bad")}
	msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: []byte("ok")}
	close(msgs)

	err := c.drain(context.Background(), msgs)
	assert.ErrorIs(t, err, errDeliveriesClosed)
	assert.Equal(t, []uint64{1, 3}, ack.acks)
	assert.Equal(t, []uint64{2}, ack.nacks)
}

func TestConsumer_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var got []string
	c := NewConsumer("amqp://unused", "q", func(ctx context.Context, body []byte) error {
		mu.Lock()
		got = append(got, string(body))
		mu.Unlock()
		cancel()
		return nil
	}, logging.Nop{})

	ack := &fakeAck{}
	c.subscribe = func(ctx context.Context) (<-chan amqp.Delivery, func(), error) {
		msgs := make(chan amqp.Delivery, 1)
		msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: []byte("hello")}
		return msgs, func() {}, nil
	}

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []string{"hello"}, got)
}

func TestConsumer_RunRetriesSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	c := NewConsumer("amqp://unused", "q", func(context.Context, []byte) error { return nil }, logging.Nop{})
	c.subscribe = func(ctx context.Context) (<-chan amqp.Delivery, func(), error) {
		calls++
		cancel()
		return nil, nil, errors.New("broker down")
	}

	require.NoError(t, c.Run(ctx))
	assert.Equal(t, 1, calls)
}

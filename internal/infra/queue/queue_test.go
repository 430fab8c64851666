package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Name() string { return "mock" }

func (m *MockNotifier) NotifyNewLead(ctx context.Context, event LeadCreatedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type fakeAcknowledger struct {
	acked   int
	nacked  int
	requeue bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error { f.acked++; return nil }
func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	f.requeue = requeue
	return nil
}
func (f *fakeAcknowledger) Reject(uint64, bool) error { return nil }

type fakePublisher struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

type fakeConsumer struct {
	ch chan amqp.Delivery
}

func (f *fakeConsumer) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return f.ch, nil
}

func testEvent() LeadCreatedEvent {
	name := "Ann"
	lead := &entity.Lead{
		ID:        7,
		Source:    entity.SourceInstagram,
		Name:      &name,
		Status:    entity.StatusNew,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	return NewLeadCreatedEvent(lead)
}

func TestNewLeadCreatedEvent(t *testing.T) {
	event := testEvent()

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, int64(7), event.LeadID)
	assert.Equal(t, "instagram", event.Source)
	assert.Equal(t, "Ann", event.Name)
	assert.Empty(t, event.Email)
}

func TestProducer_PublishLeadCreated(t *testing.T) {
	pub := &fakePublisher{}
	p := &RabbitMQProducer{Ch: pub}
	event := testEvent()

	require.NoError(t, p.PublishLeadCreated(context.Background(), event))

	assert.Equal(t, ExchangeName, pub.exchange)
	assert.Equal(t, RoutingKey, pub.key)
	assert.Equal(t, event.EventID, pub.msg.MessageId)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)

	var got LeadCreatedEvent
	require.NoError(t, json.Unmarshal(pub.msg.Body, &got))
	assert.Equal(t, event.LeadID, got.LeadID)
	assert.Equal(t, event.Name, got.Name)
}

func TestProducer_PublishError(t *testing.T) {
	p := &RabbitMQProducer{Ch: &fakePublisher{err: errors.New("channel closed")}}

	err := p.PublishLeadCreated(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish lead 7")
}

func TestWorker_HandleSuccess(t *testing.T) {
	n1, n2 := new(MockNotifier), new(MockNotifier)
	n1.On("NotifyNewLead", mock.Anything, mock.Anything).Return(nil)
	n2.On("NotifyNewLead", mock.Anything, mock.Anything).Return(nil)
	w := &Worker{Notifiers: []LeadNotifier{n1, n2}}

	body, _ := json.Marshal(testEvent())
	ack := &fakeAcknowledger{}
	w.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, 0, ack.nacked)
	n1.AssertExpectations(t)
	n2.AssertExpectations(t)
}

func TestWorker_HandleNotifierFailure(t *testing.T) {
	failing, ok := new(MockNotifier), new(MockNotifier)
	failing.On("NotifyNewLead", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	ok.On("NotifyNewLead", mock.Anything, mock.Anything).Return(nil)
	var failed []string
	w := &Worker{
		Notifiers:       []LeadNotifier{failing, ok},
		OnNotifierError: func(name string) { failed = append(failed, name) },
	}

	body, _ := json.Marshal(testEvent())
	ack := &fakeAcknowledger{}
	w.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

	assert.Equal(t, 0, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
	assert.Equal(t, []string{"mock"}, failed)
	ok.AssertExpectations(t)
}

func TestWorker_HandleMalformed(t *testing.T) {
	n := new(MockNotifier)
	w := &Worker{Notifiers: []LeadNotifier{n}}

	ack := &fakeAcknowledger{}
	w.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("not json")})

	assert.Equal(t, 1, ack.nacked)
	n.AssertNotCalled(t, "NotifyNewLead", mock.Anything, mock.Anything)
}

func TestWorker_StartStopsOnContextCancel(t *testing.T) {
	n := new(MockNotifier)
	n.On("NotifyNewLead", mock.Anything, mock.Anything).Return(nil)
	deliveries := make(chan amqp.Delivery, 1)
	w := &Worker{Channel: &fakeConsumer{ch: deliveries}, Notifiers: []LeadNotifier{n}}

	body, _ := json.Marshal(testEvent())
	ack := &fakeAcknowledger{}
	deliveries <- amqp.Delivery{Acknowledger: ack, Body: body}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool { return len(n.Calls) == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorker_StartChannelClosed(t *testing.T) {
	deliveries := make(chan amqp.Delivery)
	close(deliveries)
	w := &Worker{Channel: &fakeConsumer{ch: deliveries}}

	err := w.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery channel closed")
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"catalog/internal/models"

	"github.com/shopspring/decimal"
	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return m.Called(name, kind, durable).Error(0)
}

func (m *mockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, msg).Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func TestNewClientDeclaresTopicExchange(t *testing.T) {
	ch := new(mockChannel)
	ch.On("ExchangeDeclare", "catalog", "topic", true).Return(nil).Once()

	client, err := newClient(ch, "catalog", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NotNil(t, client)
	ch.AssertExpectations(t)

	ch = new(mockChannel)
	ch.On("ExchangeDeclare", "catalog", "topic", true).Return(errors.New("access refused")).Once()
	_, err = newClient(ch, "catalog", zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "access refused")
}

func TestPublishProductEvent(t *testing.T) {
	ch := new(mockChannel)
	ch.On("ExchangeDeclare", "catalog", "topic", true).Return(nil)

	var published amqp.Publishing
	ch.On("Publish", "catalog", models.EventProductCreated, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).(amqp.Publishing) }).
		Return(nil).Once()

	client, err := newClient(ch, "catalog", zaptest.NewLogger(t))
	require.NoError(t, err)

	event := models.ProductEvent{
		Type:      models.EventProductCreated,
		ProductID: 3,
		Product:   &models.Product{ProductID: 3, Name: "Widget", Price: decimal.RequireFromString("9.99")},
	}
	require.NoError(t, client.PublishProductEvent(context.Background(), event))
	ch.AssertExpectations(t)

	assert.Equal(t, "application/json", published.ContentType)
	assert.Equal(t, amqp.Persistent, published.DeliveryMode)
	assert.NotEmpty(t, published.MessageId)

	var decoded models.ProductEvent
	require.NoError(t, json.Unmarshal(published.Body, &decoded))
	assert.Equal(t, 3, decoded.ProductID)
	assert.Equal(t, "Widget", decoded.Product.Name)
	assert.True(t, decoded.Product.Price.Equal(decimal.RequireFromString("9.99")))
}

func TestPublishCanceledContext(t *testing.T) {
	ch := new(mockChannel)
	ch.On("ExchangeDeclare", "catalog", "topic", true).Return(nil)
	client, err := newClient(ch, "catalog", zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = client.Publish(ctx, models.EventProductDeleted, []byte(`{}`))
	assert.ErrorIs(t, err, context.Canceled)
	ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestClose(t *testing.T) {
	ch := new(mockChannel)
	ch.On("ExchangeDeclare", "catalog", "topic", true).Return(nil)
	ch.On("Close").Return(errors.New("channel already closed")).Once()
	client, err := newClient(ch, "catalog", zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.ErrorContains(t, client.Close(), "channel already closed")
}

package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/fasttrack-cli/internal/domain"
)

type mockConn struct {
	mock.Mock
}

func (m *mockConn) Publish(subject string, data []byte) error {
	return m.Called(subject, data).Error(0)
}

func (m *mockConn) Status() nats.Status {
	return m.Called().Get(0).(nats.Status)
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestPermissionFollowsConnectionStatus(t *testing.T) {
	t.Parallel()

	c := &mockConn{}
	c.On("Status").Return(nats.CONNECTED).Once()
	c.On("Status").Return(nats.RECONNECTING).Once()
	publisher := NewPublisher(c, "", nil)

	granted, err := publisher.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = publisher.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.False(t, granted)
	c.AssertExpectations(t)
}

func TestSendPublishesJSON(t *testing.T) {
	t.Parallel()

	sentAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	c := &mockConn{}
	c.On("Publish", "fasts.alerts", mock.Anything).Run(func(args mock.Arguments) {
		var message Message
		require.NoError(t, json.Unmarshal(args.Get(1).([]byte), &message))
		assert.Equal(t, "fast-completed", message.Tag)
		assert.True(t, message.RequireInteraction)
		assert.Equal(t, sentAt, message.SentAt)
	}).Return(nil).Once()

	publisher := NewPublisher(c, "fasts.alerts", fixedClock(sentAt))
	delivered, err := publisher.Send(context.Background(), domain.FastCompletedNotification(16.2, 4))

	require.NoError(t, err)
	assert.True(t, delivered)
	c.AssertExpectations(t)
}

func TestSendWrapsPublishErrors(t *testing.T) {
	t.Parallel()

	c := &mockConn{}
	c.On("Publish", DefaultSubject, mock.Anything).Return(nats.ErrConnectionClosed).Once()

	delivered, err := NewPublisher(c, "", nil).Send(context.Background(), domain.MilestoneNotification(4))

	require.ErrorIs(t, err, nats.ErrConnectionClosed)
	assert.False(t, delivered)
}

func TestSendWithoutConnection(t *testing.T) {
	t.Parallel()

	publisher := NewPublisher(nil, "", nil)

	granted, err := publisher.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.False(t, granted)

	_, err = publisher.Send(context.Background(), domain.MilestoneNotification(4))
	assert.True(t, errors.Is(err, ErrNotConnected))
}

func TestLazyPublisherDialsOnce(t *testing.T) {
	t.Parallel()

	c := &mockConn{}
	c.On("Status").Return(nats.CONNECTED).Twice()
	dials := 0
	publisher := NewPublisher(nil, "", nil)
	publisher.dial = func() (conn, error) {
		dials++
		return c, nil
	}

	for i := 0; i < 2; i++ {
		granted, err := publisher.RequestPermission(context.Background())
		require.NoError(t, err)
		assert.True(t, granted)
	}
	assert.Equal(t, 1, dials)

	publisher.Close()
	c.AssertExpectations(t)
}

func TestLazyPublisherReportsDialFailure(t *testing.T) {
	t.Parallel()

	publisher := NewPublisher(nil, "", nil)
	publisher.dial = func() (conn, error) { return nil, nats.ErrNoServers }

	granted, err := publisher.RequestPermission(context.Background())
	require.ErrorIs(t, err, nats.ErrNoServers)
	assert.False(t, granted)
}

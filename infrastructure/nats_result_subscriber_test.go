package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lotto/domain/entities"
	"lotto/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSubscriber struct {
	mock.Mock
	handler func([]byte) error
}

func (m *mockSubscriber) Subscribe(subject string, handler func([]byte) error) error {
	m.handler = handler
	return m.Called(subject).Error(0)
}

type mockResultHandler struct {
	mock.Mock
}

func (m *mockResultHandler) HandleResult(ctx context.Context, result *entities.DrawResult) error {
	return m.Called(ctx, result).Error(0)
}

func sampleResult() entities.DrawResult {
	return entities.DrawResult{
		GameType:   entities.GameTypeLao,
		GameNumber: "20261101",
		Results: map[entities.PlayType]entities.ResultSet{
			entities.PlayTypeTwoUp: {Straight: "56"},
		},
		PublishedAt: time.Date(2026, time.November, 1, 13, 0, 0, 0, time.UTC),
	}
}

func TestDecodeDrawResult(t *testing.T) {
	t.Parallel()

	result := sampleResult()

	envelope, err := NewEventEnvelope(events.ResultPublishedEvent{Result: result})
	require.NoError(t, err)
	enveloped, err := json.Marshal(envelope)
	require.NoError(t, err)

	bare, err := json.Marshal(result)
	require.NoError(t, err)

	wrongType, err := NewEventEnvelope(events.DrawSettledEvent{GameType: entities.GameTypeLao, GameNumber: "20261101"})
	require.NoError(t, err)
	wrongTypeData, err := json.Marshal(wrongType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{name: "envelope", data: enveloped},
		{name: "bare result", data: bare},
		{name: "other event type", data: wrongTypeData, wantErr: true},
		{name: "missing identity", data: []byte(`{"results":{}}`), wantErr: true},
		{name: "not json", data: []byte("nope"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeDrawResult(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, entities.GameTypeLao, got.GameType)
			assert.Equal(t, "20261101", got.GameNumber)
			assert.Equal(t, "56", got.Results[entities.PlayTypeTwoUp].Straight)
		})
	}
}

func TestNATSResultSubscriber_HandleMessage(t *testing.T) {
	t.Parallel()

	client := &mockSubscriber{}
	client.On("Subscribe", SubjectResultPublished).Return(nil)
	handler := &mockResultHandler{}

	sub := NewNATSResultSubscriber(client, handler, time.Second)
	require.NoError(t, sub.Start())
	require.NotNil(t, client.handler)

	result := sampleResult()
	data, err := json.Marshal(result)
	require.NoError(t, err)

	transient := &entities.TransientStoreError{Op: "settle", Err: errors.New("connection reset")}
	handler.On("HandleResult", mock.Anything, mock.MatchedBy(func(r *entities.DrawResult) bool {
		return r.GameNumber == "20261101"
	})).Return(transient).Once()
	handler.On("HandleResult", mock.Anything, mock.Anything).Return(nil).Once()

	// handler errors propagate so the message is redelivered
	assert.ErrorIs(t, client.handler(data), transient)
	assert.NoError(t, client.handler(data))

	// undecodable messages are acknowledged without reaching the handler
	assert.NoError(t, client.handler([]byte("garbage")))

	handler.AssertNumberOfCalls(t, "HandleResult", 2)
	client.AssertExpectations(t)
}

func TestNATSResultSubscriber_StartError(t *testing.T) {
	t.Parallel()

	client := &mockSubscriber{}
	client.On("Subscribe", SubjectResultPublished).Return(errors.New("not connected"))

	sub := NewNATSResultSubscriber(client, &mockResultHandler{}, 0)
	assert.Error(t, sub.Start())
}

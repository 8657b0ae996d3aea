package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lotto/domain/entities"
	"lotto/domain/events"

	log "github.com/sirupsen/logrus"
)

// resultHandler stores a draw result and settles its draw
type resultHandler interface {
	HandleResult(ctx context.Context, result *entities.DrawResult) error
}

// subscriber is the part of NATSClient the result subscriber needs
type subscriber interface {
	Subscribe(subject string, handler func([]byte) error) error
}

// NATSResultSubscriber feeds draw results received on the results subject
// into the settlement pipeline
type NATSResultSubscriber struct {
	client         subscriber
	handler        resultHandler
	processTimeout time.Duration
}

// NewNATSResultSubscriber creates a new result subscriber
func NewNATSResultSubscriber(client subscriber, handler resultHandler, processTimeout time.Duration) *NATSResultSubscriber {
	if processTimeout <= 0 {
		processTimeout = 30 * time.Second
	}
	return &NATSResultSubscriber{client: client, handler: handler, processTimeout: processTimeout}
}

// Start subscribes to the results subject
func (s *NATSResultSubscriber) Start() error {
	if err := s.client.Subscribe(SubjectResultPublished, s.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to draw results: %w", err)
	}
	return nil
}

func (s *NATSResultSubscriber) handleMessage(data []byte) error {
	result, err := DecodeDrawResult(data)
	if err != nil {
		// redelivering a malformed message cannot help
		log.WithError(err).Error("Dropping undecodable draw result message")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.processTimeout)
	defer cancel()

	log.WithField("draw", entities.DrawKey(result.GameType, result.GameNumber)).Info("Received draw result")
	return s.handler.HandleResult(ctx, result)
}

// DecodeDrawResult accepts either an event envelope carrying a
// ResultPublishedEvent or a bare draw result document
func DecodeDrawResult(data []byte) (*entities.DrawResult, error) {
	var envelope EventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	if envelope.EventType != "" {
		if envelope.EventType != string(events.EventTypeResultPublished) {
			return nil, fmt.Errorf("unexpected event type %q on results subject", envelope.EventType)
		}
		var event events.ResultPublishedEvent
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result event: %w", err)
		}
		return &event.Result, nil
	}

	var result entities.DrawResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draw result: %w", err)
	}
	if result.GameType == "" || result.GameNumber == "" {
		return nil, fmt.Errorf("draw result is missing game type or game number")
	}
	return &result, nil
}

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/interfaces"
)

// subscription pairs a handler with the id handed back on Subscribe.
type subscription struct {
	id      string
	handler interfaces.EventHandler
}

// Service is the in-process pub/sub bus connecting ingestion, the
// embedding coordinator and the websocket stream. Handlers never block
// the publisher on the async path; a failing handler is logged only.
type Service struct {
	mu     sync.RWMutex
	topics map[interfaces.EventType][]subscription
	closed bool
	logger arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		topics: make(map[interfaces.EventType][]subscription),
		logger: logger,
	}
}

// Subscribe registers a handler and returns its subscription id
func (s *Service) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) (string, error) {
	if handler == nil {
		return "", errors.New("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", errors.New("event service is closed")
	}

	id := uuid.New().String()
	s.topics[eventType] = append(s.topics[eventType], subscription{id: id, handler: handler})

	s.logger.Debug().
		Str("event_type", string(eventType)).
		Str("subscription_id", id).
		Msg("Event handler subscribed")

	return id, nil
}

// Unsubscribe removes a subscription; unknown ids are ignored
func (s *Service) Unsubscribe(eventType interfaces.EventType, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.topics[eventType]
	for i, sub := range subs {
		if sub.id == id {
			s.topics[eventType] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers asynchronously
func (s *Service) Publish(ctx context.Context, event interfaces.Event) error {
	subs := s.snapshot(event.Type)
	if len(subs) == 0 {
		return nil
	}

	s.logger.Debug().
		Str("event_type", string(event.Type)).
		Int("subscriber_count", len(subs)).
		Msg("Publishing event")

	for _, sub := range subs {
		go func(sub subscription) {
			if err := sub.handler(ctx, event); err != nil {
				s.logger.Error().
					Err(err).
					Str("event_type", string(event.Type)).
					Str("subscription_id", sub.id).
					Msg("Event handler failed")
			}
		}(sub)
	}

	return nil
}

// PublishSync sends an event and waits for every handler to complete
func (s *Service) PublishSync(ctx context.Context, event interfaces.Event) error {
	subs := s.snapshot(event.Type)
	if len(subs) == 0 {
		return nil
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)

	for _, sub := range subs {
		wg.Add(1)
		go func(sub subscription) {
			defer wg.Done()
			if err := sub.handler(ctx, event); err != nil {
				s.logger.Error().
					Err(err).
					Str("event_type", string(event.Type)).
					Str("subscription_id", sub.id).
					Msg("Event handler failed")
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(sub)
	}

	wg.Wait()

	if failed > 0 {
		return fmt.Errorf("event handlers failed: %d errors", failed)
	}
	return nil
}

// Close drops all subscriptions
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.topics = make(map[interfaces.EventType][]subscription)
	s.logger.Debug().Msg("Event service closed")

	return nil
}

// snapshot copies the subscription list so handlers run outside the lock.
func (s *Service) snapshot(eventType interfaces.EventType) []subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := s.topics[eventType]
	out := make([]subscription, len(subs))
	copy(out, subs)
	return out
}

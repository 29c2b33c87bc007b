package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"finnduel-overlay-backend/metrics"
	"finnduel-overlay-backend/models"
	"finnduel-overlay-backend/suspension"
	"finnduel-overlay-backend/utils"
)

var (
	// ErrUnknownEvent is returned for playback events with an unrecognised type
	ErrUnknownEvent = errors.New("unknown playback event type")
	// ErrUnknownCategory is returned when selecting a category that is not configured
	ErrUnknownCategory = errors.New("unknown category")
)

const subscriptionBuffer = 16

// StateService owns the overlay state. Each accepted event replaces the current
// snapshot with a new one; snapshots are never modified after publication.
type StateService struct {
	schedule   *suspension.Schedule
	categories map[string]bool
	clock      clockwork.Clock

	mutex       sync.Mutex
	current     models.Snapshot
	subscribers map[uuid.UUID]*Subscription
}

// NewStateService creates a state service positioned at 00:00, paused, on the first category
func NewStateService(schedule *suspension.Schedule, categoryIDs []string, clock clockwork.Clock) *StateService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	categories := make(map[string]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		categories[id] = true
	}

	initial := models.Snapshot{
		PositionSeconds: 0,
		Clock:           utils.FormatClock(0),
		Status:          schedule.Evaluate(0),
		UpdatedAt:       clock.Now(),
	}
	if len(categoryIDs) > 0 {
		initial.Category = categoryIDs[0]
	}
	metrics.MarketsSuspended.Set(boolGauge(initial.Status.Suspended()))

	return &StateService{
		schedule:    schedule,
		categories:  categories,
		clock:       clock,
		current:     initial,
		subscribers: make(map[uuid.UUID]*Subscription),
	}
}

// GetState returns the latest snapshot
func (s *StateService) GetState() models.Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.current
}

// Apply folds a playback event into a new snapshot and publishes it
func (s *StateService) Apply(event models.PlaybackEvent) (models.Snapshot, error) {
	if !event.Type.Valid() {
		return models.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownEvent, event.Type)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	prev := s.current
	next := prev
	next.Sequence = prev.Sequence + 1
	next.PositionSeconds = event.PositionSeconds
	next.Clock = utils.FormatClock(event.PositionSeconds)
	next.UpdatedAt = s.clock.Now()

	switch event.Type {
	case models.EventPlay:
		next.Playing = true
	case models.EventPause, models.EventEnded:
		next.Playing = false
	}

	next.Status = s.schedule.Evaluate(event.PositionSeconds)
	if next.Status != prev.Status {
		log.Info().
			Str("from", string(prev.Status)).
			Str("to", string(next.Status)).
			Float64("position", event.PositionSeconds).
			Msg("market status changed")
		metrics.StatusTransitions.WithLabelValues(string(next.Status)).Inc()
		metrics.MarketsSuspended.Set(boolGauge(next.Status.Suspended()))
	}
	metrics.PlaybackEvents.WithLabelValues(string(event.Type)).Inc()

	s.publishLocked(next)
	return next, nil
}

// SelectCategory switches the active market tab
func (s *StateService) SelectCategory(id string) (models.Snapshot, error) {
	if !s.categories[id] {
		return models.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownCategory, id)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	next := s.current
	next.Sequence++
	next.Category = id
	next.UpdatedAt = s.clock.Now()

	log.Debug().Str("category", id).Uint64("sequence", next.Sequence).Msg("category selected")

	s.publishLocked(next)
	return next, nil
}

// Subscribe registers a new subscriber. The current snapshot is delivered
// first; the caller must Close the subscription when done.
func (s *StateService) Subscribe() *Subscription {
	ch := make(chan models.Snapshot, subscriptionBuffer)
	sub := &Subscription{
		ID:      uuid.New(),
		C:       ch,
		ch:      ch,
		service: s,
	}

	s.mutex.Lock()
	s.subscribers[sub.ID] = sub
	ch <- s.current
	count := len(s.subscribers)
	s.mutex.Unlock()

	metrics.Subscribers.Inc()
	log.Debug().Str("subscription_id", sub.ID.String()).Int("subscribers", count).Msg("subscribed")
	return sub
}

// SubscriberCount returns the number of open subscriptions
func (s *StateService) SubscriberCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.subscribers)
}

// publishLocked stores next as the current snapshot and hands it to every
// subscriber. Must be called with s.mutex held so deliveries stay in sequence order.
func (s *StateService) publishLocked(next models.Snapshot) {
	s.current = next
	for _, sub := range s.subscribers {
		sub.deliver(next)
	}
}

func (s *StateService) unsubscribe(sub *Subscription) {
	s.mutex.Lock()
	if _, ok := s.subscribers[sub.ID]; ok {
		delete(s.subscribers, sub.ID)
		close(sub.ch)
	}
	s.mutex.Unlock()

	metrics.Subscribers.Dec()
	log.Debug().Str("subscription_id", sub.ID.String()).Msg("unsubscribed")
}

// Subscription is a handle on a stream of snapshots
type Subscription struct {
	ID uuid.UUID
	// C receives snapshots in sequence order and is closed by Close
	C <-chan models.Snapshot

	ch        chan models.Snapshot
	service   *StateService
	closeOnce sync.Once
}

// Close removes the subscription. It is safe to call more than once.
func (sub *Subscription) Close() {
	sub.closeOnce.Do(func() {
		sub.service.unsubscribe(sub)
	})
}

// deliver never blocks: when the buffer is full the oldest pending snapshot is
// discarded, since a newer snapshot always supersedes it.
func (sub *Subscription) deliver(snap models.Snapshot) {
	select {
	case sub.ch <- snap:
		return
	default:
	}

	select {
	case <-sub.ch:
		metrics.DroppedSnapshots.Inc()
	default:
	}

	select {
	case sub.ch <- snap:
	default:
		metrics.DroppedSnapshots.Inc()
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types.
const (
	// Progress events
	EventXPChanged EventType = "progress.xp_changed"
	EventLevelUp   EventType = "progress.level_up"

	// Study events
	EventItemCompleted   EventType = "study.item_completed"
	EventItemUncompleted EventType = "study.item_uncompleted"
	EventStudyTaskPurged EventType = "study.study_task_deleted"

	// Account events
	EventUserPurged EventType = "account.purged"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// XPChangedEvent is emitted whenever a completion transition moves a user's XP.
type XPChangedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Delta    int    `json:"delta"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"` // collection the item belongs to
	ItemID   string `json:"item_id,omitempty"`
}

// Payload implements Event interface.
func (e XPChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"delta":     e.Delta,
		"new_total": e.NewTotal,
		"source":    e.Source,
		"item_id":   e.ItemID,
	}
}

// NewXPChangedEvent creates a new XPChangedEvent.
func NewXPChangedEvent(userID string, delta, newTotal int, source, itemID string) XPChangedEvent {
	return XPChangedEvent{
		BaseEvent: NewBaseEvent(EventXPChanged, userID),
		UserID:    userID,
		Delta:     delta,
		NewTotal:  newTotal,
		Source:    source,
		ItemID:    itemID,
	}
}

// LevelUpEvent is emitted when a user crosses a level boundary upward.
// It is informational only; consumers must not feed it back into XP.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
	XP       int    `json:"xp"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"xp":        e.XP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel, xp int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		XP:        xp,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Study Events
// ═══════════════════════════════════════════════════════════════════════════

// ItemCompletionEvent is emitted when a tracked item enters or leaves the
// completed state.
type ItemCompletionEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	Collection string `json:"collection"`
	ItemID     string `json:"item_id"`
	XPDelta    int    `json:"xp_delta"`
}

// Payload implements Event interface.
func (e ItemCompletionEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"collection": e.Collection,
		"item_id":    e.ItemID,
		"xp_delta":   e.XPDelta,
	}
}

// NewItemCompletionEvent creates an ItemCompletionEvent. A positive delta
// yields EventItemCompleted, a negative one EventItemUncompleted.
func NewItemCompletionEvent(userID, collection, itemID string, xpDelta int) ItemCompletionEvent {
	eventType := EventItemCompleted
	if xpDelta < 0 {
		eventType = EventItemUncompleted
	}
	return ItemCompletionEvent{
		BaseEvent:  NewBaseEvent(eventType, userID),
		UserID:     userID,
		Collection: collection,
		ItemID:     itemID,
		XPDelta:    xpDelta,
	}
}

// StudyTaskDeletedEvent is emitted after a study task and its subtasks are removed.
type StudyTaskDeletedEvent struct {
	BaseEvent
	UserID          string `json:"user_id"`
	StudyTaskID     string `json:"study_task_id"`
	SubtasksRemoved int    `json:"subtasks_removed"`
}

// Payload implements Event interface.
func (e StudyTaskDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":          e.UserID,
		"study_task_id":    e.StudyTaskID,
		"subtasks_removed": e.SubtasksRemoved,
	}
}

// NewStudyTaskDeletedEvent creates a new StudyTaskDeletedEvent.
func NewStudyTaskDeletedEvent(userID, studyTaskID string, subtasksRemoved int) StudyTaskDeletedEvent {
	return StudyTaskDeletedEvent{
		BaseEvent:       NewBaseEvent(EventStudyTaskPurged, userID),
		UserID:          userID,
		StudyTaskID:     studyTaskID,
		SubtasksRemoved: subtasksRemoved,
	}
}

// UserPurgedEvent is emitted after every key of a user has been removed.
type UserPurgedEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	KeysRemoved int    `json:"keys_removed"`
}

// Payload implements Event interface.
func (e UserPurgedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"keys_removed": e.KeysRemoved,
	}
}

// NewUserPurgedEvent creates a new UserPurgedEvent.
func NewUserPurgedEvent(userID string, keysRemoved int) UserPurgedEvent {
	return UserPurgedEvent{
		BaseEvent:   NewBaseEvent(EventUserPurged, userID),
		UserID:      userID,
		KeysRemoved: keysRemoved,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/progress"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/userstore"
	"github.com/Yaasiin-15/StudyDash-sub001/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// Every command mutates one or more collections through the user store and,
// when a completion flag flips, moves the user's XP through the leveling rule.
// ══════════════════════════════════════════════════════════════════════════════

// Handler executes commands for any user.
type Handler struct {
	store          *userstore.Store
	rule           progress.Rule
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
	newID          func() string
}

// HandlerConfig contains configuration for the handler.
type HandlerConfig struct {
	// Rule is the XP award rule. Zero value means progress.DefaultRule.
	Rule progress.Rule

	// NewID generates ids for created records. Defaults to uuid.NewString.
	NewID func() string

	Logger *slog.Logger
}

// NewHandler creates a new Handler. eventPublisher may be nil.
func NewHandler(store *userstore.Store, eventPublisher shared.EventPublisher, config HandlerConfig) *Handler {
	if config.Rule.CompletionXP <= 0 {
		config.Rule = progress.DefaultRule()
	}
	if config.NewID == nil {
		config.NewID = uuid.NewString
	}
	return &Handler{
		store:          store,
		rule:           config.Rule,
		eventPublisher: eventPublisher,
		logger:         logger.OrDiscard(config.Logger).With(logger.Component("command")),
		newID:          config.NewID,
	}
}

// CompletionResult describes the effect of a status change on one item.
type CompletionResult struct {
	ItemID     string
	Collection userstore.Collection
	Previous   progress.Status
	Current    progress.Status

	// XPDelta is the change actually applied to the profile after clamping.
	XPDelta  int
	XP       int
	Level    int
	LevelUps []shared.LevelUpEvent

	// Events contains domain events generated.
	Events []shared.Event
}

// Changed reports whether the transition moved XP.
func (r *CompletionResult) Changed() bool {
	return r.XPDelta != 0
}

// applyTransition routes a status change through the leveling rule, persists
// the profile and publishes the resulting events. The item itself must
// already be saved; on error the caller restores it.
func (h *Handler) applyTransition(
	ctx context.Context,
	userID shared.UserID,
	c userstore.Collection,
	itemID string,
	previous, current progress.Status,
) (*CompletionResult, error) {
	profile, err := h.store.FetchProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := &CompletionResult{
		ItemID:     itemID,
		Collection: c,
		Previous:   previous,
		Current:    current,
		XP:         profile.XP.Int(),
		Level:      profile.Level().Int(),
	}

	delta := h.rule.ApplyCompletionDelta(previous, current)
	if delta == 0 {
		return result, nil
	}

	before := profile.XP
	events, err := profile.ApplyDelta(delta)
	if err != nil {
		return nil, err
	}
	if err := h.store.SaveProfile(ctx, userID, profile); err != nil {
		return nil, err
	}

	result.XPDelta = int(profile.XP - before)
	result.XP = profile.XP.Int()
	result.Level = profile.Level().Int()
	result.Events = append(result.Events, shared.NewItemCompletionEvent(userID.String(), string(c), itemID, delta))
	for _, e := range events {
		switch ev := e.(type) {
		case shared.XPChangedEvent:
			ev.Source = string(c)
			ev.ItemID = itemID
			e = ev
		case shared.LevelUpEvent:
			result.LevelUps = append(result.LevelUps, ev)
		}
		result.Events = append(result.Events, e)
	}

	h.logger.Info("xp changed",
		logger.UserID(userID.String()),
		logger.Collection(string(c)),
		logger.ItemID(itemID),
		logger.XP(result.XP),
		"delta", result.XPDelta,
		"level", result.Level,
	)

	h.publish(result.Events...)
	return result, nil
}

// restore writes items back after a failed transition and returns cause,
// joined with the restore failure if there was one.
func (h *Handler) restore(ctx context.Context, userID shared.UserID, c userstore.Collection, items any, cause error) error {
	if err := h.store.Put(ctx, userID, c, items); err != nil {
		h.logger.Error("failed to restore item after xp write failure",
			logger.UserID(userID.String()), logger.Collection(string(c)), logger.Err(err))
		return errors.Join(cause, err)
	}
	return cause
}

// publish hands events to the publisher. Failures are logged; the write that
// produced the events has already succeeded.
func (h *Handler) publish(events ...shared.Event) {
	if h.eventPublisher == nil {
		return
	}
	for _, e := range events {
		if err := h.eventPublisher.Publish(e); err != nil {
			h.logger.Warn("failed to publish event", "event_type", e.EventType(), logger.Err(err))
		}
	}
}

// indexByID returns the position of the first element whose id matches.
func indexByID[T any](items []T, id string, idOf func(T) string) int {
	for i, item := range items {
		if idOf(item) == id {
			return i
		}
	}
	return -1
}

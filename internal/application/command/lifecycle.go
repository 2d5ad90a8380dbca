package command

import (
	"context"
	"fmt"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// InitUserResult reports how many collections were seeded.
type InitUserResult struct {
	UserID   shared.UserID
	Seeded   int
	Existing bool
}

// InitUser seeds every collection the user does not have yet. The profile
// starts at 0 XP. Running it twice changes nothing.
func (h *Handler) InitUser(ctx context.Context, userID shared.UserID) (*InitUserResult, error) {
	if userID.IsZero() {
		return nil, shared.ErrEmptyUserID
	}

	seeded, err := h.store.Init(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("init_user: %w", err)
	}

	h.logger.Info("user initialized", logger.UserID(userID.String()), "seeded", seeded)
	return &InitUserResult{UserID: userID, Seeded: seeded, Existing: seeded == 0}, nil
}

// PurgeUser removes every key of the user, including the study-planner
// namespace. Partial failures are returned after all removals were tried.
func (h *Handler) PurgeUser(ctx context.Context, userID shared.UserID) (int, error) {
	if userID.IsZero() {
		return 0, shared.ErrEmptyUserID
	}

	removed, err := h.store.Purge(ctx, userID)
	if err != nil {
		h.logger.Error("purge incomplete", logger.UserID(userID.String()), "removed", removed, logger.Err(err))
		return removed, fmt.Errorf("purge_user: %w", err)
	}

	h.logger.Info("user purged", logger.UserID(userID.String()), "removed", removed)
	h.publish(shared.NewUserPurgedEvent(userID.String(), removed))
	return removed, nil
}

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/study"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/userstore"
	"github.com/Yaasiin-15/StudyDash-sub001/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE COMMANDS
// A deleted item keeps the XP it earned; only an explicit un-complete claws
// XP back.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteStudyTaskCommand removes a study task and every subtask it owns.
type DeleteStudyTaskCommand struct {
	UserID      shared.UserID
	StudyTaskID string
}

// DeleteStudyTaskResult reports what the cascade removed.
type DeleteStudyTaskResult struct {
	StudyTaskID     string
	SubtasksRemoved int
}

// DeleteStudyTask removes the study task, then its subtasks.
func (h *Handler) DeleteStudyTask(ctx context.Context, cmd DeleteStudyTaskCommand) (*DeleteStudyTaskResult, error) {
	if cmd.UserID.IsZero() {
		return nil, shared.ErrEmptyUserID
	}
	if strings.TrimSpace(cmd.StudyTaskID) == "" {
		return nil, fmt.Errorf("delete_study_task: %w", errMissingID)
	}

	tasks, err := userstore.FetchList[study.StudyTask](ctx, h.store, cmd.UserID, userstore.StudyTasks)
	if err != nil {
		return nil, fmt.Errorf("delete_study_task: %w", err)
	}
	kept, removed := removeWhere(tasks, func(s study.StudyTask) bool { return s.ID == cmd.StudyTaskID })
	if removed == 0 {
		return nil, shared.ErrStudyTaskNotFound
	}
	if err := h.store.Put(ctx, cmd.UserID, userstore.StudyTasks, kept); err != nil {
		return nil, fmt.Errorf("delete_study_task: %w", err)
	}

	subtasks, err := userstore.FetchList[study.Subtask](ctx, h.store, cmd.UserID, userstore.StudySubtasks)
	if err != nil {
		return nil, fmt.Errorf("delete_study_task: read subtasks: %w", err)
	}
	keptSubs, orphans := removeWhere(subtasks, func(s study.Subtask) bool { return s.ParentID == cmd.StudyTaskID })
	if orphans > 0 {
		if err := h.store.Put(ctx, cmd.UserID, userstore.StudySubtasks, keptSubs); err != nil {
			return nil, fmt.Errorf("delete_study_task: remove subtasks: %w", err)
		}
	}

	h.logger.Info("study task deleted",
		logger.UserID(cmd.UserID.String()),
		logger.ItemID(cmd.StudyTaskID),
		"subtasks_removed", orphans,
	)
	h.publish(shared.NewStudyTaskDeletedEvent(cmd.UserID.String(), cmd.StudyTaskID, orphans))

	return &DeleteStudyTaskResult{StudyTaskID: cmd.StudyTaskID, SubtasksRemoved: orphans}, nil
}

// DeleteEntityCommand removes one record from a list collection.
type DeleteEntityCommand struct {
	UserID     shared.UserID
	Collection userstore.Collection
	ID         string
}

// DeleteEntity removes the record whose id equals cmd.ID. Study tasks and
// subtasks are routed to their dedicated commands so their invariants hold.
func (h *Handler) DeleteEntity(ctx context.Context, cmd DeleteEntityCommand) error {
	if cmd.UserID.IsZero() {
		return shared.ErrEmptyUserID
	}
	if strings.TrimSpace(cmd.ID) == "" {
		return fmt.Errorf("delete_entity: %w", errMissingID)
	}

	switch cmd.Collection {
	case userstore.StudyTasks:
		_, err := h.DeleteStudyTask(ctx, DeleteStudyTaskCommand{UserID: cmd.UserID, StudyTaskID: cmd.ID})
		return err
	case userstore.StudySubtasks:
		return h.DeleteSubtask(ctx, DeleteSubtaskCommand{UserID: cmd.UserID, SubtaskID: cmd.ID})
	case userstore.Tasks:
		return deleteByID(ctx, h, cmd, func(t study.Task) string { return t.ID })
	case userstore.Assignments:
		return deleteByID(ctx, h, cmd, func(a study.Assignment) string { return a.ID })
	case userstore.Grades:
		return deleteByID(ctx, h, cmd, func(g study.Grade) string { return g.ID })
	case userstore.Resources:
		return deleteByID(ctx, h, cmd, func(r study.Resource) string { return r.ID })
	case userstore.StudyPlannerSlots, userstore.TimeSlots:
		return deleteByID(ctx, h, cmd, func(s study.TimeSlot) string { return s.ID })
	default:
		return shared.WrapError("command", "DeleteEntity", shared.ErrInvalidInput,
			"collection "+string(cmd.Collection)+" does not hold deletable records", shared.ErrUnknownCollection)
	}
}

func deleteByID[T any](ctx context.Context, h *Handler, cmd DeleteEntityCommand, idOf func(T) string) error {
	items, err := userstore.FetchList[T](ctx, h.store, cmd.UserID, cmd.Collection)
	if err != nil {
		return fmt.Errorf("delete_entity: %w", err)
	}
	kept, removed := removeWhere(items, func(item T) bool { return idOf(item) == cmd.ID })
	if removed == 0 {
		return shared.NewDomainError("command", "DeleteEntity", shared.ErrNotFound,
			fmt.Sprintf("no %s record with id %s", cmd.Collection, cmd.ID))
	}
	if err := h.store.Put(ctx, cmd.UserID, cmd.Collection, kept); err != nil {
		return fmt.Errorf("delete_entity: %w", err)
	}
	h.logger.Debug("entity deleted", logger.UserID(cmd.UserID.String()), logger.Collection(string(cmd.Collection)), logger.ItemID(cmd.ID))
	return nil
}

// removeWhere returns the elements that do not match and how many did.
func removeWhere[T any](items []T, match func(T) bool) ([]T, int) {
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if !match(item) {
			kept = append(kept, item)
		}
	}
	return kept, len(items) - len(kept)
}

package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/progress"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/study"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/userstore"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION COMMANDS
// Flip the completion state of a task, assignment or study task. The item is
// saved first; XP only moves once the item write has succeeded, and the item
// is put back when the profile cannot be written.
// ══════════════════════════════════════════════════════════════════════════════

// SetTaskCompletedCommand marks a plain task done or not done.
type SetTaskCompletedCommand struct {
	UserID    shared.UserID
	TaskID    string
	Completed bool
}

// Validate validates the command.
func (c SetTaskCompletedCommand) Validate() error {
	if c.UserID.IsZero() {
		return shared.ErrEmptyUserID
	}
	if strings.TrimSpace(c.TaskID) == "" {
		return errors.New("set_task_completed: task_id is required")
	}
	return nil
}

// SetTaskCompleted persists the new flag and applies the XP delta.
func (h *Handler) SetTaskCompleted(ctx context.Context, cmd SetTaskCompletedCommand) (*CompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("set_task_completed: validation failed: %w", err)
	}

	tasks, err := userstore.FetchList[study.Task](ctx, h.store, cmd.UserID, userstore.Tasks)
	if err != nil {
		return nil, fmt.Errorf("set_task_completed: %w", err)
	}
	i := indexByID(tasks, cmd.TaskID, func(t study.Task) string { return t.ID })
	if i < 0 {
		return nil, shared.ErrTaskNotFound
	}

	original := tasks[i]
	tasks[i].Completed = cmd.Completed
	if err := h.store.Put(ctx, cmd.UserID, userstore.Tasks, tasks); err != nil {
		return nil, fmt.Errorf("set_task_completed: %w", err)
	}
	result, err := h.applyTransition(ctx, cmd.UserID, userstore.Tasks, cmd.TaskID, original.Status(), tasks[i].Status())
	if err != nil {
		tasks[i] = original
		return nil, fmt.Errorf("set_task_completed: %w", h.restore(ctx, cmd.UserID, userstore.Tasks, tasks, err))
	}
	return result, nil
}

// SetStatusCommand sets the status of an assignment or study task. Status is
// normalized; unknown values count as not started.
type SetStatusCommand struct {
	UserID shared.UserID
	ItemID string
	Status string
}

// Validate validates the command.
func (c SetStatusCommand) Validate() error {
	if c.UserID.IsZero() {
		return shared.ErrEmptyUserID
	}
	if strings.TrimSpace(c.ItemID) == "" {
		return errors.New("item_id is required")
	}
	return nil
}

// SetAssignmentStatus persists the new status and applies the XP delta.
// Re-saving a completed assignment as completed awards nothing.
func (h *Handler) SetAssignmentStatus(ctx context.Context, cmd SetStatusCommand) (*CompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("set_assignment_status: validation failed: %w", err)
	}

	items, err := userstore.FetchList[study.Assignment](ctx, h.store, cmd.UserID, userstore.Assignments)
	if err != nil {
		return nil, fmt.Errorf("set_assignment_status: %w", err)
	}
	i := indexByID(items, cmd.ItemID, func(a study.Assignment) string { return a.ID })
	if i < 0 {
		return nil, shared.ErrAssignmentNotFound
	}

	original := items[i]
	next := progress.ParseStatus(cmd.Status)
	items[i].Status = string(next)
	if err := h.store.Put(ctx, cmd.UserID, userstore.Assignments, items); err != nil {
		return nil, fmt.Errorf("set_assignment_status: %w", err)
	}
	result, err := h.applyTransition(ctx, cmd.UserID, userstore.Assignments, cmd.ItemID, original.CompletionStatus(), next)
	if err != nil {
		items[i] = original
		return nil, fmt.Errorf("set_assignment_status: %w", h.restore(ctx, cmd.UserID, userstore.Assignments, items, err))
	}
	return result, nil
}

// SetStudyTaskStatus persists the new status and applies the XP delta.
func (h *Handler) SetStudyTaskStatus(ctx context.Context, cmd SetStatusCommand) (*CompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("set_study_task_status: validation failed: %w", err)
	}

	items, err := userstore.FetchList[study.StudyTask](ctx, h.store, cmd.UserID, userstore.StudyTasks)
	if err != nil {
		return nil, fmt.Errorf("set_study_task_status: %w", err)
	}
	i := indexByID(items, cmd.ItemID, func(s study.StudyTask) string { return s.ID })
	if i < 0 {
		return nil, shared.ErrStudyTaskNotFound
	}

	original := items[i]
	next := progress.ParseStatus(cmd.Status)
	items[i].Status = string(next)
	if err := h.store.Put(ctx, cmd.UserID, userstore.StudyTasks, items); err != nil {
		return nil, fmt.Errorf("set_study_task_status: %w", err)
	}
	result, err := h.applyTransition(ctx, cmd.UserID, userstore.StudyTasks, cmd.ItemID, original.CompletionStatus(), next)
	if err != nil {
		items[i] = original
		return nil, fmt.Errorf("set_study_task_status: %w", h.restore(ctx, cmd.UserID, userstore.StudyTasks, items, err))
	}
	return result, nil
}

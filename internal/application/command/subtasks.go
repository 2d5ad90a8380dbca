package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/study"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/userstore"
	"github.com/Yaasiin-15/StudyDash-sub001/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBTASK COMMANDS
// A subtask always points at an existing study task, and a study task's
// hasSubtasks flag is true iff at least one subtask points at it.
// Subtasks do not earn XP on their own.
// ══════════════════════════════════════════════════════════════════════════════

// AddSubtaskCommand creates a subtask under a study task.
type AddSubtaskCommand struct {
	UserID   shared.UserID
	ParentID string
	Title    string
}

// Validate validates the command.
func (c AddSubtaskCommand) Validate() error {
	if c.UserID.IsZero() {
		return shared.ErrEmptyUserID
	}
	return study.Subtask{ParentID: c.ParentID, Title: c.Title}.Validate()
}

// AddSubtask stores a new subtask and sets the parent's hasSubtasks flag.
func (h *Handler) AddSubtask(ctx context.Context, cmd AddSubtaskCommand) (*study.Subtask, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("add_subtask: validation failed: %w", err)
	}

	parents, err := userstore.FetchList[study.StudyTask](ctx, h.store, cmd.UserID, userstore.StudyTasks)
	if err != nil {
		return nil, fmt.Errorf("add_subtask: %w", err)
	}
	p := indexByID(parents, cmd.ParentID, func(s study.StudyTask) string { return s.ID })
	if p < 0 {
		return nil, fmt.Errorf("add_subtask: %w", shared.ErrOrphanSubtask)
	}

	sub := study.Subtask{
		ID:       h.newID(),
		ParentID: cmd.ParentID,
		Title:    strings.TrimSpace(cmd.Title),
	}
	subtasks, err := userstore.FetchList[study.Subtask](ctx, h.store, cmd.UserID, userstore.StudySubtasks)
	if err != nil {
		return nil, fmt.Errorf("add_subtask: %w", err)
	}
	subtasks = append(subtasks, sub)
	if err := h.store.Put(ctx, cmd.UserID, userstore.StudySubtasks, subtasks); err != nil {
		return nil, fmt.Errorf("add_subtask: %w", err)
	}

	if !parents[p].HasSubtasks {
		parents[p].HasSubtasks = true
		if err := h.store.Put(ctx, cmd.UserID, userstore.StudyTasks, parents); err != nil {
			return nil, fmt.Errorf("add_subtask: %w", err)
		}
	}

	h.logger.Debug("subtask added", logger.UserID(cmd.UserID.String()), logger.ItemID(sub.ID), "parent_id", sub.ParentID)
	return &sub, nil
}

// SetSubtaskCompletedCommand marks a subtask done or not done.
type SetSubtaskCompletedCommand struct {
	UserID    shared.UserID
	SubtaskID string
	Completed bool
}

// SetSubtaskCompleted persists the flag.
func (h *Handler) SetSubtaskCompleted(ctx context.Context, cmd SetSubtaskCompletedCommand) (*study.Subtask, error) {
	if cmd.UserID.IsZero() {
		return nil, shared.ErrEmptyUserID
	}

	subtasks, err := userstore.FetchList[study.Subtask](ctx, h.store, cmd.UserID, userstore.StudySubtasks)
	if err != nil {
		return nil, fmt.Errorf("set_subtask_completed: %w", err)
	}
	i := indexByID(subtasks, cmd.SubtaskID, func(s study.Subtask) string { return s.ID })
	if i < 0 {
		return nil, shared.ErrSubtaskNotFound
	}
	if subtasks[i].Completed == cmd.Completed {
		return &subtasks[i], nil
	}

	subtasks[i].Completed = cmd.Completed
	if err := h.store.Put(ctx, cmd.UserID, userstore.StudySubtasks, subtasks); err != nil {
		return nil, fmt.Errorf("set_subtask_completed: %w", err)
	}
	return &subtasks[i], nil
}

// DeleteSubtaskCommand removes one subtask.
type DeleteSubtaskCommand struct {
	UserID    shared.UserID
	SubtaskID string
}

// DeleteSubtask removes the subtask and clears the parent's hasSubtasks flag
// when it was the last one.
func (h *Handler) DeleteSubtask(ctx context.Context, cmd DeleteSubtaskCommand) error {
	if cmd.UserID.IsZero() {
		return shared.ErrEmptyUserID
	}

	subtasks, err := userstore.FetchList[study.Subtask](ctx, h.store, cmd.UserID, userstore.StudySubtasks)
	if err != nil {
		return fmt.Errorf("delete_subtask: %w", err)
	}
	i := indexByID(subtasks, cmd.SubtaskID, func(s study.Subtask) string { return s.ID })
	if i < 0 {
		return shared.ErrSubtaskNotFound
	}
	parentID := subtasks[i].ParentID
	subtasks = append(subtasks[:i], subtasks[i+1:]...)
	if err := h.store.Put(ctx, cmd.UserID, userstore.StudySubtasks, subtasks); err != nil {
		return fmt.Errorf("delete_subtask: %w", err)
	}

	return h.syncHasSubtasks(ctx, cmd.UserID, parentID, subtasks)
}

// syncHasSubtasks recomputes hasSubtasks for parentID from subtasks.
func (h *Handler) syncHasSubtasks(ctx context.Context, userID shared.UserID, parentID string, subtasks []study.Subtask) error {
	parents, err := userstore.FetchList[study.StudyTask](ctx, h.store, userID, userstore.StudyTasks)
	if err != nil {
		return fmt.Errorf("sync_has_subtasks: %w", err)
	}
	p := indexByID(parents, parentID, func(s study.StudyTask) string { return s.ID })
	if p < 0 {
		return nil
	}

	has := len(study.Collections{Subtasks: subtasks}.SubtasksOf(parentID)) > 0
	if parents[p].HasSubtasks == has {
		return nil
	}
	parents[p].HasSubtasks = has
	if err := h.store.Put(ctx, userID, userstore.StudyTasks, parents); err != nil {
		return fmt.Errorf("sync_has_subtasks: %w", err)
	}
	return nil
}

// errMissingID is returned by delete commands given a blank id.
var errMissingID = errors.New("id is required")

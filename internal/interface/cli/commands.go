package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/application/command"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/application/query"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/progress"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/userstore"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT
// ══════════════════════════════════════════════════════════════════════════════

func newInitCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the user's collections with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, userID, out, err := session(cmd, opts)
			if err != nil {
				return err
			}
			res, err := app.Commands.InitUser(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if res.Existing {
				return out.Message("%s already initialized", userID)
			}
			return out.Message("initialized %s (%d collections)", userID, res.Seeded)
		},
	}
}

func newPurgeCommand(opts *Options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove every stored key of the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, userID, out, err := session(cmd, opts)
			if err != nil {
				return err
			}
			if !yes {
				return errors.New("purge is irreversible, pass --yes to confirm")
			}
			removed, err := app.Commands.PurgeUser(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return out.Message("removed %d keys for %s", removed, userID)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm removal")
	return cmd
}

func newKeysCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the user's stored per-user keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, userID, out, err := session(cmd, opts)
			if err != nil {
				return err
			}
			keys, err := app.Store.Keys(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return out.Lines(keys)
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS AND ANALYTICS
// ══════════════════════════════════════════════════════════════════════════════

func newProfileCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show xp, level and progress to the next level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, userID, out, err := session(cmd, opts)
			if err != nil {
				return err
			}
			dto, err := app.Queries.GetProfile(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return out.Profile(dto)
		},
	}
}

func newRollupsCommand(opts *Options) *cobra.Command {
	var byXP bool
	cmd := &cobra.Command{
		Use:   "rollups",
		Short: "Summarize every subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, userID, out, err := session(cmd, opts)
			if err != nil {
				return err
			}
			dto, err := app.Queries.GetSubjectRollups(cmd.Context(), query.GetSubjectRollupsQuery{UserID: userID, SortByXP: byXP})
			if err != nil {
				return err
			}
			return out.Rollups(dto)
		},
	}
	cmd.Flags().BoolVar(&byXP, "by-xp", false, "order by total xp instead of subject")
	return cmd
}

func newReportCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "report <subject>",
		Short: "Show one subject with recommendations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, out, err := session(cmd, opts)
			if err != nil {
				return err
			}
			dto, err := app.Queries.GetSubjectReport(cmd.Context(), userID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return out.Report(dto)
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION
// ══════════════════════════════════════════════════════════════════════════════

func newCompleteCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Change the completion state of an item",
	}

	var undoTask bool
	task := &cobra.Command{
		Use:   "task <id>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, out, err := session(cmd, opts)
			if err != nil {
				return err
			}
			res, err := app.Commands.SetTaskCompleted(cmd.Context(), command.SetTaskCompletedCommand{
				UserID: userID, TaskID: args[0], Completed: !undoTask,
			})
			if err != nil {
				return err
			}
			return out.Completion(res)
		},
	}
	task.Flags().BoolVar(&undoTask, "undo", false, "mark as not done")

	cmd.AddCommand(
		task,
		newStatusCommand(opts, "assignment <id>", "Set an assignment's status", (*command.Handler).SetAssignmentStatus),
		newStatusCommand(opts, "study-task <id>", "Set a study task's status", (*command.Handler).SetStudyTaskStatus),
	)
	return cmd
}

type statusFunc func(*command.Handler, context.Context, command.SetStatusCommand) (*command.CompletionResult, error)

func newStatusCommand(opts *Options, use, short string, apply statusFunc) *cobra.Command {
	var status string
	var undo bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, out, err := session(cmd, opts)
			if err != nil {
				return err
			}
			next := status
			if undo {
				next = string(progress.StatusNotStarted)
			}
			res, err := apply(app.Commands, cmd.Context(), command.SetStatusCommand{
				UserID: userID, ItemID: args[0], Status: next,
			})
			if err != nil {
				return err
			}
			return out.Completion(res)
		},
	}
	cmd.Flags().StringVar(&status, "status", string(progress.StatusCompleted), "not-started, in-progress or completed")
	cmd.Flags().BoolVar(&undo, "undo", false, "reset to not-started")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBTASKS AND DELETION
// ══════════════════════════════════════════════════════════════════════════════

func newSubtaskCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Manage study task subtasks",
	}

	add := &cobra.Command{
		Use:   "add <study-task-id> <title>",
		Short: "Add a subtask to a study task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, out, err := session(cmd, opts)
			if err != nil {
				return err
			}
			sub, err := app.Commands.AddSubtask(cmd.Context(), command.AddSubtaskCommand{
				UserID: userID, ParentID: args[0], Title: strings.Join(args[1:], " "),
			})
			if err != nil {
				return err
			}
			return out.Message("added subtask %s to %s", sub.ID, sub.ParentID)
		},
	}

	var undo bool
	done := &cobra.Command{
		Use:   "done <subtask-id>",
		Short: "Mark a subtask done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, out, err := session(cmd, opts)
			if err != nil {
				return err
			}
			sub, err := app.Commands.SetSubtaskCompleted(cmd.Context(), command.SetSubtaskCompletedCommand{
				UserID: userID, SubtaskID: args[0], Completed: !undo,
			})
			if err != nil {
				return err
			}
			return out.Message("subtask %s completed=%t", sub.ID, sub.Completed)
		},
	}
	done.Flags().BoolVar(&undo, "undo", false, "mark as not done")

	del := &cobra.Command{
		Use:   "delete <subtask-id>",
		Short: "Delete a subtask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, out, err := session(cmd, opts)
			if err != nil {
				return err
			}
			if err := app.Commands.DeleteSubtask(cmd.Context(), command.DeleteSubtaskCommand{UserID: userID, SubtaskID: args[0]}); err != nil {
				return err
			}
			return out.Message("deleted subtask %s", args[0])
		},
	}

	cmd.AddCommand(add, done, del)
	return cmd
}

func newDeleteCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete one record (tasks, assignments, grades, resources, study_planner:tasks, ...)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, userID, out, err := session(cmd, opts)
			if err != nil {
				return err
			}
			c, err := userstore.Parse(args[0])
			if err != nil {
				return err
			}
			if err := app.Commands.DeleteEntity(cmd.Context(), command.DeleteEntityCommand{UserID: userID, Collection: c, ID: args[1]}); err != nil {
				return err
			}
			return out.Message("deleted %s from %s", args[1], c)
		},
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/timekeep/internal/cli/formatter"
	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/spf13/cobra"
)

func newTaskCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the local task directory",
	}

	cmd.AddCommand(
		newTaskAddCmd(a),
		newTaskListCmd(a),
		newTaskDoneCmd(a),
	)

	return cmd
}

func newTaskAddCmd(a *App) *cobra.Command {
	var id, taskType, priority, project string

	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := &domain.Task{
				ID:        id,
				Title:     strings.Join(args, " "),
				Type:      taskType,
				Priority:  domain.TaskPriority(priority),
				ProjectID: project,
			}
			if err := a.Tasks.Add(cmd.Context(), t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %s %s\n", formatter.Bold(t.ID), formatter.Dim(t.Title))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Task ID (generated when empty)")
	cmd.Flags().StringVar(&taskType, "type", "task", "Task type, e.g. bug or feature")
	cmd.Flags().StringVar(&priority, "priority", string(domain.PriorityMedium), "low, medium, high or urgent")
	cmd.Flags().StringVar(&project, "project", "default", "Project ID")
	return cmd
}

func newTaskListCmd(a *App) *cobra.Command {
	var project, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.Tasks.List(cmd.Context(), project, domain.TaskStatus(status))
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTasks(tasks))
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Only this project")
	cmd.Flags().StringVar(&status, "status", "", "Only this status: todo, in_progress, done, cancelled")
	return cmd
}

func newTaskDoneCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.Tasks.MarkDone(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %s %s\n", formatter.Bold(t.ID), formatter.Dim(t.Title))
			return nil
		},
	}
}

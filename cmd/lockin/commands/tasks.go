package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/lockin/internal/cli"
	"github.com/spf13/cobra"
)

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.Load(cmd.Context(), a.owner()); err != nil {
				return err
			}
			return cli.Tasks(cmd.OutOrStdout(), a.tasks.Tasks(), a.tasks.Progress())
		},
	}

	cmd.AddCommand(newTaskAddCmd(a))
	cmd.AddCommand(newTaskToggleCmd(a, "done", "Mark a task complete", true))
	cmd.AddCommand(newTaskToggleCmd(a, "undo", "Mark a task incomplete", false))
	cmd.AddCommand(newTaskDeleteCmd(a))
	cmd.AddCommand(newTaskShameCmd(a))
	return cmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var motivation string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.Load(cmd.Context(), a.owner()); err != nil {
				return err
			}
			task, err := a.tasks.Add(cmd.Context(), a.owner(), strings.Join(args, " "), motivation)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s\n", len(a.tasks.Tasks()), task.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&motivation, "why", "w", "", "Why this task matters")
	return cmd
}

func newTaskToggleCmd(a *app, use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <n|id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.Load(cmd.Context(), a.owner()); err != nil {
				return err
			}
			task, err := resolveTask(a.tasks.Tasks(), args[0])
			if err != nil {
				return err
			}
			if err := a.tasks.Toggle(cmd.Context(), task.ID, completed); err != nil {
				return a.reported(err)
			}
			p := a.tasks.Progress()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %d/%d\n", cli.Bar(float64(p.Percent), cli.BarWidth), task.Title, p.Completed, p.Total)
			if completed && p.AllDone {
				fmt.Fprintln(cmd.OutOrStdout(), "ALL TASKS DONE. VICTORY.")
			}
			return nil
		},
	}
}

func newTaskDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <n|id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.Load(cmd.Context(), a.owner()); err != nil {
				return err
			}
			task, err := resolveTask(a.tasks.Tasks(), args[0])
			if err != nil {
				return err
			}
			if err := a.tasks.Delete(cmd.Context(), task.ID); err != nil {
				return a.reported(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", task.Title)
			return nil
		},
	}
}

func newTaskShameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shame",
		Short: "Show time since the last completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.Load(cmd.Context(), a.owner()); err != nil {
				return err
			}
			last, ok := a.tasks.LastCompletion()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing completed yet. THE CLOCK IS TICKING...")
				return nil
			}
			return cli.Shame(cmd.OutOrStdout(), a.now().Sub(last))
		},
	}
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"reminder/internal/manager"
	"reminder/internal/models"
	"reminder/internal/server"
	"reminder/internal/storage"
)

func (c *cli) addCmd() *cobra.Command {
	var deadline, description string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.with(func(cmd *cobra.Command, args []string) error {
			req := manager.CreateTaskRequest{Title: strings.Join(args, " ")}
			if cmd.Flags().Changed("deadline") {
				d, err := models.ParseDeadline(deadline)
				if err != nil {
					return err
				}
				req.Deadline = d
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}

			task, err := c.app.Manager.AddTask(cmd.Context(), req)
			if errors.Is(err, manager.ErrDuplicateTitle) {
				fmt.Fprintf(cmd.ErrOrStderr(), "'%s' already in the list.\n", strings.TrimSpace(req.Title))
				return errReported
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task '%s' added.\n", task.Title)
			return nil
		}),
	}
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline as YYYY-MM-DD")
	cmd.Flags().StringVar(&description, "description", "", "free-form description")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:       "list [overdue|completed|incomplete]",
		Short:     "List tasks",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"overdue", "completed", "incomplete"},
		RunE: c.with(func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			filter, err := manager.ParseFilter(name)
			if err != nil {
				return err
			}
			tasks, err := c.app.Manager.ListTasks(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), tasks, filter, verbose)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every field")
	return cmd
}

// byTitleCmd собирает remove, complete и incomplete: адресация по названию
// с подсказками при промахе.
func (c *cli) byTitleCmd(name, short, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <title>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: c.with(func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			tm := c.app.Manager

			var (
				res manager.Resolution
				err error
			)
			switch name {
			case "remove":
				res, err = tm.RemoveTask(cmd.Context(), query)
			case "complete":
				res, err = tm.CompleteTask(cmd.Context(), query)
			default:
				res, err = tm.IncompleteTask(cmd.Context(), query)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Hit {
				fmt.Fprintf(out, "Task '%s' %s.\n", res.Task.Title, verb)
				return nil
			}
			_, err = res.Report.WriteTo(out)
			return err
		}),
	}
}

func (c *cli) updateCmd() *cobra.Command {
	var title, deadline, description string
	var completed bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task by id; unset flags keep their values",
		Args:  cobra.ExactArgs(1),
		RunE: c.with(func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			var req manager.UpdateTaskRequest
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("deadline") {
				d, err := models.ParseDeadline(deadline)
				if err != nil {
					return err
				}
				req.Deadline = d
				req.ClearDeadline = d == nil
			}
			if flags.Changed("description") {
				if description == "" {
					req.ClearDescription = true
				} else {
					req.Description = &description
				}
			}
			if flags.Changed("completed") {
				req.Completed = &completed
			}

			task, err := c.app.Manager.UpdateTask(cmd.Context(), id, req)
			if errors.Is(err, manager.ErrNotFound) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Task %s not found.\n", id)
				return errReported
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task '%s' updated.\n", task.Title)
			return nil
		}),
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&deadline, "deadline", "", "new deadline as YYYY-MM-DD, or none to clear it")
	cmd.Flags().StringVar(&description, "description", "", "new description, empty to clear it")
	cmd.Flags().BoolVar(&completed, "completed", false, "completion flag")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task by id",
		Args:  cobra.ExactArgs(1),
		RunE: c.with(func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			err = c.app.Manager.DeleteTask(cmd.Context(), id)
			if errors.Is(err, manager.ErrNotFound) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Task %s not found.\n", id)
				return errReported
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s deleted.\n", id)
			return nil
		}),
	}
}

func (c *cli) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all tasks",
		Args:  cobra.NoArgs,
		RunE: c.with(func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Manager.ClearTasks(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Task list cleared.")
			return nil
		}),
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tasks as json, yaml or csv",
		Args:  cobra.NoArgs,
		RunE: c.with(func(cmd *cobra.Command, _ []string) error {
			if format == "" {
				format = storage.FormatJSON
				if out != "" {
					f, err := storage.FormatFromPath(out)
					if err != nil {
						return err
					}
					format = f
				}
			}

			tasks, err := c.app.Manager.ListTasks(cmd.Context(), manager.FilterAll)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := storage.Encode(w, format, tasks); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s in %s format.\n", len(tasks), out, format)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&format, "format", "", "json, yaml or csv (default from --out extension, else json)")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all tasks with the contents of a json, yaml or csv file",
		Args:  cobra.ExactArgs(1),
		RunE: c.with(func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if format == "" {
				f, err := storage.FormatFromPath(path)
				if err != nil {
					return err
				}
				format = f
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			tasks, err := storage.Decode(f, format)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if err := c.app.Manager.ReplaceTasks(cmd.Context(), tasks); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks from %s.\n", len(tasks), path)
			return nil
		}),
	}
	cmd.Flags().StringVar(&format, "format", "", "json, yaml or csv (default from the file extension)")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent changes from the Redis audit log",
		Args:  cobra.NoArgs,
		RunE: c.with(func(cmd *cobra.Command, _ []string) error {
			if c.app.Audit == nil {
				return errors.New("audit log is not configured, set REDIS_ADDR")
			}
			events, err := c.app.Audit.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No changes recorded.")
				return nil
			}
			for _, ev := range events {
				title := ""
				switch {
				case ev.After != nil:
					title = ev.After.Title
				case ev.Before != nil:
					title = ev.Before.Title
				}
				fmt.Fprintf(out, "%s  %-10s %s\n", ev.At.Local().Format("2006-01-02 15:04:05"), ev.Op, title)
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of events to show")
	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API",
		Args:  cobra.NoArgs,
		RunE: c.with(func(cmd *cobra.Command, _ []string) error {
			return server.New(c.app.Manager, c.app.Config.HTTP).Run(cmd.Context())
		}),
	}
}

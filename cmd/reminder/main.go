package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reminder/internal/app"
	"reminder/internal/config"
)

// errReported: сообщение уже напечатано, нужен только ненулевой код выхода.
var errReported = errors.New("exit status 1")

type cli struct {
	configPath string
	app        *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "reminder",
		Short:         "Personal task and reminder manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a TOML config file (default ./reminder.toml if present)")

	root.AddCommand(
		c.addCmd(),
		c.listCmd(),
		c.byTitleCmd("remove", "Remove a task by title", "removed"),
		c.byTitleCmd("complete", "Mark a task as completed", "marked as completed"),
		c.byTitleCmd("incomplete", "Mark a task as not completed", "marked as incomplete"),
		c.updateCmd(),
		c.deleteCmd(),
		c.clearCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.historyCmd(),
		c.serveCmd(),
	)
	return root
}

// with открывает хранилище на время одной команды.
func (c *cli) with(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		c.app = a
		return fn(cmd, args)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

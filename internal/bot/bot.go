// Package bot содержит Telegram-интерфейс к командам TaskManager.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"reminder/internal/logger"
	"reminder/internal/manager"
	"reminder/internal/models"
)

var botCommands = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reminder_bot_commands_total",
		Help: "Telegram commands handled",
	},
	[]string{"command"},
)

const helpText = `Commands:
/add <title> - add a task
/list - show all tasks
/done <title> - mark a task completed
/undo <title> - mark a task not completed
/remove <title> - remove a task
/help - this help`

// Sender: часть BotAPI, которой нужен бот.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api Sender
	tm  *manager.TaskManager
}

func New(api Sender, tm *manager.TaskManager) *Bot {
	return &Bot{api: api, tm: tm}
}

// Run обрабатывает обновления до закрытия канала или отмены ctx.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.HandleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user := ""
	if msg.From != nil {
		user = msg.From.UserName
	}
	ctx = logger.WithContext(ctx, "chat_id", msg.Chat.ID, "user", user)
	logger.Info(ctx, "message received", "text", msg.Text)

	if !msg.IsCommand() {
		b.reply(ctx, msg.Chat.ID, "Use /help to see the commands.")
		return
	}
	b.reply(ctx, msg.Chat.ID, b.dispatch(ctx, msg.Command(), msg.CommandArguments()))
}

// dispatch выполняет команду и возвращает текст ответа.
func (b *Bot) dispatch(ctx context.Context, command, args string) string {
	botCommands.WithLabelValues(command).Inc()
	args = strings.TrimSpace(args)

	switch command {
	case "start", "help":
		return helpText
	case "add":
		if args == "" {
			return "Usage: /add <title>"
		}
		task, err := b.tm.AddTask(ctx, manager.CreateTaskRequest{Title: args})
		if err != nil {
			return b.failure(ctx, err)
		}
		return fmt.Sprintf("✅ Task '%s' added.", task.Title)
	case "list":
		tasks, err := b.tm.ListTasks(ctx, manager.FilterAll)
		if err != nil {
			return b.failure(ctx, err)
		}
		return formatList(tasks)
	case "done", "undo", "remove":
		if args == "" {
			return fmt.Sprintf("Usage: /%s <title>", command)
		}
		return b.byTitle(ctx, command, args)
	default:
		return "Unknown command. Use /help to see the commands."
	}
}

func (b *Bot) byTitle(ctx context.Context, command, title string) string {
	var (
		res  manager.Resolution
		err  error
		verb string
	)
	switch command {
	case "done":
		res, err = b.tm.CompleteTask(ctx, title)
		verb = "completed"
	case "undo":
		res, err = b.tm.IncompleteTask(ctx, title)
		verb = "marked as not completed"
	default:
		res, err = b.tm.RemoveTask(ctx, title)
		verb = "removed"
	}
	if err != nil {
		return b.failure(ctx, err)
	}
	if res.Hit {
		return fmt.Sprintf("Task '%s' %s.", res.Task.Title, verb)
	}
	if res.Report.Empty() {
		return fmt.Sprintf("Cannot find %s.", title)
	}
	return strings.TrimSpace(res.Report.String())
}

func (b *Bot) failure(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, manager.ErrDuplicateTitle), errors.Is(err, models.ErrEmptyTitle):
		return "❌ " + err.Error()
	default:
		logger.Error(ctx, err, "bot command failed")
		return "❌ Something went wrong, try again later."
	}
}

func formatList(tasks []models.Task) string {
	if len(tasks) == 0 {
		return "📭 No tasks found."
	}
	var sb strings.Builder
	for i, t := range tasks {
		mark := "⬜"
		switch {
		case t.Completed:
			mark = "✅"
		case models.Overdue(t.Deadline):
			mark = "🔴"
		}
		fmt.Fprintf(&sb, "%d. %s %s", i+1, mark, t.Title)
		if t.Deadline != nil {
			fmt.Fprintf(&sb, " (due %s)", t.Deadline)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Error(ctx, err, "send message failed")
	}
}

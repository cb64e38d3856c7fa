package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"reminder/internal/manager"
	"reminder/internal/models"
)

var (
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	labelStyle     = lipgloss.NewStyle().Bold(true)
)

// styleFor: выполненная задача зеленая, даже если срок прошел.
func styleFor(t models.Task) lipgloss.Style {
	switch {
	case t.Completed:
		return completedStyle
	case models.Overdue(t.Deadline):
		return overdueStyle
	default:
		return lipgloss.NewStyle()
	}
}

func printList(w io.Writer, tasks []models.Task, filter manager.Filter, verbose bool) {
	if len(tasks) == 0 {
		if filter == manager.FilterAll {
			fmt.Fprintln(w, "No tasks found.")
		} else {
			fmt.Fprintf(w, "No %s tasks found.\n", filter)
		}
		return
	}

	for i, t := range tasks {
		if !verbose {
			fmt.Fprintf(w, "%d. %s\n", i+1, styleFor(t).Render(t.Title))
			continue
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		printDetails(w, t)
	}
}

func printDetails(w io.Writer, t models.Task) {
	deadline, description := "None", "None"
	if t.Deadline != nil {
		deadline = t.Deadline.String()
	}
	if t.Description != nil {
		description = *t.Description
	}
	completed := "No"
	if t.Completed {
		completed = "Yes"
	}

	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label+":"), value)
	}
	row("Task ID", t.ID.String())
	row("Title", styleFor(t).Render(t.Title))
	row("Deadline", deadline)
	row("Description", description)
	row("Completed", completed)
}

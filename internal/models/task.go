package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrEmptyTitle = errors.New("title is empty")

// Task: задача-напоминание
type Task struct {
	ID          uuid.UUID `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Deadline    *Date     `json:"deadline" yaml:"deadline"`
	Description *string   `json:"description" yaml:"description"`
	Completed   bool      `json:"completed" yaml:"completed"`
}

// New создает задачу со свежим идентификатором.
func New(title string) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}
	return Task{ID: uuid.New(), Title: title}, nil
}

// Equal сравнивает задачи по значению, ID не учитывается.
func (t Task) Equal(o Task) bool {
	return t.Title == o.Title &&
		equalPtr(t.Description, o.Description) &&
		equalPtr(t.Deadline, o.Deadline) &&
		t.Completed == o.Completed
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Clone возвращает копию без общих указателей.
func (t Task) Clone() Task {
	c := t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	if t.Description != nil {
		s := *t.Description
		c.Description = &s
	}
	return c
}

func (t Task) String() string {
	deadline := "None"
	if t.Deadline != nil {
		deadline = t.Deadline.String()
	}
	return fmt.Sprintf("Task(title=%s, id=%s, deadline=%s, completed=%t)", t.Title, t.ID, deadline, t.Completed)
}

// wireTask: форма записи в документе. Старые черновики писали task_id,
// name и done; они принимаются при чтении.
type wireTask struct {
	ID          *string `json:"id"`
	TaskID      *string `json:"task_id,omitempty"`
	Title       *string `json:"title"`
	Name        *string `json:"name,omitempty"`
	Deadline    *string `json:"deadline"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Done        *bool   `json:"done,omitempty"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	id := t.ID.String()
	w := wireTask{
		ID:          &id,
		Title:       &t.Title,
		Description: t.Description,
		Completed:   &t.Completed,
	}
	if t.Deadline != nil {
		s := t.Deadline.String()
		w.Deadline = &s
	}
	return json.Marshal(w)
}

func (t *Task) UnmarshalJSON(b []byte) error {
	var w wireTask
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	out := Task{Description: w.Description}

	rawID := w.ID
	if rawID == nil {
		rawID = w.TaskID
	}
	if rawID != nil && *rawID != "" {
		id, err := uuid.Parse(*rawID)
		if err != nil {
			return fmt.Errorf("bad task id %q: %w", *rawID, err)
		}
		out.ID = id
	} else {
		out.ID = uuid.New()
	}

	switch {
	case w.Title != nil:
		out.Title = *w.Title
	case w.Name != nil:
		out.Title = *w.Name
	}

	if w.Deadline != nil {
		d, err := ParseDate(*w.Deadline)
		if err != nil {
			return err
		}
		out.Deadline = &d
	}

	switch {
	case w.Completed != nil:
		out.Completed = *w.Completed
	case w.Done != nil:
		out.Completed = *w.Done
	}

	*t = out
	return nil
}

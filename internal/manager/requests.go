package manager

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"reminder/internal/models"
)

// CreateTaskRequest: данные новой задачи. ID всегда генерируется заново.
type CreateTaskRequest struct {
	Title       string       `json:"title"`
	Deadline    *models.Date `json:"deadline"`
	Description *string      `json:"description"`
	Completed   bool         `json:"completed"`
}

// UpdateTaskRequest: частичное обновление. Поле, которого нет в запросе,
// сохраняет прежнее значение. Clear* снимают необязательные поля.
type UpdateTaskRequest struct {
	ID               *uuid.UUID
	Title            *string
	Deadline         *models.Date
	ClearDeadline    bool
	Description      *string
	ClearDescription bool
	Completed        *bool
}

func (r UpdateTaskRequest) apply(t models.Task) (models.Task, error) {
	out := t.Clone()
	if r.Title != nil {
		nt, err := models.New(*r.Title)
		if err != nil {
			return t, err
		}
		out.Title = nt.Title
	}
	switch {
	case r.ClearDeadline:
		out.Deadline = nil
	case r.Deadline != nil:
		d := *r.Deadline
		out.Deadline = &d
	}
	switch {
	case r.ClearDescription:
		out.Description = nil
	case r.Description != nil:
		s := *r.Description
		out.Description = &s
	}
	if r.Completed != nil {
		out.Completed = *r.Completed
	}
	return out, nil
}

// UnmarshalJSON различает отсутствующее поле и явный null: null у deadline и
// description снимает значение, у title и completed это ошибка.
func (r *UpdateTaskRequest) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: no update data provided", ErrInvalidRequest)
	}

	var out UpdateTaskRequest
	for key, raw := range fields {
		isNull := bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
		switch key {
		case "id", "task_id":
			if isNull {
				continue
			}
			var id uuid.UUID
			if err := json.Unmarshal(raw, &id); err != nil {
				return fmt.Errorf("%w: bad id: %v", ErrInvalidRequest, err)
			}
			out.ID = &id
		case "title":
			if isNull {
				return fmt.Errorf("%w: title cannot be null", ErrInvalidRequest)
			}
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("%w: title: %v", ErrInvalidRequest, err)
			}
			out.Title = &s
		case "deadline":
			if isNull {
				out.ClearDeadline = true
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("%w: deadline: %v", ErrInvalidRequest, err)
			}
			d, err := models.ParseDate(s)
			if err != nil {
				return err
			}
			out.Deadline = &d
		case "description":
			if isNull {
				out.ClearDescription = true
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("%w: description: %v", ErrInvalidRequest, err)
			}
			out.Description = &s
		case "completed":
			var v bool
			if isNull {
				return fmt.Errorf("%w: completed cannot be null", ErrInvalidRequest)
			}
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("%w: completed: %v", ErrInvalidRequest, err)
			}
			out.Completed = &v
		default:
			return fmt.Errorf("%w: unknown field %q", ErrInvalidRequest, key)
		}
	}
	*r = out
	return nil
}

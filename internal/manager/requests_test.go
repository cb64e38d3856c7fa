package manager

import (
	"encoding/json"
	"errors"
	"testing"

	"reminder/internal/models"
)

func TestUpdateRequestUnmarshal(t *testing.T) {
	var req UpdateTaskRequest
	body := `{"title":"pay rent","deadline":null,"description":"monthly","completed":true}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatal(err)
	}
	if req.Title == nil || *req.Title != "pay rent" {
		t.Errorf("Название: %v", req.Title)
	}
	if !req.ClearDeadline || req.Deadline != nil {
		t.Error("null в deadline должен очищать срок")
	}
	if req.Description == nil || *req.Description != "monthly" || req.ClearDescription {
		t.Error("Описание потеряно")
	}
	if req.Completed == nil || !*req.Completed {
		t.Error("Флаг completed потерян")
	}
}

func TestUpdateRequestUnmarshalErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"null title", `{"title":null}`, ErrInvalidRequest},
		{"null completed", `{"completed":null}`, ErrInvalidRequest},
		{"unknown field", `{"priority":"high"}`, ErrInvalidRequest},
		{"bad id", `{"id":"seven"}`, ErrInvalidRequest},
		{"bad date", `{"deadline":"tomorrow"}`, models.ErrInvalidDate},
		{"not an object", `null`, ErrInvalidRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var req UpdateTaskRequest
			if err := json.Unmarshal([]byte(c.body), &req); !errors.Is(err, c.want) {
				t.Errorf("Получено %v, ожидалось %v", err, c.want)
			}
		})
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reminder/internal/models"
	"reminder/internal/storage"
)

// run выполняет команду против JSON-файла во временной директории.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func setup(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reminder.json")
	t.Setenv("REMINDER_STORAGE", "json")
	t.Setenv("REMINDER_FILE", path)
	t.Setenv("REDIS_ADDR", "")
	return path
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v (stderr %q)", args, err, errOut)
	}
	return out
}

func TestAddListClear(t *testing.T) {
	setup(t)

	if out := mustRun(t, "list"); out != "No tasks found.\n" {
		t.Errorf("Пустой список: %q", out)
	}
	if out := mustRun(t, "add", "buy", "bread", "--deadline", "2030-05-01"); out != "Task 'buy bread' added.\n" {
		t.Errorf("add: %q", out)
	}
	mustRun(t, "add", "call mom", "--description", "sunday")

	_, errOut, err := run(t, "add", "Buy Bread")
	if !errors.Is(err, errReported) || errOut != "'Buy Bread' already in the list.\n" {
		t.Errorf("Дубликат: err=%v stderr=%q", err, errOut)
	}

	out := mustRun(t, "list")
	if !strings.Contains(out, "1. buy bread") || !strings.Contains(out, "2. call mom") {
		t.Errorf("list: %q", out)
	}
	out = mustRun(t, "list", "--verbose")
	for _, want := range []string{"Task ID:", "Deadline: 2030-05-01", "Description: sunday", "Completed: No"} {
		if !strings.Contains(out, want) {
			t.Errorf("В подробном списке нет %q: %q", want, out)
		}
	}

	if out := mustRun(t, "list", "completed"); out != "No completed tasks found.\n" {
		t.Errorf("Фильтр completed: %q", out)
	}
	if out := mustRun(t, "clear"); out != "Task list cleared.\n" {
		t.Errorf("clear: %q", out)
	}
	if out := mustRun(t, "list"); out != "No tasks found.\n" {
		t.Errorf("После очистки: %q", out)
	}
}

func TestAddInvalidDeadline(t *testing.T) {
	for _, deadline := range []string{"01/02/2030", "", "  "} {
		path := setup(t)

		_, _, err := run(t, "add", "pay rent", "--deadline", deadline)
		if !errors.Is(err, models.ErrInvalidDate) {
			t.Fatalf("--deadline %q: ожидалась ErrInvalidDate, получено %v", deadline, err)
		}
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Errorf("--deadline %q: при неверном сроке ничего не должно записываться", deadline)
		}
	}
}

func TestCompleteAndSuggestions(t *testing.T) {
	setup(t)
	mustRun(t, "add", "buy bread")

	if out := mustRun(t, "complete", "buy brea"); out != "Cannot find buy brea, here are the close matches.\n1. buy bread\n" {
		t.Errorf("Подсказка: %q", out)
	}
	if out := mustRun(t, "complete", "nothing like it"); out != "" {
		t.Errorf("Без совпадений вывод должен быть пустым, получено %q", out)
	}
	if out := mustRun(t, "complete", "BUY BREAD"); out != "Task 'buy bread' marked as completed.\n" {
		t.Errorf("complete: %q", out)
	}
	if out := mustRun(t, "list", "completed"); !strings.Contains(out, "buy bread") {
		t.Errorf("Фильтр completed: %q", out)
	}
	if out := mustRun(t, "incomplete", "buy bread"); out != "Task 'buy bread' marked as incomplete.\n" {
		t.Errorf("incomplete: %q", out)
	}
	if out := mustRun(t, "remove", "buy bread"); out != "Task 'buy bread' removed.\n" {
		t.Errorf("remove: %q", out)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	path := setup(t)
	mustRun(t, "add", "pay rent", "--deadline", "2030-01-01")

	tasks, err := storage.NewJSONStore(path).Load(context.Background())
	if err != nil || len(tasks) != 1 {
		t.Fatalf("Загрузка: %v %v", tasks, err)
	}
	id := tasks[0].ID.String()

	mustRun(t, "update", id, "--title", "pay the rent", "--deadline", "none", "--completed")
	tasks, _ = storage.NewJSONStore(path).Load(context.Background())
	if got := tasks[0]; got.Title != "pay the rent" || got.Deadline != nil || !got.Completed {
		t.Errorf("После обновления: %+v", got)
	}

	_, errOut, err := run(t, "delete", "00000000-0000-0000-0000-000000000001")
	if !errors.Is(err, errReported) || !strings.Contains(errOut, "not found") {
		t.Errorf("Удаление несуществующей: %v %q", err, errOut)
	}
	if _, _, err := run(t, "delete", "seven"); err == nil {
		t.Error("Ожидалась ошибка для неверного ID")
	}
	mustRun(t, "delete", id)
	if out := mustRun(t, "list"); out != "No tasks found.\n" {
		t.Errorf("После удаления: %q", out)
	}
}

func TestExportImport(t *testing.T) {
	setup(t)
	mustRun(t, "add", "a")
	mustRun(t, "add", "b", "--deadline", "2030-02-03")

	out := filepath.Join(t.TempDir(), "backup.yaml")
	mustRun(t, "export", "--out", out)
	mustRun(t, "clear")

	if got := mustRun(t, "import", out); got != "Imported 2 tasks from "+out+".\n" {
		t.Errorf("import: %q", got)
	}
	if got := mustRun(t, "list"); !strings.Contains(got, "1. a") || !strings.Contains(got, "2. b") {
		t.Errorf("После импорта: %q", got)
	}

	if got := mustRun(t, "export", "--format", "csv"); !strings.HasPrefix(got, "id,title,deadline,description,completed\n") {
		t.Errorf("Экспорт в CSV: %q", got)
	}
}

func TestImportYAMLWithoutIDs(t *testing.T) {
	path := setup(t)
	in := filepath.Join(t.TempDir(), "in.yaml")
	if err := os.WriteFile(in, []byte("- title: a\n- title: b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, "import", in)

	tasks, err := storage.NewJSONStore(path).Load(context.Background())
	if err != nil || len(tasks) != 2 {
		t.Fatalf("загрузка: %v %v", tasks, err)
	}
	if tasks[0].ID == tasks[1].ID {
		t.Fatalf("импортированные задачи получили один ID %s", tasks[0].ID)
	}

	mustRun(t, "delete", tasks[1].ID.String())
	if out := mustRun(t, "list"); out != "1. a\n" {
		t.Errorf("после удаления по ID: %q", out)
	}
}

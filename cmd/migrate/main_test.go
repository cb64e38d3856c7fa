package main

import (
	"context"
	"path/filepath"
	"testing"

	"reminder/internal/models"
	"reminder/internal/storage"
)

func TestJSONToSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "reminder.json")
	dbPath := filepath.Join(dir, "reminder.db")

	a, _ := models.New("pay rent")
	b, _ := models.New("call mom")
	if err := storage.NewJSONStore(jsonPath).Save(ctx, []models.Task{a, b}); err != nil {
		t.Fatal(err)
	}

	t.Setenv("REMINDER_STORAGE", "sqlite")
	t.Setenv("REMINDER_DSN", dbPath)

	n, err := run(ctx, "", storage.DriverJSON, jsonPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 2 {
		t.Errorf("Перенесено %d задач, ожидалось 2", n)
	}

	db, err := storage.NewSQLiteStore(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	got, err := db.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != a.ID || !got[1].Equal(b) {
		t.Errorf("Неожиданные задачи %+v", got)
	}
}

func TestSameStoreRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminder.json")
	t.Setenv("REMINDER_STORAGE", "json")
	t.Setenv("REMINDER_FILE", path)

	if _, err := run(context.Background(), "", storage.DriverJSON, path); err == nil {
		t.Fatal("Ожидалась ошибка, когда источник совпадает с целью")
	}
}

package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"reminder/internal/config"
	"reminder/internal/models"
)

func sampleTasks(t *testing.T) []models.Task {
	t.Helper()
	a, _ := models.New("buy bread")
	d := models.NewDate(2024, time.May, 1)
	a.Deadline = &d
	desc := "rye"
	a.Description = &desc

	b, _ := models.New("pay rent")
	b.Completed = true
	return []models.Task{a, b}
}

func assertSameTasks(t *testing.T, got, want []models.Task) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Ожидалось %d задач, получено %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || !got[i].Equal(want[i]) {
			t.Errorf("Задача %d: получено %v, ожидалось %v", i, got[i], want[i])
		}
	}
}

func TestJSONStoreMissingFile(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "reminder.json"))
	tasks, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Ошибка Load: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("Ожидался пустой не-nil список, получено %v", tasks)
	}
}

func TestJSONStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "reminder.json")
	s := NewJSONStore(path)
	want := sampleTasks(t)

	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Ошибка Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Ошибка Load: %v", err)
	}
	assertSameTasks(t, got, want)

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Остались временные файлы: %v", entries)
	}
}

func TestJSONStoreSaveEmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminder.json")
	s := NewJSONStore(path)
	if err := s.Save(context.Background(), nil); err != nil {
		t.Fatalf("Ошибка Save: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Errorf("Ожидалось [], получено %q", raw)
	}
}

func TestJSONStoreCorruptDocumentIsEmpty(t *testing.T) {
	cases := map[string]string{
		"syntax":     "[{not json",
		"not array":  `{"title":"x"}`,
		"bad date":   `[{"title":"x","deadline":"01/02/2024"}]`,
		"bad id":     `[{"id":"nope","title":"x"}]`,
		"whitespace": "   ",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "reminder.json")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			before := testutil.ToFloat64(corruptLoads.WithLabelValues(DriverJSON))

			tasks, err := NewJSONStore(path).Load(context.Background())
			if err != nil {
				t.Fatalf("Поврежденный документ не должен давать ошибку: %v", err)
			}
			if len(tasks) != 0 {
				t.Fatalf("Ожидался пустой список, получено %v", tasks)
			}
			if after := testutil.ToFloat64(corruptLoads.WithLabelValues(DriverJSON)); after != before+1 {
				t.Errorf("Счетчик повреждений: до %v после %v", before, after)
			}
		})
	}
}

func TestJSONStoreOtherReadErrorsPropagate(t *testing.T) {
	// путь указывает на директорию: это не "нет файла" и не "испорчен"
	dir := t.TempDir()
	if _, err := NewJSONStore(dir).Load(context.Background()); err == nil {
		t.Fatal("Ожидалась ошибка, когда путь к документу указывает на директорию")
	}
}

func TestJSONStoreLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminder.json")
	legacy := `[{"task_id":"5f0c6f7e-9d1a-4c55-8f0e-2b7f3a9c1d22","title":"old","deadline":null,"completed":false}]`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	tasks, err := NewJSONStore(path).Load(context.Background())
	if err != nil || len(tasks) != 1 {
		t.Fatalf("Неожиданно: %v %v", tasks, err)
	}
	if tasks[0].ID.String() != "5f0c6f7e-9d1a-4c55-8f0e-2b7f3a9c1d22" {
		t.Errorf("ID из старого формата потерян: %s", tasks[0].ID)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "db", "reminder.db"))
	if err != nil {
		t.Fatalf("Ошибка NewSQLiteStore: %v", err)
	}
	defer s.Close()

	empty, err := s.Load(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("Новая таблица должна загружаться пустой: %v %v", empty, err)
	}

	want := sampleTasks(t)
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Ошибка Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Ошибка Load: %v", err)
	}
	assertSameTasks(t, got, want)

	// перезапись целиком, а не дописывание
	if err := s.Save(ctx, want[1:]); err != nil {
		t.Fatalf("Ошибка Save: %v", err)
	}
	got, _ = s.Load(ctx)
	assertSameTasks(t, got, want[1:])
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, config.StorageConfig{Driver: "json", Path: filepath.Join(dir, "a.json")})
	if err != nil {
		t.Fatalf("Ошибка Open json: %v", err)
	}
	if _, ok := s.(*JSONStore); !ok {
		t.Errorf("Ожидался *JSONStore, получено %T", s)
	}

	s, err = Open(ctx, config.StorageConfig{Driver: "sqlite", DSN: filepath.Join(dir, "a.db")})
	if err != nil {
		t.Fatalf("Ошибка Open sqlite: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("Ожидался *SQLiteStore, получено %T", s)
	}

	if _, err := Open(ctx, config.StorageConfig{Driver: "floppy"}); err == nil {
		t.Error("Неизвестный драйвер должен давать ошибку")
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatYAML, FormatCSV} {
		t.Run(format, func(t *testing.T) {
			want := sampleTasks(t)
			var buf bytes.Buffer
			if err := Encode(&buf, format, want); err != nil {
				t.Fatalf("Ошибка Encode: %v", err)
			}
			got, err := Decode(&buf, format)
			if err != nil {
				t.Fatalf("Ошибка Decode: %v\n%s", err, buf.String())
			}
			assertSameTasks(t, got, want)
		})
	}
}

func TestDecodeYAMLAssignsMissingIDs(t *testing.T) {
	got, err := Decode(strings.NewReader("- title: a\n- title: b\n  deadline: 2030-01-02\n"), FormatYAML)
	if err != nil {
		t.Fatalf("Ошибка Decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Ожидалось 2 задачи, получено %d", len(got))
	}
	if got[0].ID == uuid.Nil || got[1].ID == uuid.Nil || got[0].ID == got[1].ID {
		t.Errorf("Ожидались разные сгенерированные ID, получено %s и %s", got[0].ID, got[1].ID)
	}
	if got[1].Deadline == nil || got[1].Deadline.String() != "2030-01-02" {
		t.Errorf("Срок = %v", got[1].Deadline)
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	if _, err := Decode(strings.NewReader("[{"), FormatJSON); err == nil {
		t.Error("Ожидалась ошибка JSON")
	}
	if _, err := Decode(strings.NewReader("id,title\n1,2\n"), FormatCSV); err == nil {
		t.Error("Ожидалась ошибка числа полей CSV")
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]string{"a.json": FormatJSON, "b.YML": FormatYAML, "c.yaml": FormatYAML, "d.csv": FormatCSV}
	for path, want := range cases {
		if got, err := FormatFromPath(path); err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %q, %v", path, got, err)
		}
	}
	if _, err := FormatFromPath("e.txt"); err == nil {
		t.Error("Ожидалась ошибка для .txt")
	}
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"reminder/internal/logger"
	"reminder/internal/models"
)

const DefaultPath = "reminder.json"

// JSONStore: один JSON-массив в файле.
type JSONStore struct {
	Path string
}

func NewJSONStore(path string) *JSONStore {
	if path == "" {
		path = DefaultPath
	}
	return &JSONStore{Path: path}
}

func (s *JSONStore) Load(ctx context.Context) ([]models.Task, error) {
	defer observe(DriverJSON, "load", time.Now())

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Task{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return []models.Task{}, nil
	}

	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		// испорченный документ считаем пустым
		corruptLoads.WithLabelValues(DriverJSON).Inc()
		logger.Warn(ctx, "task document is malformed, starting empty", "path", s.Path, "err", err)
		return []models.Task{}, nil
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *JSONStore) Save(ctx context.Context, tasks []models.Task) error {
	defer observe(DriverJSON, "save", time.Now())

	if tasks == nil {
		tasks = []models.Task{}
	}
	raw, err := json.MarshalIndent(tasks, "", "    ")
	if err != nil {
		return err
	}
	return atomicWriteFile(s.Path, raw, 0o644)
}

func (s *JSONStore) Close() error { return nil }

// atomicWriteFile пишет во временный файл рядом и переименовывает:
// читатель видит либо старый документ, либо новый.
func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

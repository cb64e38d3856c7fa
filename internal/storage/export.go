package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"reminder/internal/models"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// FormatFromPath определяет формат по расширению файла.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported file format %q, use .json, .yaml or .csv", filepath.Ext(path))
	}
}

// Encode пишет задачи в выбранном формате.
func Encode(w io.Writer, format string, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(tasks)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tasks); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return encodeCSV(w, tasks)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// Decode читает задачи. В отличие от Store.Load, ошибки формата возвращаются.
func Decode(r io.Reader, format string) ([]models.Task, error) {
	var tasks []models.Task
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&tasks); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&tasks); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		// YAML идет мимо Task.UnmarshalJSON: ID без значения выдаем здесь
		for i := range tasks {
			if tasks[i].ID == uuid.Nil {
				tasks[i].ID = uuid.New()
			}
		}
	case FormatCSV:
		return decodeCSV(r)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

var csvHeader = []string{"id", "title", "deadline", "description", "completed"}

func encodeCSV(w io.Writer, tasks []models.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		var deadline, description string
		if t.Deadline != nil {
			deadline = t.Deadline.String()
		}
		if t.Description != nil {
			description = *t.Description
		}
		record := []string{t.ID.String(), t.Title, deadline, description, strconv.FormatBool(t.Completed)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// decodeCSV: пустые deadline/description читаются как отсутствующие.
func decodeCSV(r io.Reader) ([]models.Task, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	tasks := []models.Task{}
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == csvHeader[0] {
			continue
		}
		if len(rec) != len(csvHeader) {
			return nil, fmt.Errorf("decode csv: line %d: expected %d fields, got %d", i+1, len(csvHeader), len(rec))
		}
		raw := map[string]any{"id": rec[0], "title": rec[1], "deadline": nil, "description": nil}
		if rec[2] != "" {
			raw["deadline"] = rec[2]
		}
		if rec[3] != "" {
			raw["description"] = rec[3]
		}
		completed, err := strconv.ParseBool(rec[4])
		if err != nil {
			return nil, fmt.Errorf("decode csv: line %d: %w", i+1, err)
		}
		raw["completed"] = completed

		// через JSON-форму, чтобы правила разбора были одни
		b, _ := json.Marshal(raw)
		var t models.Task
		if err := json.Unmarshal(b, &t); err != nil {
			return nil, fmt.Errorf("decode csv: line %d: %w", i+1, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

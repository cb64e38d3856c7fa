// Package resolver находит задачу по названию: сначала точное совпадение
// без учета регистра, затем список похожих названий для подсказки.
package resolver

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"reminder/internal/models"
)

// Threshold: минимальная похожесть для подсказки.
const Threshold = 0.9

// Candidate: похожая задача и ее оценка.
type Candidate struct {
	Task  models.Task
	Score float64
}

// Report: результат нечеткого поиска.
// Found: единственный кандидат совпадает с запросом без учета регистра.
// Пустой Matches без Found: ничего не выводится.
type Report struct {
	Query   string
	Found   bool
	Matches []Candidate
}

// Empty: нечего сообщать пользователю.
func (r Report) Empty() bool {
	return !r.Found && len(r.Matches) == 0
}

// FindExact возвращает первую задачу с таким же названием без учета регистра.
func FindExact(query string, tasks []models.Task) (models.Task, bool) {
	for _, t := range tasks {
		if strings.EqualFold(query, t.Title) {
			return t, true
		}
	}
	return models.Task{}, false
}

// IndexExact как FindExact, но возвращает позицию (-1 если нет).
func IndexExact(query string, tasks []models.Task) int {
	for i, t := range tasks {
		if strings.EqualFold(query, t.Title) {
			return i
		}
	}
	return -1
}

func FindSimilar(query string, tasks []models.Task) Report {
	report := Report{Query: query}
	for _, t := range tasks {
		score := Ratio(query, t.Title)
		if score >= Threshold {
			report.Matches = append(report.Matches, Candidate{Task: t, Score: score})
		}
	}
	sort.SliceStable(report.Matches, func(i, j int) bool {
		return report.Matches[i].Score > report.Matches[j].Score
	})

	if len(report.Matches) == 1 && strings.EqualFold(report.Matches[0].Task.Title, query) {
		report.Found = true
		report.Matches = nil
	}
	return report
}

// WriteTo печатает отчет. Пустой отчет ничего не пишет.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	if r.Empty() {
		return 0, nil
	}
	var b strings.Builder
	if r.Found {
		fmt.Fprintf(&b, "'%s' found in the list.\n", r.Query)
	} else {
		fmt.Fprintf(&b, "Cannot find %s, here are the close matches.\n", r.Query)
		for i, m := range r.Matches {
			fmt.Fprintf(&b, "%d. %s\n", i+1, m.Task.Title)
		}
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func (r Report) String() string {
	var b strings.Builder
	_, _ = r.WriteTo(&b)
	return b.String()
}

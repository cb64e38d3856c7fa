package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"reminder/internal/logger"
	"reminder/internal/models"
	"reminder/internal/resolver"
	"reminder/internal/storage"
)

var (
	taskOpCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_task_operations_total",
			Help: "Total number of task operations by outcome",
		},
		[]string{"op", "status"},
	)

	taskOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reminder_task_operation_duration_seconds",
			Help:    "Duration of a load-mutate-save cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	fuzzyLookupCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_fuzzy_lookups_total",
			Help: "Title lookups that fell back to similarity matching",
		},
		[]string{"outcome"},
	)

	taskTitleLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reminder_task_title_length_bytes",
			Help:    "Length distribution of added task titles",
			Buckets: []float64{10, 50, 100, 500},
		},
	)
)

// Filter: выборка для ListTasks.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterOverdue    Filter = "overdue"
	FilterCompleted  Filter = "completed"
	FilterIncomplete Filter = "incomplete"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterOverdue, FilterCompleted, FilterIncomplete:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown filter %q (use overdue, completed or incomplete)", ErrInvalidRequest, s)
	}
}

func (f Filter) match(t models.Task) bool {
	switch f {
	case FilterOverdue:
		return models.Overdue(t.Deadline)
	case FilterCompleted:
		return t.Completed
	case FilterIncomplete:
		return !t.Completed
	default:
		return true
	}
}

// Resolution: итог команды, адресованной по названию. При промахе Task пуст,
// а Report содержит подсказки (может быть пустым).
type Resolution struct {
	Task   models.Task
	Hit    bool
	Report resolver.Report
}

// TaskManager выполняет команды над хранилищем, каждая за один цикл
// load → изменение → save. Мьютекс сериализует циклы внутри процесса;
// между процессами побеждает последняя запись.
type TaskManager struct {
	store storage.Store
	audit AuditLogger
	mu    sync.Mutex
}

type Option func(*TaskManager)

func WithAudit(a AuditLogger) Option {
	return func(tm *TaskManager) { tm.audit = a }
}

func NewTaskManager(store storage.Store, opts ...Option) *TaskManager {
	tm := &TaskManager{store: store}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

func track(op string) func(err *error) {
	start := time.Now()
	return func(err *error) {
		taskOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		status := "success"
		if *err != nil {
			status = "error"
		}
		taskOpCount.WithLabelValues(op, status).Inc()
	}
}

func (tm *TaskManager) AddTask(ctx context.Context, req CreateTaskRequest) (task models.Task, err error) {
	defer track("add")(&err)

	task, err = models.New(req.Title)
	if err != nil {
		return models.Task{}, err
	}
	task.Deadline = req.Deadline
	task.Description = req.Description
	task.Completed = req.Completed

	tm.mu.Lock()
	defer tm.mu.Unlock()

	tasks, err := tm.store.Load(ctx)
	if err != nil {
		return models.Task{}, err
	}
	if _, found := resolver.FindExact(task.Title, tasks); found {
		return models.Task{}, fmt.Errorf("%w: '%s' already in the list", ErrDuplicateTitle, task.Title)
	}

	tasks = append(tasks, task)
	if err := tm.store.Save(ctx, tasks); err != nil {
		return models.Task{}, err
	}

	taskTitleLength.Observe(float64(len(task.Title)))
	logger.Debug(ctx, "task added", "id", task.ID, "title", task.Title)
	tm.emit(ctx, "add", task.ID, nil, &task)
	return task, nil
}

func (tm *TaskManager) GetTask(ctx context.Context, id uuid.UUID) (models.Task, error) {
	tasks, err := tm.store.Load(ctx)
	if err != nil {
		return models.Task{}, err
	}
	if i := indexByID(tasks, id); i >= 0 {
		return tasks[i], nil
	}
	return models.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (tm *TaskManager) ListTasks(ctx context.Context, filter Filter) ([]models.Task, error) {
	tasks, err := tm.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// RemoveTask удаляет задачу по названию. При промахе коллекция не меняется,
// но все равно перезаписывается.
func (tm *TaskManager) RemoveTask(ctx context.Context, query string) (res Resolution, err error) {
	defer track("remove")(&err)

	tm.mu.Lock()
	defer tm.mu.Unlock()

	tasks, err := tm.store.Load(ctx)
	if err != nil {
		return Resolution{}, err
	}

	if i := resolver.IndexExact(query, tasks); i >= 0 {
		res = Resolution{Task: tasks[i], Hit: true}
		tasks = append(tasks[:i], tasks[i+1:]...)
	} else {
		res = tm.suggest(query, tasks)
	}

	if err := tm.store.Save(ctx, tasks); err != nil {
		return Resolution{}, err
	}
	if res.Hit {
		tm.emit(ctx, "remove", res.Task.ID, &res.Task, nil)
	}
	return res, nil
}

func (tm *TaskManager) CompleteTask(ctx context.Context, query string) (res Resolution, err error) {
	defer track("complete")(&err)
	return tm.setCompleted(ctx, "complete", query, true)
}

func (tm *TaskManager) IncompleteTask(ctx context.Context, query string) (res Resolution, err error) {
	defer track("incomplete")(&err)
	return tm.setCompleted(ctx, "incomplete", query, false)
}

func (tm *TaskManager) setCompleted(ctx context.Context, op, query string, completed bool) (Resolution, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tasks, err := tm.store.Load(ctx)
	if err != nil {
		return Resolution{}, err
	}

	var res Resolution
	var before models.Task
	if i := resolver.IndexExact(query, tasks); i >= 0 {
		before = tasks[i]
		tasks[i].Completed = completed
		res = Resolution{Task: tasks[i], Hit: true}
	} else {
		res = tm.suggest(query, tasks)
	}

	if err := tm.store.Save(ctx, tasks); err != nil {
		return Resolution{}, err
	}
	if res.Hit {
		tm.emit(ctx, op, res.Task.ID, &before, &res.Task)
	}
	return res, nil
}

func (tm *TaskManager) suggest(query string, tasks []models.Task) Resolution {
	report := resolver.FindSimilar(query, tasks)
	switch {
	case report.Found:
		fuzzyLookupCount.WithLabelValues("found").Inc()
	case len(report.Matches) > 0:
		fuzzyLookupCount.WithLabelValues("suggested").Inc()
	default:
		fuzzyLookupCount.WithLabelValues("none").Inc()
	}
	return Resolution{Report: report}
}

// UpdateTask заменяет задачу по ID; поля, которых нет в запросе, остаются прежними.
func (tm *TaskManager) UpdateTask(ctx context.Context, id uuid.UUID, req UpdateTaskRequest) (task models.Task, err error) {
	defer track("update")(&err)

	if req.ID != nil && *req.ID != id {
		return models.Task{}, ErrIDMismatch
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	tasks, err := tm.store.Load(ctx)
	if err != nil {
		return models.Task{}, err
	}
	i := indexByID(tasks, id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	before := tasks[i]
	updated, err := req.apply(before)
	if err != nil {
		return models.Task{}, err
	}
	tasks[i] = updated

	if err := tm.store.Save(ctx, tasks); err != nil {
		return models.Task{}, err
	}
	tm.emit(ctx, "update", id, &before, &updated)
	return updated, nil
}

func (tm *TaskManager) DeleteTask(ctx context.Context, id uuid.UUID) (err error) {
	defer track("delete")(&err)

	tm.mu.Lock()
	defer tm.mu.Unlock()

	tasks, err := tm.store.Load(ctx)
	if err != nil {
		return err
	}
	i := indexByID(tasks, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	deleted := tasks[i]
	tasks = append(tasks[:i], tasks[i+1:]...)
	if err := tm.store.Save(ctx, tasks); err != nil {
		return err
	}
	tm.emit(ctx, "delete", id, &deleted, nil)
	return nil
}

func (tm *TaskManager) ClearTasks(ctx context.Context) (err error) {
	defer track("clear")(&err)

	tm.mu.Lock()
	defer tm.mu.Unlock()

	if err := tm.store.Save(ctx, []models.Task{}); err != nil {
		return err
	}
	tm.emit(ctx, "clear", uuid.Nil, nil, nil)
	return nil
}

// ReplaceTasks заменяет всю коллекцию (импорт). Названия должны быть
// уникальны без учета регистра, ID уникальны и заданы.
func (tm *TaskManager) ReplaceTasks(ctx context.Context, tasks []models.Task) (err error) {
	defer track("replace")(&err)

	ids := make(map[uuid.UUID]struct{}, len(tasks))
	for i, t := range tasks {
		if _, err := models.New(t.Title); err != nil {
			return fmt.Errorf("task %d: %w", i+1, err)
		}
		if j := resolver.IndexExact(t.Title, tasks[:i]); j >= 0 {
			return fmt.Errorf("%w: '%s' appears twice", ErrDuplicateTitle, t.Title)
		}
		if t.ID == uuid.Nil {
			return fmt.Errorf("%w: task %d has no id", ErrInvalidRequest, i+1)
		}
		if _, dup := ids[t.ID]; dup {
			return fmt.Errorf("%w: id %s appears twice", ErrInvalidRequest, t.ID)
		}
		ids[t.ID] = struct{}{}
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	if err := tm.store.Save(ctx, tasks); err != nil {
		return err
	}
	tm.emit(ctx, "replace", uuid.Nil, nil, nil)
	return nil
}

// Ready проверяет, что хранилище читается.
func (tm *TaskManager) Ready(ctx context.Context) error {
	_, err := tm.store.Load(ctx)
	return err
}

func indexByID(tasks []models.Task, id uuid.UUID) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

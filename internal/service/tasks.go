package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/tareas/internal/models"
)

type tasksCollection interface {
	Read(ctx context.Context) ([]models.Task, error)
	Mutate(ctx context.Context, fn func(records []models.Task) ([]models.Task, error)) error
}

// TaskRepository is the CRUD surface over the shared task list.
// All authenticated users see and edit the same tasks.
type TaskRepository struct {
	tasks tasksCollection
	now   func() time.Time
}

type TaskRepositoryOption func(*TaskRepository)

// WithClock replaces the time source used to derive task ids.
func WithClock(now func() time.Time) TaskRepositoryOption {
	return func(repository *TaskRepository) {
		repository.now = now
	}
}

func NewTaskRepository(tasks tasksCollection, optionsProto ...TaskRepositoryOption) *TaskRepository {
	repository := &TaskRepository{
		tasks: tasks,
		now:   time.Now,
	}
	for _, protoOption := range optionsProto {
		protoOption(repository)
	}

	return repository
}

// List returns the whole collection as stored.
func (r *TaskRepository) List(ctx context.Context) ([]models.Task, error) {
	return r.tasks.Read(ctx)
}

// Create appends a task whose id is the current time in milliseconds.
// When that id is already taken the next free value is used instead.
func (r *TaskRepository) Create(ctx context.Context, request models.TaskRequest) (*models.Task, error) {
	if err := validateRequired(request); err != nil {
		return nil, err
	}

	var created models.Task
	err := r.tasks.Mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		created = models.Task{
			ID:          nextID(tasks, r.now().UnixMilli()),
			Title:       request.Title,
			Description: request.Description,
		}

		return append(tasks, created), nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// Update replaces title and description of the task matching id, keeping its id.
// id is the raw path value and is compared numerically, so "0042" matches 42.
func (r *TaskRepository) Update(ctx context.Context, id string, request models.TaskRequest) (*models.Task, error) {
	var updated models.Task
	err := r.tasks.Mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		found := false
		for i := range tasks {
			if !matchesID(tasks[i].ID, id) {
				continue
			}
			found = true
			tasks[i].Title = request.Title
			tasks[i].Description = request.Description
			updated = tasks[i]
		}
		if !found {
			return nil, ErrNotFound
		}

		return tasks, nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete removes every task matching id.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.tasks.Mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		kept := funk.Filter(tasks, func(task models.Task) bool {
			return !matchesID(task.ID, id)
		}).([]models.Task)

		if len(kept) == len(tasks) {
			return nil, ErrNotFound
		}

		return kept, nil
	})
}

func nextID(tasks []models.Task, candidate int64) int64 {
	taken := make(map[int64]struct{}, len(tasks))
	for _, task := range tasks {
		taken[task.ID] = struct{}{}
	}
	for {
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
		candidate++
	}
}

// matchesID compares a stored id with its textual form the way a loose
// numeric comparison does: surrounding blanks are ignored, an empty string
// counts as zero, and any decimal notation of the same number matches.
func matchesID(stored int64, raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return stored == 0
	}
	if raw == strconv.FormatInt(stored, 10) {
		return true
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}

	return value == float64(stored)
}

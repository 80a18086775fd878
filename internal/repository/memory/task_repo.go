package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/autotask/internal/domain"
	"github.com/vedran77/autotask/internal/repository"
)

type TaskRepo struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task
}

func NewTaskRepo() *TaskRepo {
	return &TaskRepo{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[t.ID] = cloneTask(t)
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, nil
	}
	return cloneTask(t), nil
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Task, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := []domain.Task{}
	for _, t := range r.tasks {
		if t.OwnerID == ownerID {
			tasks = append(tasks, *cloneTask(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (r *TaskRepo) Update(ctx context.Context, t *domain.Task) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tasks[t.ID]
	if !ok || current.OwnerID != t.OwnerID {
		return repository.ErrNotFound
	}
	next := cloneTask(t)
	next.CreatedAt = current.CreatedAt
	r.tasks[t.ID] = next
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return false, nil
	}
	delete(r.tasks, id)
	return true, nil
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	c.Tags = append([]string{}, t.Tags...)
	c.AISuggestedActions = append([]string(nil), t.AISuggestedActions...)
	c.AITaskType = cloneString(t.AITaskType)
	if t.AIConfidence != nil {
		v := *t.AIConfidence
		c.AIConfidence = &v
	}
	if t.DueDate != nil {
		v := *t.DueDate
		c.DueDate = &v
	}
	return &c
}

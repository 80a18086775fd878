package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/autotask/internal/domain"
	"github.com/vedran77/autotask/internal/logging"
	"github.com/vedran77/autotask/internal/repository"
)

var ErrTaskNotFound = errors.New("task not found")

// Predictor classifies a task description.
type Predictor interface {
	Predict(ctx context.Context, description string) (*domain.Prediction, error)
}

// TaskNotifier pushes task changes to the owner's live connections.
type TaskNotifier interface {
	NotifyTaskCreated(task *domain.Task)
	NotifyTaskUpdated(task *domain.Task)
	NotifyTaskDeleted(ownerID, taskID uuid.UUID)
}

type TaskService struct {
	taskRepo  repository.TaskRepository
	predictor Predictor
	notifier  TaskNotifier
	logger    logging.Logger
}

func NewTaskService(taskRepo repository.TaskRepository, predictor Predictor, logger logging.Logger) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		predictor: predictor,
		logger:    logger,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *TaskService) SetNotifier(n TaskNotifier) {
	s.notifier = n
}

type CreateTaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags"`
}

type UpdateTaskInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags"`
}

func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, input CreateTaskInput) (*domain.Task, error) {
	status := input.Status
	if status == "" {
		status = domain.TaskStatusPending
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}

	now := time.Now()
	task := &domain.Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
		Tags:        trimTags(input.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.classify(ctx, task)

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyTaskCreated(task)
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Task, error) {
	return s.taskRepo.ListByOwner(ctx, ownerID)
}

func (s *TaskService) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, ownerID, taskID uuid.UUID, input UpdateTaskInput) (*domain.Task, error) {
	task, err := s.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Tags != nil {
		task.Tags = trimTags(input.Tags)
	}
	if input.Description != nil {
		task.Description = *input.Description
		s.classify(ctx, task)
	}
	task.UpdatedAt = time.Now()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("updating task: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyTaskUpdated(task)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	deleted, err := s.taskRepo.Delete(ctx, ownerID, taskID)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if !deleted {
		return ErrTaskNotFound
	}

	if s.notifier != nil {
		s.notifier.NotifyTaskDeleted(ownerID, taskID)
	}
	return nil
}

// classify attaches a prediction when one is available. A failing
// classifier never blocks the write.
func (s *TaskService) classify(ctx context.Context, task *domain.Task) {
	if s.predictor == nil || strings.TrimSpace(task.Description) == "" {
		return
	}

	prediction, err := s.predictor.Predict(ctx, task.Description)
	if err != nil {
		s.logger.Warn(ctx, "task classification failed", "task_id", task.ID, "err", err)
		return
	}
	prediction.Apply(task)
}

func trimTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

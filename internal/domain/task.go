package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

type Task struct {
	ID                 uuid.UUID  `json:"id"`
	OwnerID            uuid.UUID  `json:"owner_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	Tags               []string   `json:"tags"`
	AITaskType         *string    `json:"ai_task_type,omitempty"`
	AIConfidence       *float64   `json:"ai_confidence,omitempty"`
	AISuggestedActions []string   `json:"ai_suggested_actions,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Prediction is the classifier's verdict for a task description.
type Prediction struct {
	TaskType         string   `json:"task_type"`
	Confidence       float64  `json:"confidence"`
	SuggestedActions []string `json:"suggested_actions"`
}

// Apply copies the prediction onto the task's AI fields.
func (p *Prediction) Apply(t *Task) {
	taskType := p.TaskType
	confidence := p.Confidence
	t.AITaskType = &taskType
	t.AIConfidence = &confidence
	t.AISuggestedActions = append([]string(nil), p.SuggestedActions...)
}

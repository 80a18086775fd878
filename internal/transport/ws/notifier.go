package ws

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedran77/autotask/internal/domain"
	"github.com/vedran77/autotask/internal/logging"
)

// HubNotifier implements service.TaskNotifier on top of the Hub.
type HubNotifier struct {
	hub    *Hub
	logger logging.Logger
}

func NewHubNotifier(hub *Hub, logger logging.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, logger: logger}
}

func (n *HubNotifier) NotifyTaskCreated(task *domain.Task) {
	n.send(task.OwnerID, EventTypeTaskCreated, TaskPayload{Task: *task})
}

func (n *HubNotifier) NotifyTaskUpdated(task *domain.Task) {
	n.send(task.OwnerID, EventTypeTaskUpdated, TaskPayload{Task: *task})
}

func (n *HubNotifier) NotifyTaskDeleted(ownerID, taskID uuid.UUID) {
	n.send(ownerID, EventTypeTaskDeleted, TaskDeletedPayload{ID: taskID})
}

func (n *HubNotifier) send(ownerID uuid.UUID, eventType string, payload any) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		n.logger.Error(context.Background(), "ws notifier marshal failed", "type", eventType, "err", err)
		return
	}
	n.hub.SendToAccount(ownerID, evt)
}

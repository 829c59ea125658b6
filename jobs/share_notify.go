package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// TaskShareNotify notifies a user that a document was shared with them.
	TaskShareNotify = "document:share_notify"
)

// ShareNotifyPayload carries the share event details.
type ShareNotifyPayload struct {
	DocumentID   string   `json:"document_id"`
	DocumentName string   `json:"document_name"`
	SharedBy     string   `json:"shared_by"`
	TargetEmail  string   `json:"target_email"`
	Actions      []string `json:"actions"`
}

// NewShareNotifyTask constructs an Asynq task for a share notification.
func NewShareNotifyTask(payload ShareNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShareNotify, body, asynq.Queue(QueueDefault)), nil
}

// HandleShareNotifyTask delivers the notification as a transactional email.
func HandleShareNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload ShareNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	email := SendEmailPayload{
		To:      payload.TargetEmail,
		Subject: fmt.Sprintf("%q was shared with you", payload.DocumentName),
		Body:    fmt.Sprintf("You can now %s this document.", strings.Join(payload.Actions, ", ")),
	}
	return HandleSendEmailTask(ctx, mustEmailTask(email))
}

func mustEmailTask(payload SendEmailPayload) *asynq.Task {
	task, err := NewSendEmailTask(payload)
	if err != nil {
		panic(err)
	}
	return task
}

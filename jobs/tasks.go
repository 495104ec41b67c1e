// Package jobs defines the background task types and the asynq worker that
// processes them.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for outbound notification email.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeClaimsSync is the task type for per-user permission claim
	// propagation.
	TaskTypeClaimsSync = "claims:sync"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ClaimsSyncPayload identifies the user whose cached permissions and token
// claims must be reconciled with the committed override config.
type ClaimsSyncPayload struct {
	UID string `json:"uid"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewClaimsSyncTask constructs an Asynq task.
func NewClaimsSyncTask(payload ClaimsSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeClaimsSync, data, asynq.MaxRetry(10)), nil
}

// SendEmailHandler returns the TaskTypeSendEmail handler. Delivery is out of
// scope; the handler drains the queue and logs the send.
func SendEmailHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("send email",
			slog.String("to", payload.To),
			slog.String("subject", payload.Subject))
		return nil
	}
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueSendEmail enqueues a send-email task.
func (c *Client) EnqueueSendEmail(ctx context.Context, to, subject, body string) error {
	task, err := NewSendEmailTask(SendEmailPayload{To: to, Subject: subject, Body: body})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// EnqueueClaimsSync enqueues a durable claim propagation task for one user.
func (c *Client) EnqueueClaimsSync(ctx context.Context, uid string) error {
	task, err := NewClaimsSyncTask(ClaimsSyncPayload{UID: uid})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

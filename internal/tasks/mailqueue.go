package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/localspace/internal/mail"
	"github.com/hugh/localspace/pkg/crypto"
	"github.com/hugh/localspace/pkg/queue"
)

// Enqueuer is the subset of *asynq.Client the mail queue needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// MailQueue is the mail.Mailer used by the API: it seals each message and
// enqueues an email:send task.
type MailQueue struct {
	client    Enqueuer
	encryptor *crypto.Encryptor
}

func NewMailQueue(client Enqueuer, encryptor *crypto.Encryptor) *MailQueue {
	return &MailQueue{client: client, encryptor: encryptor}
}

func (q *MailQueue) Queue(ctx context.Context, msg mail.Message) error {
	sealed, err := q.encryptor.Seal(msg)
	if err != nil {
		return fmt.Errorf("seal mail: %w", err)
	}

	task, err := NewSendEmailTask(SendEmailPayload{Sealed: sealed})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	_, err = q.client.EnqueueContext(ctx, task,
		asynq.Queue(queue.QueueMail),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	return nil
}

var _ mail.Mailer = (*MailQueue)(nil)

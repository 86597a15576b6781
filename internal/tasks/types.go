package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeSendEmail   = "email:send"
	TypePruneTokens = "tokens:prune"
)

// SendEmailPayload carries an age-sealed mail.Message. Messages contain
// single-use links, so they never sit in Redis in the clear.
type SendEmailPayload struct {
	Sealed []byte `json:"sealed"`
}

func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSendEmail, data), nil
}

// PruneTokensPayload is empty; the task deletes everything already expired.
type PruneTokensPayload struct{}

func NewPruneTokensTask() (*asynq.Task, error) {
	data, err := json.Marshal(PruneTokensPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePruneTokens, data), nil
}

package mail

import "context"

// Inline renders and sends in the calling goroutine. The server falls back to
// it when no queue is reachable.
type Inline struct {
	renderer *Renderer
	sender   Sender
}

func NewInline(renderer *Renderer, sender Sender) *Inline {
	return &Inline{renderer: renderer, sender: sender}
}

func (m *Inline) Queue(ctx context.Context, msg Message) error {
	subject, body, err := m.renderer.Render(msg)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg.To, subject, body)
}

var _ Mailer = (*Inline)(nil)

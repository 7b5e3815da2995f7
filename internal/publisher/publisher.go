// Package publisher defines the run-completion notification contract.
package publisher

import "context"

// Publisher pushes run-completion events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// NoOp discards events.
type NoOp struct{}

// Publish does nothing.
func (NoOp) Publish(_ context.Context, _ string, _ any) (string, error) {
	return "", nil
}

package noop

import (
	"context"

	"studio_billing/internal/mq"
)

// Publisher implements mq.Publisher without talking to a broker. Used in
// dev and test modes.
type Publisher struct{}

// NewPublisher creates a new NoOp Publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish does nothing and returns nil.
func (p *Publisher) Publish(ctx context.Context, topic string, body []byte) error {
	return nil
}

// Close does nothing.
func (p *Publisher) Close() {
}

var _ mq.Publisher = (*Publisher)(nil)

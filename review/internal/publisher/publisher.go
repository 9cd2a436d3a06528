// Package publisher emits the officer decisions made in review.
package publisher

import (
	"context"

	"github.com/lendline/lendline-stack/common/events"
	"github.com/lendline/lendline-stack/common/models"
)

// Sender is satisfied by *events.Publisher.
type Sender interface {
	Publish(ctx context.Context, env events.Envelope)
}

// Publisher turns committed status changes into envelopes.
type Publisher struct {
	sender Sender
}

// NewPublisher creates a new review publisher.
func NewPublisher(sender Sender) *Publisher {
	return &Publisher{sender: sender}
}

// LoanStatusChanged publishes the move of a from old to its current status.
func (p *Publisher) LoanStatusChanged(ctx context.Context, a *models.LoanApplication, old models.LoanStatus) {
	p.sender.Publish(ctx, events.NewLoanStatusUpdate(a, old))
}

// DocumentStatusChanged publishes the move of d from old to its current status.
func (p *Publisher) DocumentStatusChanged(ctx context.Context, d *models.Document, old models.DocumentStatus) {
	p.sender.Publish(ctx, events.NewDocumentStatusUpdate(d, old))
}

// Package publisher emits the origination domain events.
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

// Publisher converts stored entities into envelopes. Every method is
// fire-and-forget; delivery outcomes are only logged by the sender.
type Publisher struct {
	sender Sender
}

// NewPublisher creates a new origination publisher.
func NewPublisher(sender Sender) *Publisher {
	return &Publisher{sender: sender}
}

// BorrowerCreated publishes a borrower created event.
func (p *Publisher) BorrowerCreated(ctx context.Context, b *models.Borrower) {
	p.sender.Publish(ctx, events.NewBorrowerCreated(b))
}

// LoanApplicationCreated publishes a loan application event.
func (p *Publisher) LoanApplicationCreated(ctx context.Context, a *models.LoanApplication) {
	p.sender.Publish(ctx, events.NewLoanApplicationEvent(a))
}

// DocumentUploaded publishes a document uploaded event.
func (p *Publisher) DocumentUploaded(ctx context.Context, d *models.Document) {
	p.sender.Publish(ctx, events.NewDocumentUploaded(d))
}

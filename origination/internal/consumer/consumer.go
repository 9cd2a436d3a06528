// Package consumer applies officer status decisions made in review to the
// records origination owns.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lendline/lendline-stack/common/config"
	"github.com/lendline/lendline-stack/common/events"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/messaging"
	"github.com/lendline/lendline-stack/common/metrics"
	"github.com/lendline/lendline-stack/common/models"
	"github.com/lendline/lendline-stack/origination/internal/repository"
)

// Consumer holds the status-update handlers.
type Consumer struct {
	repo   repository.Repository
	parse  events.TimeParser
	logger *logging.Logger
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithClock sets the clock used for unparseable envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Consumer) { c.parse = events.StrictTime(now) }
}

// New creates a Consumer.
func New(repo repository.Repository, logger *logging.Logger, opts ...Option) *Consumer {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Consumer{
		repo:   repo,
		parse:  events.StrictTime(time.Now),
		logger: logger.With("component", "consumer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Routes binds the status handlers to their channels.
func (c *Consumer) Routes(ch config.ChannelsConfig) []events.Route {
	return []events.Route{
		{
			Channel: ch.LoanStatus,
			New:     func() events.Envelope { return &events.LoanStatusUpdate{} },
			Handle:  c.HandleLoanStatus,
		},
		{
			Channel: ch.DocumentsStatus,
			New:     func() events.Envelope { return &events.DocumentStatusUpdate{} },
			Handle:  c.HandleDocumentStatus,
		},
	}
}

// HandleLoanStatus overwrites the status of the targeted application when the
// event's borrower owns it.
func (c *Consumer) HandleLoanStatus(ctx context.Context, env events.Envelope, _ *messaging.Message) error {
	e, ok := env.(*events.LoanStatusUpdate)
	if !ok {
		return fmt.Errorf("%w: unexpected %s", events.ErrDecode, env.Kind())
	}

	status, err := models.ParseLoanStatus(e.NewStatus)
	if err != nil {
		return fmt.Errorf("%w: %v", events.ErrDecode, err)
	}

	app, err := c.repo.GetApplication(ctx, e.ApplicationID)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return fmt.Errorf("status update for loan application %d: %w", e.ApplicationID, events.ErrParentNotFound)
		}
		return fmt.Errorf("load loan application %d: %w", e.ApplicationID, err)
	}

	logger := c.logger.With(logging.ApplicationID(app.ID), logging.BorrowerID(e.BorrowerID))
	if app.BorrowerID != e.BorrowerID {
		logger.WarnContext(ctx, "status update borrower does not own loan application",
			"owner_id", app.BorrowerID,
			"new_status", e.NewStatus,
		)
		return fmt.Errorf("loan application %d owned by borrower %d, event names %d: %w",
			app.ID, app.BorrowerID, e.BorrowerID, events.ErrOwnershipMismatch)
	}

	old := app.Status
	app.ApplyStatus(status, e.Change(c.parse))
	if err := c.repo.UpdateApplicationStatus(ctx, app); err != nil {
		return fmt.Errorf("update loan application %d: %w", app.ID, err)
	}

	metrics.StatusChanges.WithLabelValues("loan_application", string(status)).Inc()
	logger.InfoContext(ctx, "applied loan status update",
		"old_status", old,
		"new_status", status,
		"updated_by", app.StatusUpdatedBy,
	)
	return nil
}

// HandleDocumentStatus overwrites the status of the targeted document when the
// event's borrower owns it.
func (c *Consumer) HandleDocumentStatus(ctx context.Context, env events.Envelope, _ *messaging.Message) error {
	e, ok := env.(*events.DocumentStatusUpdate)
	if !ok {
		return fmt.Errorf("%w: unexpected %s", events.ErrDecode, env.Kind())
	}

	status, err := models.ParseDocumentStatus(e.NewStatus)
	if err != nil {
		return fmt.Errorf("%w: %v", events.ErrDecode, err)
	}

	doc, err := c.repo.GetDocument(ctx, e.DocumentID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return fmt.Errorf("status update for document %d: %w", e.DocumentID, events.ErrParentNotFound)
		}
		return fmt.Errorf("load document %d: %w", e.DocumentID, err)
	}

	logger := c.logger.With(logging.DocumentID(doc.ID), logging.BorrowerID(e.BorrowerID))
	if doc.BorrowerID != e.BorrowerID {
		logger.WarnContext(ctx, "status update borrower does not own document",
			"owner_id", doc.BorrowerID,
			"new_status", e.NewStatus,
		)
		return fmt.Errorf("document %d owned by borrower %d, event names %d: %w",
			doc.ID, doc.BorrowerID, e.BorrowerID, events.ErrOwnershipMismatch)
	}

	old := doc.Status
	doc.ApplyStatus(status, e.Change(c.parse))
	if err := c.repo.UpdateDocumentStatus(ctx, doc); err != nil {
		return fmt.Errorf("update document %d: %w", doc.ID, err)
	}

	metrics.StatusChanges.WithLabelValues("document", string(status)).Inc()
	logger.InfoContext(ctx, "applied document status update",
		"old_status", old,
		"new_status", status,
		"updated_by", doc.StatusUpdatedBy,
	)
	return nil
}

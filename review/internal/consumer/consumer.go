// Package consumer keeps the review replicas of borrowers, loan applications
// and documents in step with origination.
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
	"github.com/lendline/lendline-stack/review/internal/repository"
)

// Consumer holds the replication handlers.
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

// Routes binds the replication handlers to their channels.
func (c *Consumer) Routes(ch config.ChannelsConfig) []events.Route {
	return []events.Route{
		{
			Channel: ch.BorrowerCreated,
			New:     func() events.Envelope { return &events.BorrowerCreated{} },
			Handle:  c.HandleBorrowerCreated,
		},
		{
			Channel: ch.LoanApplication,
			New:     func() events.Envelope { return &events.LoanApplicationEvent{} },
			Handle:  c.HandleLoanApplication,
		},
		{
			Channel: ch.DocumentsUpload,
			New:     func() events.Envelope { return &events.DocumentUploaded{} },
			Handle:  c.HandleDocumentUploaded,
		},
	}
}

// HandleBorrowerCreated stores the borrower replica unless it already exists.
func (c *Consumer) HandleBorrowerCreated(ctx context.Context, env events.Envelope, _ *messaging.Message) error {
	e, ok := env.(*events.BorrowerCreated)
	if !ok {
		return fmt.Errorf("%w: unexpected %s", events.ErrDecode, env.Kind())
	}

	exists, err := c.repo.BorrowerExists(ctx, e.BorrowerID)
	if err != nil {
		return fmt.Errorf("check borrower %d: %w", e.BorrowerID, err)
	}
	if exists {
		return fmt.Errorf("borrower %d: %w", e.BorrowerID, events.ErrAlreadyApplied)
	}

	b := e.Borrower(c.parse)
	if err := c.repo.CreateBorrower(ctx, b); err != nil {
		if errors.Is(err, repository.ErrBorrowerExists) {
			return fmt.Errorf("borrower %d: %w", b.ID, events.ErrAlreadyApplied)
		}
		return fmt.Errorf("store borrower %d: %w", b.ID, err)
	}

	c.logger.InfoContext(ctx, "replicated borrower", logging.BorrowerID(b.ID))
	return nil
}

// HandleLoanApplication stores the application replica once its borrower is known.
func (c *Consumer) HandleLoanApplication(ctx context.Context, env events.Envelope, _ *messaging.Message) error {
	e, ok := env.(*events.LoanApplicationEvent)
	if !ok {
		return fmt.Errorf("%w: unexpected %s", events.ErrDecode, env.Kind())
	}

	exists, err := c.repo.ApplicationExists(ctx, e.ApplicationID)
	if err != nil {
		return fmt.Errorf("check loan application %d: %w", e.ApplicationID, err)
	}
	if exists {
		return fmt.Errorf("loan application %d: %w", e.ApplicationID, events.ErrAlreadyApplied)
	}

	if err := c.requireBorrower(ctx, e.BorrowerID, "loan application", e.ApplicationID); err != nil {
		return err
	}

	app, err := e.LoanApplication(c.parse)
	if err != nil {
		return err
	}
	if err := c.repo.CreateApplication(ctx, app); err != nil {
		switch {
		case errors.Is(err, repository.ErrApplicationExists):
			return fmt.Errorf("loan application %d: %w", app.ID, events.ErrAlreadyApplied)
		case errors.Is(err, repository.ErrBorrowerNotFound):
			return fmt.Errorf("loan application %d references borrower %d: %w", app.ID, app.BorrowerID, events.ErrParentNotFound)
		}
		return fmt.Errorf("store loan application %d: %w", app.ID, err)
	}

	c.logger.InfoContext(ctx, "replicated loan application",
		logging.ApplicationID(app.ID), logging.BorrowerID(app.BorrowerID))
	return nil
}

// HandleDocumentUploaded stores the document replica. A referenced application
// must exist and belong to the document's borrower.
func (c *Consumer) HandleDocumentUploaded(ctx context.Context, env events.Envelope, _ *messaging.Message) error {
	e, ok := env.(*events.DocumentUploaded)
	if !ok {
		return fmt.Errorf("%w: unexpected %s", events.ErrDecode, env.Kind())
	}

	exists, err := c.repo.DocumentExists(ctx, e.DocumentID)
	if err != nil {
		return fmt.Errorf("check document %d: %w", e.DocumentID, err)
	}
	if exists {
		return fmt.Errorf("document %d: %w", e.DocumentID, events.ErrAlreadyApplied)
	}

	if err := c.requireBorrower(ctx, e.BorrowerID, "document", e.DocumentID); err != nil {
		return err
	}
	if e.ApplicationID != nil {
		app, err := c.repo.GetApplication(ctx, *e.ApplicationID)
		if err != nil {
			if errors.Is(err, repository.ErrApplicationNotFound) {
				return fmt.Errorf("document %d references loan application %d: %w",
					e.DocumentID, *e.ApplicationID, events.ErrParentNotFound)
			}
			return fmt.Errorf("load loan application %d: %w", *e.ApplicationID, err)
		}
		if app.BorrowerID != e.BorrowerID {
			c.logger.WarnContext(ctx, "document borrower does not own referenced loan application",
				logging.DocumentID(e.DocumentID),
				logging.ApplicationID(app.ID),
				logging.BorrowerID(e.BorrowerID),
				"owner_id", app.BorrowerID,
			)
			return fmt.Errorf("document %d names loan application %d of borrower %d: %w",
				e.DocumentID, app.ID, app.BorrowerID, events.ErrOwnershipMismatch)
		}
	}

	doc, err := e.Document(c.parse)
	if err != nil {
		return err
	}
	if err := c.repo.CreateDocument(ctx, doc); err != nil {
		if errors.Is(err, repository.ErrDocumentExists) {
			return fmt.Errorf("document %d: %w", doc.ID, events.ErrAlreadyApplied)
		}
		return fmt.Errorf("store document %d: %w", doc.ID, err)
	}

	c.logger.InfoContext(ctx, "replicated document",
		logging.DocumentID(doc.ID), logging.BorrowerID(doc.BorrowerID))
	return nil
}

func (c *Consumer) requireBorrower(ctx context.Context, borrowerID int64, entity string, id int64) error {
	exists, err := c.repo.BorrowerExists(ctx, borrowerID)
	if err != nil {
		return fmt.Errorf("check borrower %d: %w", borrowerID, err)
	}
	if !exists {
		return fmt.Errorf("%s %d references borrower %d: %w", entity, id, borrowerID, events.ErrParentNotFound)
	}
	return nil
}

// Package consumer applies replicated borrower and loan-application events to the
// scoring store and scores every new application.
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
	"github.com/lendline/lendline-stack/scoring/internal/repository"
	"github.com/lendline/lendline-stack/scoring/pkg/engine"
)

// Indexer receives committed scores.
type Indexer interface {
	IndexScore(ctx context.Context, score *models.LoanScore) error
}

// Consumer holds the scoring event handlers.
type Consumer struct {
	repo    repository.Repository
	engine  *engine.Engine
	indexer Indexer
	parse   events.TimeParser
	logger  *logging.Logger
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithIndexer mirrors every committed score into ix.
func WithIndexer(ix Indexer) Option {
	return func(c *Consumer) { c.indexer = ix }
}

// WithClock sets the clock used for unparseable envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Consumer) { c.parse = events.LenientTime(now) }
}

// New creates a Consumer.
func New(repo repository.Repository, eng *engine.Engine, logger *logging.Logger, opts ...Option) *Consumer {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Consumer{
		repo:   repo,
		engine: eng,
		parse:  events.LenientTime(time.Now),
		logger: logger.With("component", "consumer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Routes binds the scoring handlers to their channels.
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

// HandleLoanApplication stores the application replica and its score in one
// transaction. Scoring runs inside a savepoint: when it fails the application
// still commits without a score and ErrScoring is returned.
func (c *Consumer) HandleLoanApplication(ctx context.Context, env events.Envelope, _ *messaging.Message) error {
	e, ok := env.(*events.LoanApplicationEvent)
	if !ok {
		return fmt.Errorf("%w: unexpected %s", events.ErrDecode, env.Kind())
	}

	var (
		score    *models.LoanScore
		scoreErr error
	)
	err := c.repo.InTx(ctx, func(tx repository.Tx) error {
		exists, err := tx.ApplicationExists(ctx, e.ApplicationID)
		if err != nil {
			return fmt.Errorf("check loan application %d: %w", e.ApplicationID, err)
		}
		if exists {
			return fmt.Errorf("loan application %d: %w", e.ApplicationID, events.ErrAlreadyApplied)
		}

		borrower, err := tx.GetBorrower(ctx, e.BorrowerID)
		if err != nil {
			if errors.Is(err, repository.ErrBorrowerNotFound) {
				return fmt.Errorf("loan application %d references borrower %d: %w",
					e.ApplicationID, e.BorrowerID, events.ErrParentNotFound)
			}
			return fmt.Errorf("load borrower %d: %w", e.BorrowerID, err)
		}

		app, err := e.LoanApplication(c.parse)
		if err != nil {
			return err
		}
		if err := tx.CreateApplication(ctx, app); err != nil {
			if errors.Is(err, repository.ErrApplicationExists) {
				return fmt.Errorf("loan application %d: %w", app.ID, events.ErrAlreadyApplied)
			}
			return fmt.Errorf("store loan application %d: %w", app.ID, err)
		}

		scoreErr = tx.Savepoint(ctx, func(sp repository.Tx) error {
			s, err := c.engine.Score(borrower, app)
			if err != nil {
				return err
			}
			if err := sp.CreateScore(ctx, s); err != nil {
				return err
			}
			score = s
			return nil
		})
		if errors.Is(scoreErr, repository.ErrScoreExists) {
			scoreErr = nil
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger := c.logger.With(logging.ApplicationID(e.ApplicationID), logging.BorrowerID(e.BorrowerID))
	if scoreErr != nil {
		return fmt.Errorf("loan application %d: %w: %v", e.ApplicationID, events.ErrScoring, scoreErr)
	}
	if score == nil {
		logger.InfoContext(ctx, "replicated loan application, score already present")
		return nil
	}

	metrics.ScoresComputed.WithLabelValues(string(score.Grade), string(score.Risk)).Inc()
	logger.InfoContext(ctx, "scored loan application",
		"total_score", score.TotalScore,
		"grade", score.Grade,
		"risk", score.Risk,
	)

	if c.indexer != nil {
		if err := c.indexer.IndexScore(ctx, score); err != nil {
			logger.WarnContext(ctx, "failed to index score", logging.Error(err))
		}
	}
	return nil
}

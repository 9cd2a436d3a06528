package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/lendline/lendline-stack/cli/internal/client"
	"github.com/lendline/lendline-stack/common/models"
)

// Origination is the part of the origination API the seeder drives.
type Origination interface {
	CreateBorrower(ctx context.Context, req client.BorrowerRequest) (*models.Borrower, error)
	CreateApplication(ctx context.Context, req client.ApplicationRequest) (*models.LoanApplication, error)
	CreateDocument(ctx context.Context, req client.DocumentRequest) (*models.Document, error)
}

// Result counts what a run created.
type Result struct {
	Borrowers    int
	Applications int
	Documents    int
	Failed       int
}

// Runner handles the seeding execution
type Runner struct {
	Config   *Config
	API      Origination
	Progress func(format string, args ...interface{})
}

// NewRunner creates a new seeder runner
func NewRunner(config *Config, api Origination) *Runner {
	return &Runner{
		Config:   config,
		API:      api,
		Progress: func(string, ...interface{}) {},
	}
}

// Run creates the configured number of borrowers, each with a random number
// of applications and their documents. Individual failures are counted and
// skipped; only a cancelled context stops the run early.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	cfg := r.Config
	gen := NewGenerator(cfg.Seed, cfg.Loans)
	var res Result

	for i := 0; i < cfg.Borrowers; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		b, err := r.API.CreateBorrower(ctx, gen.Borrower())
		if err != nil {
			res.Failed++
			r.Progress("borrower %d failed: %v", i+1, err)
			continue
		}
		res.Borrowers++

		apps := cfg.ApplicationsMin
		if span := cfg.ApplicationsMax - cfg.ApplicationsMin; span > 0 {
			apps += gen.faker.Number(0, span)
		}
		for j := 0; j < apps; j++ {
			a, err := r.API.CreateApplication(ctx, gen.Application(b.ID))
			if err != nil {
				res.Failed++
				r.Progress("application for borrower %d failed: %v", b.ID, err)
				continue
			}
			res.Applications++

			for k := 0; k < cfg.DocumentsPer; k++ {
				appID := a.ID
				if _, err := r.API.CreateDocument(ctx, gen.Document(b.ID, &appID)); err != nil {
					res.Failed++
					r.Progress("document for application %d failed: %v", a.ID, err)
					continue
				}
				res.Documents++
			}
		}

		r.Progress("borrower %d/%d seeded (id %d, %d applications)", i+1, cfg.Borrowers, b.ID, apps)
		if cfg.Interval > 0 && i < cfg.Borrowers-1 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(cfg.Interval):
			}
		}
	}
	return res, nil
}

func (r Result) String() string {
	return fmt.Sprintf("%d borrowers, %d applications, %d documents, %d failed",
		r.Borrowers, r.Applications, r.Documents, r.Failed)
}

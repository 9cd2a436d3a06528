package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendline/lendline-stack/common/config"
	"github.com/lendline/lendline-stack/common/dlq"
	"github.com/lendline/lendline-stack/common/events"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/messaging"
	"github.com/lendline/lendline-stack/common/messaging/memory"
	"github.com/lendline/lendline-stack/common/models"
	"github.com/lendline/lendline-stack/origination/internal/repository"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type pipeline struct {
	broker     *memory.Broker
	repo       *repository.MemoryRepository
	sink       *dlq.Memory
	dispatcher *events.Dispatcher
	routes     []events.Route
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	p := &pipeline{
		broker: memory.NewBroker(),
		repo:   repository.NewMemoryRepository(),
		sink:   dlq.NewMemory(),
	}
	c := New(p.repo, logging.Discard(), WithClock(func() time.Time { return fixedNow }))
	p.dispatcher = events.NewDispatcher("origination", logging.Discard(), p.sink)
	p.routes = c.Routes(config.DefaultChannels())
	t.Cleanup(func() { _ = p.broker.Close() })
	return p
}

func (p *pipeline) deliver(t *testing.T, env events.Envelope) {
	t.Helper()
	ctx := context.Background()
	data, err := events.Marshal(env)
	require.NoError(t, err)
	channel := events.Routes(config.DefaultChannels())[env.Kind()]
	require.NoError(t, p.broker.PublishAsync(ctx, messaging.NewMessage(channel, env.Key(), data), nil))
	p.broker.Wait()

	for _, r := range p.routes {
		p.broker.Drain(ctx, r.Channel, messaging.ConsumerGroup("origination", r.Channel), p.dispatcher.Handler(r))
	}
}

// seed stores borrower 1 with application 10 and document 20.
func (p *pipeline) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	created := fixedNow.Add(-24 * time.Hour)
	appID := int64(10)

	require.NoError(t, p.repo.CreateBorrower(ctx, &models.Borrower{
		ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		AnnualIncome: 50000, EmploymentStatus: "employed", CreatedAt: created, UpdatedAt: created,
	}))
	require.NoError(t, p.repo.CreateApplication(ctx, &models.LoanApplication{
		ID: 10, BorrowerID: 1, LoanAmount: 10000, TermMonths: 36, InterestRate: 5.5,
		Status: models.LoanStatusSubmitted, CreatedAt: created, UpdatedAt: created,
	}))
	require.NoError(t, p.repo.CreateDocument(ctx, &models.Document{
		ID: 20, BorrowerID: 1, ApplicationID: &appID, DocumentType: "PAYSLIP", FileName: "p.pdf",
		Status: models.DocumentStatusPending, UploadedAt: created, UpdatedAt: created,
	}))
}

func loanStatusEvent(appID, borrowerID int64, status, reason string) *events.LoanStatusUpdate {
	return &events.LoanStatusUpdate{
		Metadata:      events.Metadata{EventID: "evt-ls", EventTimestamp: "2024-06-01T09:00:00", Actor: "officer-3"},
		ApplicationID: appID,
		StatusChange: events.StatusChange{
			BorrowerID:      borrowerID,
			OldStatus:       "SUBMITTED",
			NewStatus:       status,
			UpdatedBy:       "officer-3",
			UpdatedAt:       "2024-06-01T09:00:00",
			RejectionReason: reason,
		},
	}
}

func documentStatusEvent(docID, borrowerID int64, status, reason string) *events.DocumentStatusUpdate {
	return &events.DocumentStatusUpdate{
		Metadata:   events.Metadata{EventID: "evt-ds", EventTimestamp: "2024-06-01T09:30:00", Actor: "officer-3"},
		DocumentID: docID,
		StatusChange: events.StatusChange{
			BorrowerID:      borrowerID,
			OldStatus:       "PENDING",
			NewStatus:       status,
			UpdatedBy:       "officer-3",
			UpdatedAt:       "2024-06-01T09:30:00",
			RejectionReason: reason,
		},
	}
}

func TestLoanStatus_Applied(t *testing.T) {
	p := newPipeline(t)
	p.seed(t)

	p.deliver(t, loanStatusEvent(10, 1, "REJECTED", "income not verified"))

	app, err := p.repo.GetApplication(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusRejected, app.Status)
	assert.Equal(t, "officer-3", app.StatusUpdatedBy)
	require.NotNil(t, app.StatusUpdatedAt)
	assert.True(t, app.StatusUpdatedAt.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)))
	require.NotNil(t, app.RejectionReason)
	assert.Equal(t, "income not verified", *app.RejectionReason)
	assert.Empty(t, p.sink.Entries())
}

func TestLoanStatus_ReasonIgnoredUnlessRejected(t *testing.T) {
	p := newPipeline(t)
	p.seed(t)

	p.deliver(t, loanStatusEvent(10, 1, "APPROVED", "should not be stored"))

	app, err := p.repo.GetApplication(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusApproved, app.Status)
	assert.Nil(t, app.RejectionReason)
}

func TestLoanStatus_OwnershipMismatchLeavesStatus(t *testing.T) {
	p := newPipeline(t)
	p.seed(t)

	p.deliver(t, loanStatusEvent(10, 2, "APPROVED", ""))

	app, err := p.repo.GetApplication(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusSubmitted, app.Status)
	assert.Empty(t, app.StatusUpdatedBy)
	assert.Nil(t, app.StatusUpdatedAt)

	entries := p.sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, dlq.ClassSecurity, entries[0].Class)
	assert.Equal(t, "loan-application-10", entries[0].Key)
}

func TestLoanStatus_UpdateBeforeCreateIsReferential(t *testing.T) {
	p := newPipeline(t)

	p.deliver(t, loanStatusEvent(10, 1, "APPROVED", ""))

	_, err := p.repo.GetApplication(context.Background(), 10)
	assert.ErrorIs(t, err, repository.ErrApplicationNotFound, "no placeholder is created")

	entries := p.sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, dlq.ClassReferential, entries[0].Class)
	assert.Equal(t, "evt-ls", entries[0].EventID)
}

func TestLoanStatus_UnknownStatusIsDecodeError(t *testing.T) {
	p := newPipeline(t)
	p.seed(t)

	p.deliver(t, loanStatusEvent(10, 1, "DISBURSED", ""))

	app, err := p.repo.GetApplication(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusSubmitted, app.Status)

	entries := p.sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, dlq.ClassDecode, entries[0].Class)
}

func TestLoanStatus_UnparseableTimestampUsesClock(t *testing.T) {
	p := newPipeline(t)
	p.seed(t)

	ev := loanStatusEvent(10, 1, "UNDER_REVIEW", "")
	ev.UpdatedAt = "2024-06-01 09:00:00"
	p.deliver(t, ev)

	app, err := p.repo.GetApplication(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, app.StatusUpdatedAt)
	assert.True(t, app.StatusUpdatedAt.Equal(fixedNow))
}

func TestDocumentStatus(t *testing.T) {
	tests := []struct {
		name       string
		event      *events.DocumentStatusUpdate
		wantStatus models.DocumentStatus
		wantReason *string
		wantClass  string
	}{
		{
			name:       "verified",
			event:      documentStatusEvent(20, 1, "VERIFIED", ""),
			wantStatus: models.DocumentStatusVerified,
		},
		{
			name:       "rejected with reason",
			event:      documentStatusEvent(20, 1, "rejected", "blurry scan"),
			wantStatus: models.DocumentStatusRejected,
			wantReason: strPtr("blurry scan"),
		},
		{
			name:       "other borrower",
			event:      documentStatusEvent(20, 7, "VERIFIED", ""),
			wantStatus: models.DocumentStatusPending,
			wantClass:  dlq.ClassSecurity,
		},
		{
			name:       "missing document",
			event:      documentStatusEvent(21, 1, "VERIFIED", ""),
			wantStatus: models.DocumentStatusPending,
			wantClass:  dlq.ClassReferential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t)
			p.seed(t)

			p.deliver(t, tt.event)

			doc, err := p.repo.GetDocument(context.Background(), 20)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, doc.Status)
			assert.Equal(t, tt.wantReason, doc.RejectionReason)

			entries := p.sink.Entries()
			if tt.wantClass == "" {
				assert.Empty(t, entries)
				return
			}
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantClass, entries[0].Class)
		})
	}
}

func TestHandlers_RejectWrongEnvelope(t *testing.T) {
	c := New(repository.NewMemoryRepository(), logging.Discard())

	err := c.HandleLoanStatus(context.Background(), documentStatusEvent(1, 1, "VERIFIED", ""), nil)
	assert.ErrorIs(t, err, events.ErrDecode)

	err = c.HandleDocumentStatus(context.Background(), loanStatusEvent(1, 1, "APPROVED", ""), nil)
	assert.ErrorIs(t, err, events.ErrDecode)
}

func strPtr(s string) *string { return &s }

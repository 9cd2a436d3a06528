package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendline/lendline-stack/common/events"
	"github.com/lendline/lendline-stack/common/models"
)

type recordingSender struct {
	sent []events.Envelope
}

func (s *recordingSender) Publish(_ context.Context, env events.Envelope) {
	s.sent = append(s.sent, env)
}

func TestPublisher_Envelopes(t *testing.T) {
	sender := &recordingSender{}
	p := NewPublisher(sender)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	appID := int64(20)

	p.BorrowerCreated(ctx, &models.Borrower{ID: 10, Email: "a@example.com", CreatedAt: now})
	p.LoanApplicationCreated(ctx, &models.LoanApplication{ID: 20, BorrowerID: 10, Status: models.LoanStatusSubmitted, CreatedAt: now})
	p.DocumentUploaded(ctx, &models.Document{ID: 30, BorrowerID: 10, ApplicationID: &appID, Status: models.DocumentStatusPending, UploadedAt: now})

	require.Len(t, sender.sent, 3)
	assert.Equal(t, events.KindBorrowerCreated, sender.sent[0].Kind())
	assert.Equal(t, "borrower-10", sender.sent[0].Key())
	assert.Equal(t, events.KindLoanApplicationEvent, sender.sent[1].Kind())
	assert.Equal(t, "loan-application-20", sender.sent[1].Key())
	assert.Equal(t, events.KindDocumentUploaded, sender.sent[2].Kind())
	assert.Equal(t, "document-30", sender.sent[2].Key())

	doc, ok := sender.sent[2].(*events.DocumentUploaded)
	require.True(t, ok)
	require.NotNil(t, doc.ApplicationID)
	assert.Equal(t, appID, *doc.ApplicationID)
}

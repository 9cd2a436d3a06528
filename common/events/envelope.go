// Package events defines the lending event envelopes, their binary encoding, and the
// publishing and dispatching machinery shared by every service on the bus.
package events

import (
	"fmt"
	"strconv"
)

// Kind names an envelope schema. It travels inside every encoded envelope.
type Kind string

const (
	KindBorrowerCreated      Kind = "BorrowerCreated"
	KindLoanApplicationEvent Kind = "LoanApplicationEvent"
	KindDocumentUploaded     Kind = "DocumentUploaded"
	KindLoanStatusUpdate     Kind = "LoanStatusUpdate"
	KindDocumentStatusUpdate Kind = "DocumentStatusUpdate"
)

// Metadata is carried by every envelope. EventID is for tracing only and is
// never used to deduplicate.
type Metadata struct {
	EventID        string
	EventTimestamp string
	Actor          string
}

// Envelope is implemented by every event kind of this package.
type Envelope interface {
	Kind() Kind
	// Key is the partition key: "{entity-kind}-{id}".
	Key() string
	Meta() *Metadata

	appendFields(e *encoder)
	readField(num fieldNum, r *fieldReader) (bool, error)
	validate() error
}

// Key prefixes.
const (
	keyBorrower        = "borrower-"
	keyLoanApplication = "loan-application-"
	keyDocument        = "document-"
)

// BorrowerKey returns the partition key of a borrower.
func BorrowerKey(id int64) string { return keyBorrower + strconv.FormatInt(id, 10) }

// LoanApplicationKey returns the partition key of a loan application.
func LoanApplicationKey(id int64) string { return keyLoanApplication + strconv.FormatInt(id, 10) }

// DocumentKey returns the partition key of a document.
func DocumentKey(id int64) string { return keyDocument + strconv.FormatInt(id, 10) }

// BorrowerCreated replicates a new borrower.
type BorrowerCreated struct {
	Metadata
	BorrowerID       int64
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	NationalID       string
	DateOfBirth      string
	AddressLine1     string
	AddressLine2     string
	City             string
	State            string
	PostalCode       string
	Country          string
	AnnualIncome     float64
	EmploymentStatus string
	EmploymentYears  *int
	CreatedAt        string
}

func (e *BorrowerCreated) Kind() Kind      { return KindBorrowerCreated }
func (e *BorrowerCreated) Key() string     { return BorrowerKey(e.BorrowerID) }
func (e *BorrowerCreated) Meta() *Metadata { return &e.Metadata }

func (e *BorrowerCreated) validate() error {
	if e.BorrowerID == 0 {
		return fmt.Errorf("%s: missing borrower id", e.Kind())
	}
	return nil
}

// LoanApplicationEvent replicates a new loan application.
type LoanApplicationEvent struct {
	Metadata
	ApplicationID  int64
	BorrowerID     int64
	LoanAmount     float64
	TermMonths     int
	InterestRate   float64
	MonthlyPayment float64
	TotalPayment   float64
	Status         string
	Purpose        string
	CreatedAt      string
}

func (e *LoanApplicationEvent) Kind() Kind      { return KindLoanApplicationEvent }
func (e *LoanApplicationEvent) Key() string     { return LoanApplicationKey(e.ApplicationID) }
func (e *LoanApplicationEvent) Meta() *Metadata { return &e.Metadata }

func (e *LoanApplicationEvent) validate() error {
	if e.ApplicationID == 0 {
		return fmt.Errorf("%s: missing application id", e.Kind())
	}
	if e.BorrowerID == 0 {
		return fmt.Errorf("%s: missing borrower id", e.Kind())
	}
	return nil
}

// DocumentUploaded replicates document metadata.
type DocumentUploaded struct {
	Metadata
	DocumentID    int64
	BorrowerID    int64
	ApplicationID *int64
	DocumentType  string
	FileName      string
	ContentType   string
	SizeBytes     int64
	StoragePath   string
	Status        string
	UploadedAt    string
}

func (e *DocumentUploaded) Kind() Kind      { return KindDocumentUploaded }
func (e *DocumentUploaded) Key() string     { return DocumentKey(e.DocumentID) }
func (e *DocumentUploaded) Meta() *Metadata { return &e.Metadata }

func (e *DocumentUploaded) validate() error {
	if e.DocumentID == 0 {
		return fmt.Errorf("%s: missing document id", e.Kind())
	}
	if e.BorrowerID == 0 {
		return fmt.Errorf("%s: missing borrower id", e.Kind())
	}
	return nil
}

// StatusChange is the common body of the status-update kinds.
type StatusChange struct {
	BorrowerID      int64
	OldStatus       string
	NewStatus       string
	UpdatedBy       string
	UpdatedAt       string
	RejectionReason string
}

// LoanStatusUpdate flows from review back to origination.
type LoanStatusUpdate struct {
	Metadata
	ApplicationID int64
	StatusChange
}

func (e *LoanStatusUpdate) Kind() Kind      { return KindLoanStatusUpdate }
func (e *LoanStatusUpdate) Key() string     { return LoanApplicationKey(e.ApplicationID) }
func (e *LoanStatusUpdate) Meta() *Metadata { return &e.Metadata }

func (e *LoanStatusUpdate) validate() error {
	if e.ApplicationID == 0 {
		return fmt.Errorf("%s: missing application id", e.Kind())
	}
	return e.StatusChange.validate(e.Kind())
}

// DocumentStatusUpdate flows from review back to origination.
type DocumentStatusUpdate struct {
	Metadata
	DocumentID int64
	StatusChange
}

func (e *DocumentStatusUpdate) Kind() Kind      { return KindDocumentStatusUpdate }
func (e *DocumentStatusUpdate) Key() string     { return DocumentKey(e.DocumentID) }
func (e *DocumentStatusUpdate) Meta() *Metadata { return &e.Metadata }

func (e *DocumentStatusUpdate) validate() error {
	if e.DocumentID == 0 {
		return fmt.Errorf("%s: missing document id", e.Kind())
	}
	return e.StatusChange.validate(e.Kind())
}

func (s *StatusChange) validate(kind Kind) error {
	if s.BorrowerID == 0 {
		return fmt.Errorf("%s: missing borrower id", kind)
	}
	if s.NewStatus == "" {
		return fmt.Errorf("%s: missing new status", kind)
	}
	return nil
}

// New returns an empty envelope of kind k.
func New(k Kind) (Envelope, error) {
	switch k {
	case KindBorrowerCreated:
		return &BorrowerCreated{}, nil
	case KindLoanApplicationEvent:
		return &LoanApplicationEvent{}, nil
	case KindDocumentUploaded:
		return &DocumentUploaded{}, nil
	case KindLoanStatusUpdate:
		return &LoanStatusUpdate{}, nil
	case KindDocumentStatusUpdate:
		return &DocumentStatusUpdate{}, nil
	}
	return nil, fmt.Errorf("unknown event kind %q", k)
}

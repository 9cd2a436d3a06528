package seeder

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/lendline/lendline-stack/cli/internal/client"
	"github.com/lendline/lendline-stack/common/models"
)

var employmentStatuses = []string{
	models.EmploymentEmployed,
	models.EmploymentEmployed,
	models.EmploymentEmployed,
	models.EmploymentSelfEmployed,
	models.EmploymentUnemployed,
	models.EmploymentStudent,
	models.EmploymentRetired,
}

var (
	loanPurposes  = []string{"debt consolidation", "home improvement", "car purchase", "education", "medical", "small business"}
	documentTypes = []string{"PAYSLIP", "BANK_STATEMENT", "ID_CARD", "TAX_RETURN", "UTILITY_BILL"}
)

// Generator builds request bodies from a seeded faker, so a fixed seed
// reproduces the same data set.
type Generator struct {
	faker *gofakeit.Faker
	loans LoanConfig
}

// NewGenerator creates a Generator. A zero seed uses the current time.
func NewGenerator(seed int64, loans LoanConfig) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{faker: gofakeit.New(seed), loans: loans}
}

// Borrower generates a borrower. Unemployed borrowers get no income history.
func (g *Generator) Borrower() client.BorrowerRequest {
	f := g.faker
	first, last := f.FirstName(), f.LastName()
	status := f.RandomString(employmentStatuses)
	addr := f.Address()

	req := client.BorrowerRequest{
		FirstName:   first,
		LastName:    last,
		Email:       fmt.Sprintf("%s.%s.%d@%s", strings.ToLower(first), strings.ToLower(last), f.Number(1000, 9999), f.DomainName()),
		Phone:       f.Phone(),
		NationalID:  f.SSN(),
		DateOfBirth: fmt.Sprintf("%04d-%02d-%02d", f.Number(1955, 2003), f.Number(1, 12), f.Number(1, 28)),
		Address: models.Address{
			Line1:      addr.Street,
			City:       addr.City,
			State:      addr.State,
			PostalCode: addr.Zip,
			Country:    addr.Country,
		},
		EmploymentStatus: status,
	}

	switch status {
	case models.EmploymentUnemployed:
		req.AnnualIncome = 0
	case models.EmploymentStudent:
		req.AnnualIncome = math.Round(f.Float64Range(0, 15000))
	case models.EmploymentRetired:
		req.AnnualIncome = math.Round(f.Float64Range(15000, 60000))
	default:
		req.AnnualIncome = math.Round(f.Float64Range(22000, 180000))
		years := f.Number(0, 25)
		req.EmploymentYears = &years
	}
	return req
}

// Application generates a loan application for borrowerID.
func (g *Generator) Application(borrowerID int64) client.ApplicationRequest {
	f := g.faker
	return client.ApplicationRequest{
		BorrowerID:   borrowerID,
		LoanAmount:   math.Round(f.Float64Range(g.loans.AmountMin, g.loans.AmountMax)/100) * 100,
		TermMonths:   g.loans.Terms[f.Number(0, len(g.loans.Terms)-1)],
		InterestRate: math.Round(f.Float64Range(g.loans.RateMin, g.loans.RateMax)*100) / 100,
		Purpose:      f.RandomString(loanPurposes),
	}
}

// Document generates document metadata for a borrower, optionally tied to an application.
func (g *Generator) Document(borrowerID int64, applicationID *int64) client.DocumentRequest {
	f := g.faker
	docType := f.RandomString(documentTypes)
	name := fmt.Sprintf("%s-%s.pdf", strings.ToLower(docType), f.UUID()[:8])
	return client.DocumentRequest{
		BorrowerID:    borrowerID,
		ApplicationID: applicationID,
		DocumentType:  docType,
		FileName:      name,
		ContentType:   "application/pdf",
		SizeBytes:     int64(f.Number(20_000, 5_000_000)),
		StoragePath:   fmt.Sprintf("borrowers/%d/%s", borrowerID, name),
	}
}

// Package models holds the lending entities shared by the service of record and its replicas.
package models

import "time"

// Address is a borrower's postal address.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Borrower is assigned its ID by origination. Replicas reuse that ID as their primary key
// and never generate one of their own.
type Borrower struct {
	ID               int64     `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	NationalID       string    `json:"national_id"`
	DateOfBirth      string    `json:"date_of_birth,omitempty"`
	Address          Address   `json:"address"`
	AnnualIncome     float64   `json:"annual_income"`
	EmploymentStatus string    `json:"employment_status"`
	EmploymentYears  *int      `json:"employment_years,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (b *Borrower) FullName() string {
	if b.LastName == "" {
		return b.FirstName
	}
	if b.FirstName == "" {
		return b.LastName
	}
	return b.FirstName + " " + b.LastName
}

// Employment statuses recognised by scoring. Matching is case-insensitive.
const (
	EmploymentEmployed     = "employed"
	EmploymentSelfEmployed = "self-employed"
	EmploymentUnemployed   = "unemployed"
	EmploymentStudent      = "student"
	EmploymentRetired      = "retired"
)

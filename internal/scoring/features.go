package scoring

import (
	"fmt"
	"strings"

	dErrors "sentinelle/pkg/domain-errors"
)

// Employment statuses accepted by the credit risk channel.
const (
	EmploymentCDI         = "CDI"
	EmploymentCDD         = "CDD"
	EmploymentIndependant = "INDEPENDANT"
	EmploymentEtudiant    = "ETUDIANT"
	EmploymentSansEmploi  = "SANS_EMPLOI"
	EmploymentRetraite    = "RETRAITE"
)

var employmentStatuses = map[string]struct{}{
	EmploymentCDI:         {},
	EmploymentCDD:         {},
	EmploymentIndependant: {},
	EmploymentEtudiant:    {},
	EmploymentSansEmploi:  {},
	EmploymentRetraite:    {},
}

// ApplicantProfile is the credit risk channel's feature row.
type ApplicantProfile struct {
	ClientID                  string  `json:"client_id"`
	Age                       int     `json:"age"`
	IncomeAnnual              float64 `json:"income_annual"`
	EmploymentStatus          string  `json:"employment_status"`
	DebtToIncome              float64 `json:"debt_to_income"`
	CreditHistoryLengthMonths int     `json:"credit_history_length_months"`
	NumOpenAccounts           int     `json:"num_open_accounts"`
	LatePayments12M           int     `json:"late_payments_12m"`
}

// Validate enforces the declared input domain so malformed rows never reach a
// scorer.
func (p *ApplicantProfile) Validate() error {
	if l := len(p.ClientID); l < 3 || l > 64 {
		return dErrors.New(dErrors.CodeValidation, "client_id must be between 3 and 64 characters")
	}
	if p.Age < 18 || p.Age > 100 {
		return dErrors.New(dErrors.CodeValidation, "age must be between 18 and 100")
	}
	if p.IncomeAnnual <= 0 {
		return dErrors.New(dErrors.CodeValidation, "income_annual must be positive")
	}
	if _, ok := employmentStatuses[p.EmploymentStatus]; !ok {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("employment_status must be one of CDI, CDD, INDEPENDANT, ETUDIANT, SANS_EMPLOI, RETRAITE; got %q", p.EmploymentStatus))
	}
	if p.DebtToIncome < 0 || p.DebtToIncome > 2.0 {
		return dErrors.New(dErrors.CodeValidation, "debt_to_income must be between 0 and 2.0")
	}
	if p.CreditHistoryLengthMonths < 0 || p.CreditHistoryLengthMonths > 600 {
		return dErrors.New(dErrors.CodeValidation, "credit_history_length_months must be between 0 and 600")
	}
	if p.NumOpenAccounts < 0 || p.NumOpenAccounts > 50 {
		return dErrors.New(dErrors.CodeValidation, "num_open_accounts must be between 0 and 50")
	}
	if p.LatePayments12M < 0 || p.LatePayments12M > 60 {
		return dErrors.New(dErrors.CodeValidation, "late_payments_12m must be between 0 and 60")
	}
	return nil
}

// TransactionDetails is the fraud channel's feature row.
type TransactionDetails struct {
	Amount             float64 `json:"amount"`
	MerchantCategory   string  `json:"merchant_category"`
	Country            string  `json:"country"`
	Hour               int     `json:"hour"`
	IsNewDevice        bool    `json:"is_new_device"`
	DistanceFromHomeKM float64 `json:"distance_from_home_km"`
}

// Validate enforces the declared input domain for the fraud channel.
func (t *TransactionDetails) Validate() error {
	if t.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if l := len(t.MerchantCategory); l < 2 || l > 64 {
		return dErrors.New(dErrors.CodeValidation, "merchant_category must be between 2 and 64 characters")
	}
	if len(t.Country) != 2 {
		return dErrors.New(dErrors.CodeValidation, "country must be a 2-letter ISO code")
	}
	if t.Hour < 0 || t.Hour > 23 {
		return dErrors.New(dErrors.CodeValidation, "hour must be between 0 and 23")
	}
	if t.DistanceFromHomeKM < 0 || t.DistanceFromHomeKM > 20000 {
		return dErrors.New(dErrors.CodeValidation, "distance_from_home_km must be between 0 and 20000")
	}
	return nil
}

// NormalizeCountry upper-cases the ISO code so downstream comparisons are
// stable.
func (t *TransactionDetails) NormalizeCountry() {
	t.Country = strings.ToUpper(t.Country)
}

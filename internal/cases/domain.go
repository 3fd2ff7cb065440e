// Package cases is the court-scoped docket. It trusts the authorization
// context assembled at the request boundary and scopes every query by the
// court carried there.
package cases

import "time"

// Case statuses.
const (
	StatusOpen   = "open"
	StatusSealed = "sealed"
	StatusClosed = "closed"
)

// Case is one docket entry. CourtID is the partition key: a case is visible
// and mutable only through requests addressed to its court.
type Case struct {
	ID         int64     `json:"id"`
	CourtID    string    `json:"court_id"`
	CaseNumber string    `json:"case_number"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	FiledBy    int64     `json:"filed_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func validStatus(s string) bool {
	switch s {
	case StatusOpen, StatusSealed, StatusClosed:
		return true
	}
	return false
}

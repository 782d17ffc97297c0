// internal/models/acknowledgement.go
package models

import "time"

// AckStatus is the per-recipient acknowledgement state.
//
// AwaitingResponse is the seeded initial state. Acknowledged and Declined are
// terminal in practice; a later link click or an administrative override may
// still flip between them (last write wins).
type AckStatus string

const (
	AckAwaitingResponse AckStatus = "awaiting_response"
	AckAcknowledged     AckStatus = "acknowledged"
	AckDeclined         AckStatus = "declined"
)

// ValidAckStatus reports whether s is a known acknowledgement status.
func ValidAckStatus(s string) bool {
	switch AckStatus(s) {
	case AckAwaitingResponse, AckAcknowledged, AckDeclined:
		return true
	}
	return false
}

// AcknowledgementRecord is the ledger row for one (policy, employee) pair.
// The pair is unique; the row exists from cohort seeding until the parent
// policy or employee is deleted.
type AcknowledgementRecord struct {
	PolicyID   int64     `json:"policyId"`
	EmployeeID int64     `json:"employeeId"`
	Status     AckStatus `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AcknowledgementDetail is a ledger row joined with its employee, as listed
// for status reporting and reminder scans.
type AcknowledgementDetail struct {
	AcknowledgementRecord
	EmployeeName  string   `json:"employeeName"`
	EmployeeEmail string   `json:"employeeEmail"`
	Department    string   `json:"department"`
	WorkMode      WorkMode `json:"workMode"`
}

// internal/models/policy.go
package models

import "time"

// PolicyStatus tracks the rollout lifecycle of a policy.
type PolicyStatus string

const (
	PolicyNotImplemented PolicyStatus = "Not Implemented"
	PolicyImplemented    PolicyStatus = "Implemented"
)

// WorkMode is the employee work arrangement a policy can target.
type WorkMode string

const (
	WorkModeRemote WorkMode = "Remote"
	WorkModeOnsite WorkMode = "Onsite"
)

// ValidWorkMode reports whether s is a known work mode.
func ValidWorkMode(s string) bool {
	return WorkMode(s) == WorkModeRemote || WorkMode(s) == WorkModeOnsite
}

// Policy is an organizational policy distributed for acknowledgement.
// Targeting criteria are immutable once the policy is Implemented.
type Policy struct {
	ID         int64        `json:"id"`
	PolicyText string       `json:"policyText"`
	Department string       `json:"department,omitempty"`
	WorkMode   WorkMode     `json:"workMode,omitempty"`
	Status     PolicyStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// PolicyUpdate enumerates the fields an administrator may change on a policy
// that has not been implemented yet. Nil fields are left untouched.
type PolicyUpdate struct {
	PolicyText *string       `json:"policyText,omitempty"`
	Department *string       `json:"department,omitempty"`
	WorkMode   *WorkMode     `json:"workMode,omitempty"`
	Status     *PolicyStatus `json:"status,omitempty"`
}

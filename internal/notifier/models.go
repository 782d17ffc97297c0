// internal/notifier/models.go
package notifier

import "time"

// Recipient is one cohort member to notify.
type Recipient struct {
	EmployeeID int64
	Name       string
	Email      string
}

// Failure records one recipient whose delivery was rejected by the transport.
type Failure struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// BatchResult aggregates per-recipient outcomes of one cohort send. A
// recipient failure never aborts the rest of the batch.
type BatchResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    []Failure     `json:"failed,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// Total returns the number of attempted recipients.
func (r *BatchResult) Total() int {
	return r.Succeeded + len(r.Failed)
}

// Package cohort computes the set of employees a policy targets and seeds
// the acknowledgement ledger for them.
package cohort

import (
	"context"

	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/logger"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/models"
)

// Criteria are the policy targeting fields. At least one should be set;
// empty criteria resolve to an empty cohort rather than "everyone".
type Criteria struct {
	Department string
	WorkMode   models.WorkMode
}

// Empty reports whether no criteria were supplied.
func (c Criteria) Empty() bool {
	return c.Department == "" && c.WorkMode == ""
}

// Directory is the slice of the storage collaborator the resolver needs.
type Directory interface {
	ListEligibleEmployees(ctx context.Context, department string, workMode models.WorkMode) ([]models.Employee, error)
	SeedAcknowledgements(ctx context.Context, policyID int64, employeeIDs []int64) (int, error)
}

type Resolver struct {
	dir    Directory
	logger logger.Logger
}

func NewResolver(dir Directory, log logger.Logger) *Resolver {
	return &Resolver{
		dir:    dir,
		logger: log.WithFields(map[string]interface{}{"component": "cohort"}),
	}
}

// Resolve returns every employee matching all supplied criteria. Zero
// matches is an ordinary empty result, not an error.
func (r *Resolver) Resolve(ctx context.Context, c Criteria) ([]models.Employee, error) {
	if c.Empty() {
		return nil, nil
	}

	employees, err := r.dir.ListEligibleEmployees(ctx, c.Department, c.WorkMode)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("cohort resolved", map[string]interface{}{
		"department": c.Department,
		"workMode":   string(c.WorkMode),
		"count":      len(employees),
	})
	return employees, nil
}

// Seed materializes one awaiting_response ledger row per employee.
// Re-seeding skips existing rows, so the cohort stays frozen at first
// activation even if resolution runs again.
func (r *Resolver) Seed(ctx context.Context, policyID int64, employees []models.Employee) (int, error) {
	if len(employees) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}

	seeded, err := r.dir.SeedAcknowledgements(ctx, policyID, ids)
	if err != nil {
		return seeded, err
	}

	r.logger.Info("acknowledgement ledger seeded", map[string]interface{}{
		"policyId": policyID,
		"cohort":   len(employees),
		"seeded":   seeded,
	})
	return seeded, nil
}

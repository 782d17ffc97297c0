// Package store is the relational persistence layer for policies, employees
// and the acknowledgement ledger.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/errors"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/logger"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/models"
)

// Store runs all SQL for the engine against a single *sql.DB.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

// New creates a Store.
func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "store"}),
	}
}

// --- Policies ---

// CreatePolicy inserts a policy at status Not Implemented and returns its id.
func (s *Store) CreatePolicy(ctx context.Context, policyText, department string, workMode models.WorkMode) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO policies (policy_text, department, work_mode, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		policyText, nullableString(department), nullableString(string(workMode)), models.PolicyNotImplemented,
	).Scan(&id)
	if err != nil {
		return 0, errors.NewStorageError("create policy", err)
	}
	return id, nil
}

// GetPolicy loads one policy by id.
func (s *Store) GetPolicy(ctx context.Context, id int64) (*models.Policy, error) {
	var p models.Policy
	var dept, mode sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, policy_text, department, work_mode, status, created_at
		FROM policies WHERE id = $1`, id,
	).Scan(&p.ID, &p.PolicyText, &dept, &mode, &p.Status, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("get policy", err)
	}
	p.Department = dept.String
	p.WorkMode = models.WorkMode(mode.String)
	return &p, nil
}

// ListPolicies returns all policies, newest first.
func (s *Store) ListPolicies(ctx context.Context) ([]models.Policy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, policy_text, department, work_mode, status, created_at
		FROM policies ORDER BY id DESC`)
	if err != nil {
		return nil, errors.NewStorageError("list policies", err)
	}
	defer rows.Close()

	var out []models.Policy
	for rows.Next() {
		var p models.Policy
		var dept, mode sql.NullString
		if err := rows.Scan(&p.ID, &p.PolicyText, &dept, &mode, &p.Status, &p.CreatedAt); err != nil {
			return nil, errors.NewStorageError("scan policy", err)
		}
		p.Department = dept.String
		p.WorkMode = models.WorkMode(mode.String)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list policies", err)
	}
	return out, nil
}

// UpdatePolicyStatus flips the lifecycle status of a policy.
func (s *Store) UpdatePolicyStatus(ctx context.Context, id int64, status models.PolicyStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE policies SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return errors.NewStorageError("update policy status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewStorageError("update policy status", fmt.Errorf("no policy with id %d", id))
	}
	return nil
}

// UpdatePolicy applies a partial update. Only the fields enumerated in
// models.PolicyUpdate can change; nil fields are skipped.
func (s *Store) UpdatePolicy(ctx context.Context, id int64, upd models.PolicyUpdate) (bool, error) {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)

	add := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.PolicyText != nil {
		add("policy_text", *upd.PolicyText)
	}
	if upd.Department != nil {
		add("department", *upd.Department)
	}
	if upd.WorkMode != nil {
		add("work_mode", string(*upd.WorkMode))
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}

	if len(sets) == 0 {
		return false, nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE policies SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.NewStorageError("update policy", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeletePolicy removes a policy; acknowledgement rows cascade in the schema.
func (s *Store) DeletePolicy(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM policies WHERE id = $1`, id)
	if err != nil {
		return false, errors.NewStorageError("delete policy", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// --- Employees ---

// ListEligibleEmployees returns every employee matching all the supplied
// criteria. Empty criteria fields are not filtered on.
func (s *Store) ListEligibleEmployees(ctx context.Context, department string, workMode models.WorkMode) ([]models.Employee, error) {
	conditions := []string{}
	args := []interface{}{}

	if department != "" {
		args = append(args, department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if workMode != "" {
		args = append(args, string(workMode))
		conditions = append(conditions, fmt.Sprintf("work_mode = $%d", len(args)))
	}

	query := `SELECT id, name, email, department, work_mode FROM employees`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageError("list eligible employees", err)
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Department, &e.WorkMode); err != nil {
			return nil, errors.NewStorageError("scan employee", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list eligible employees", err)
	}
	return out, nil
}

// GetEmployeeByEmail resolves a contact address to an employee. Returns
// (nil, nil) when the address is unknown.
func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	var e models.Employee
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, department, work_mode
		FROM employees WHERE email = $1`, email,
	).Scan(&e.ID, &e.Name, &e.Email, &e.Department, &e.WorkMode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("get employee by email", err)
	}
	return &e, nil
}

// UpdateEmployee applies a partial update over the allow-listed fields.
func (s *Store) UpdateEmployee(ctx context.Context, id int64, upd models.EmployeeUpdate) (bool, error) {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)

	add := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.Department != nil {
		add("department", *upd.Department)
	}
	if upd.WorkMode != nil {
		add("work_mode", string(*upd.WorkMode))
	}

	if len(sets) == 0 {
		return false, nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE employees SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.NewStorageError("update employee", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// --- Acknowledgement ledger ---

// SeedAcknowledgements creates one awaiting_response row per employee for the
// policy. Existing (policy, employee) rows are left untouched, so re-running
// activation is safe.
func (s *Store) SeedAcknowledgements(ctx context.Context, policyID int64, employeeIDs []int64) (int, error) {
	seeded := 0
	for _, empID := range employeeIDs {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO acknowledgements (policy_id, employee_id, status)
			VALUES ($1, $2, $3)
			ON CONFLICT (policy_id, employee_id) DO NOTHING`,
			policyID, empID, models.AckAwaitingResponse)
		if err != nil {
			return seeded, errors.NewStorageError("seed acknowledgement", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			seeded++
		}
	}
	return seeded, nil
}

// UpdateAcknowledgementStatus records a decision for one (policy, employee)
// pair. The boolean reports whether a row matched; false means the employee
// was never in the cohort.
func (s *Store) UpdateAcknowledgementStatus(ctx context.Context, policyID, employeeID int64, status models.AckStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE acknowledgements
		SET status = $1, updated_at = NOW()
		WHERE policy_id = $2 AND employee_id = $3`,
		status, policyID, employeeID)
	if err != nil {
		return false, errors.NewStorageError("update acknowledgement status", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// OverrideAcknowledgement is the administrative write path. Unlike the link
// click update it accepts any known status, including a reset back to
// awaiting_response.
func (s *Store) OverrideAcknowledgement(ctx context.Context, policyID, employeeID int64, status models.AckStatus) (bool, error) {
	if !models.ValidAckStatus(string(status)) {
		return false, fmt.Errorf("invalid acknowledgement status %q", status)
	}

	updated, err := s.UpdateAcknowledgementStatus(ctx, policyID, employeeID, status)
	if err != nil {
		return false, err
	}
	if updated {
		s.logger.Info("acknowledgement overridden", map[string]interface{}{
			"policyId":   policyID,
			"employeeId": employeeID,
			"status":     status,
		})
	}
	return updated, nil
}

const ackDetailColumns = `
	a.policy_id, a.employee_id, a.status, a.created_at, a.updated_at,
	e.name, e.email, e.department, e.work_mode`

func scanAckDetail(rows *sql.Rows) (*models.AcknowledgementDetail, error) {
	var d models.AcknowledgementDetail
	if err := rows.Scan(
		&d.PolicyID, &d.EmployeeID, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		&d.EmployeeName, &d.EmployeeEmail, &d.Department, &d.WorkMode,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListAcknowledgements returns ledger rows joined with their employees.
// A nil policyID lists across all policies.
func (s *Store) ListAcknowledgements(ctx context.Context, policyID *int64) ([]models.AcknowledgementDetail, error) {
	query := `
		SELECT ` + ackDetailColumns + `
		FROM acknowledgements a
		JOIN employees e ON a.employee_id = e.id`
	args := []interface{}{}
	if policyID != nil {
		query += " WHERE a.policy_id = $1"
		args = append(args, *policyID)
	}
	query += " ORDER BY e.name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageError("list acknowledgements", err)
	}
	defer rows.Close()

	var out []models.AcknowledgementDetail
	for rows.Next() {
		d, err := scanAckDetail(rows)
		if err != nil {
			return nil, errors.NewStorageError("scan acknowledgement", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list acknowledgements", err)
	}
	return out, nil
}

// ListAwaiting returns every ledger row still awaiting a response, joined
// with its employee, across all policies.
func (s *Store) ListAwaiting(ctx context.Context) ([]models.AcknowledgementDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ackDetailColumns+`
		FROM acknowledgements a
		JOIN employees e ON a.employee_id = e.id
		WHERE a.status = $1
		ORDER BY a.policy_id, e.name`, models.AckAwaitingResponse)
	if err != nil {
		return nil, errors.NewStorageError("list awaiting", err)
	}
	defer rows.Close()

	var out []models.AcknowledgementDetail
	for rows.Next() {
		d, err := scanAckDetail(rows)
		if err != nil {
			return nil, errors.NewStorageError("scan acknowledgement", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list awaiting", err)
	}
	return out, nil
}

// CountAcknowledgementsByStatus aggregates ledger rows per status for the
// stats endpoint.
func (s *Store) CountAcknowledgementsByStatus(ctx context.Context) (map[models.AckStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM acknowledgements GROUP BY status`)
	if err != nil {
		return nil, errors.NewStorageError("count acknowledgements", err)
	}
	defer rows.Close()

	out := make(map[models.AckStatus]int)
	for rows.Next() {
		var status models.AckStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errors.NewStorageError("scan count", err)
		}
		out[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("count acknowledgements", err)
	}
	return out, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package store

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/logger"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/models"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, logger.NewTestLogger(t)), mock
}

func TestListEligibleEmployees_Criteria(t *testing.T) {
	tests := []struct {
		name       string
		department string
		workMode   models.WorkMode
		wantQuery  string
		wantArgs   []driverValue
	}{
		{
			name:       "department only",
			department: "IT",
			wantQuery:  `SELECT id, name, email, department, work_mode FROM employees WHERE department = \$1 ORDER BY id`,
			wantArgs:   []driverValue{"IT"},
		},
		{
			name:      "work mode only",
			workMode:  models.WorkModeRemote,
			wantQuery: `SELECT id, name, email, department, work_mode FROM employees WHERE work_mode = \$1 ORDER BY id`,
			wantArgs:  []driverValue{"Remote"},
		},
		{
			name:       "both",
			department: "IT",
			workMode:   models.WorkModeRemote,
			wantQuery:  `SELECT id, name, email, department, work_mode FROM employees WHERE department = \$1 AND work_mode = \$2 ORDER BY id`,
			wantArgs:   []driverValue{"IT", "Remote"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newTestStore(t)

			args := make([]driver.Value, len(tt.wantArgs))
			for i, a := range tt.wantArgs {
				args[i] = a
			}
			mock.ExpectQuery(tt.wantQuery).
				WithArgs(args...).
				WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "department", "work_mode"}).
					AddRow(1, "Alice", "alice@x.com", "IT", "Remote"))

			got, err := s.ListEligibleEmployees(context.Background(), tt.department, tt.workMode)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "alice@x.com", got[0].Email)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

type driverValue = string

func TestSeedAcknowledgements_SkipOnConflict(t *testing.T) {
	s, mock := newTestStore(t)

	// First row inserts, second already exists.
	mock.ExpectExec(`INSERT INTO acknowledgements`).
		WithArgs(int64(5), int64(1), string(models.AckAwaitingResponse)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO acknowledgements`).
		WithArgs(int64(5), int64(2), string(models.AckAwaitingResponse)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	seeded, err := s.SeedAcknowledgements(context.Background(), 5, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, seeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAcknowledgementStatus(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE acknowledgements`).
		WithArgs(string(models.AckAcknowledged), int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := s.UpdateAcknowledgementStatus(context.Background(), 5, 7, models.AckAcknowledged)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`UPDATE acknowledgements`).
		WithArgs(string(models.AckDeclined), int64(5), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = s.UpdateAcknowledgementStatus(context.Background(), 5, 99, models.AckDeclined)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideAcknowledgement(t *testing.T) {
	s, mock := newTestStore(t)

	// A link click can never set awaiting_response; the override can.
	mock.ExpectExec(`UPDATE acknowledgements`).
		WithArgs(string(models.AckAwaitingResponse), int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := s.OverrideAcknowledgement(context.Background(), 5, 7, models.AckAwaitingResponse)
	require.NoError(t, err)
	assert.True(t, ok)

	// Flip between terminal states.
	mock.ExpectExec(`UPDATE acknowledgements`).
		WithArgs(string(models.AckAcknowledged), int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err = s.OverrideAcknowledgement(context.Background(), 5, 7, models.AckAcknowledged)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideAcknowledgement_InvalidStatus(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.OverrideAcknowledgement(context.Background(), 5, 7, models.AckStatus("retracted"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid acknowledgement status")
}

func TestOverrideAcknowledgement_NoRow(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE acknowledgements`).
		WithArgs(string(models.AckDeclined), int64(5), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.OverrideAcknowledgement(context.Background(), 5, 99, models.AckDeclined)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEmployeeByEmail_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT id, name, email, department, work_mode`).
		WithArgs("ghost@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "department", "work_mode"}))

	emp, err := s.GetEmployeeByEmail(context.Background(), "ghost@x.com")
	require.NoError(t, err)
	assert.Nil(t, emp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmployee_PartialFields(t *testing.T) {
	s, mock := newTestStore(t)

	dept := "HR"
	mode := models.WorkModeOnsite
	mock.ExpectExec(`UPDATE employees SET department = \$1, work_mode = \$2 WHERE id = \$3`).
		WithArgs("HR", "Onsite", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := s.UpdateEmployee(context.Background(), 3, models.EmployeeUpdate{
		Department: &dept,
		WorkMode:   &mode,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmployee_NoFields(t *testing.T) {
	s, _ := newTestStore(t)

	ok, err := s.UpdateEmployee(context.Background(), 3, models.EmployeeUpdate{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListAwaiting(t *testing.T) {
	s, mock := newTestStore(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"policy_id", "employee_id", "status", "created_at", "updated_at",
		"name", "email", "department", "work_mode",
	}).
		AddRow(1, 10, string(models.AckAwaitingResponse), now, now, "Alice", "alice@x.com", "IT", "Remote").
		AddRow(2, 11, string(models.AckAwaitingResponse), now, now, "Bob", "bob@x.com", "HR", "Onsite")

	mock.ExpectQuery(`FROM acknowledgements a`).
		WithArgs(string(models.AckAwaitingResponse)).
		WillReturnRows(rows)

	got, err := s.ListAwaiting(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice@x.com", got[0].EmployeeEmail)
	assert.Equal(t, models.AckAwaitingResponse, got[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAcknowledgementsByStatus(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT status, COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow(string(models.AckAwaitingResponse), 4).
			AddRow(string(models.AckAcknowledged), 2))

	counts, err := s.CountAcknowledgementsByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, counts[models.AckAwaitingResponse])
	assert.Equal(t, 2, counts[models.AckAcknowledged])
	assert.NoError(t, mock.ExpectationsWereMet())
}

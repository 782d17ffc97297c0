// internal/models/employee.go
package models

// Employee is a directory record. The engine treats it as read-only except
// for the administrative partial update below.
type Employee struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Department string   `json:"department"`
	WorkMode   WorkMode `json:"workMode"`
}

// EmployeeUpdate enumerates the fields an administrator may change on an
// employee record. Nil fields are left untouched.
type EmployeeUpdate struct {
	Name       *string   `json:"name,omitempty"`
	Email      *string   `json:"email,omitempty"`
	Department *string   `json:"department,omitempty"`
	WorkMode   *WorkMode `json:"workMode,omitempty"`
}

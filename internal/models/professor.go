package models

// Professor is read-only reference data used for load-constraint checks.
type Professor struct {
	ID           int64  `db:"id" json:"id"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	DepartmentID int64  `db:"department_id" json:"department_id"`
	MaxHours     int    `db:"max_hours" json:"max_hours"`
}

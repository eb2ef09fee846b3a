package employee

import "time"

// Employee is the directory entry the payroll reports are built from.
type Employee struct {
	ID         int64
	Name       string
	RegNo      string
	Category   string
	AvatarPath *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrRegNoExists      = errors.New("registration number already exists")
)

package domain

import "errors"

var (
	ErrMissingEmployer = errors.New("missing_employer")
)

package scoring

import "errors"

var (
	// ErrNoData is returned when no record matches the requested company.
	ErrNoData = errors.New("no data for company")
	// ErrInvalidDirection is returned for a sort direction other than asc or desc.
	ErrInvalidDirection = errors.New("invalid sort direction")
)

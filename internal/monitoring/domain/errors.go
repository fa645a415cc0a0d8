package monitoring

import "errors"

var (
	// ErrOutcomeNotFound indicates a missing outcome record.
	ErrOutcomeNotFound = errors.New("monitoring: outcome not found")
	// ErrHourNotAligned indicates a scheduled hour off the hour boundary.
	// Such outcomes could never match a generated obligation.
	ErrHourNotAligned = errors.New("monitoring: scheduled hour not on hour boundary")
	// ErrInvalidStatus indicates an unknown or unwritable outcome status.
	ErrInvalidStatus = errors.New("monitoring: invalid outcome status")
	// ErrConfigNotFound indicates a site without monitoring settings.
	ErrConfigNotFound = errors.New("monitoring: config not found")
)

package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Batch errors
	ErrInputFile     = fmt.Errorf("input file unavailable")
	ErrProgressStore = fmt.Errorf("progress store failure")
	ErrRunInProgress = fmt.Errorf("another run holds the lock for this file")
	ErrWorkUnit      = fmt.Errorf("work unit failed")
	ErrRunNotFound   = fmt.Errorf("run not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

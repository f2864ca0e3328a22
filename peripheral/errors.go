package peripheral

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrAlreadyBound  = errors.New("role already bound")
	ErrProvisioning  = errors.New("failed to provision timer resources")
	ErrClockEnable   = errors.New("failed to enable reference clock")
)

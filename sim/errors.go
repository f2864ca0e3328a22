package sim

import "errors"

var (
	ErrNoIRQ        = errors.New("node has no interrupt")
	ErrLineBusy     = errors.New("token already registered on line")
	ErrLineDisposed = errors.New("interrupt line disposed")
)

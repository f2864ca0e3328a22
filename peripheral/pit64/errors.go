package pit64

import (
	"errors"

	"omibyte.io/pit64/peripheral"
)

var (
	ErrAlreadyBound = peripheral.ErrAlreadyBound
	ErrProvisioning = peripheral.ErrProvisioning
	ErrClockEnable  = peripheral.ErrClockEnable
	ErrNotOneShot   = errors.New("clock event is not in one-shot mode")
	ErrUnknownRole  = errors.New("unknown timer role")
)

package registry

import "errors"

var (
	ErrEmptyName         = errors.New("position name is empty")
	ErrEmptyTicker       = errors.New("position ticker is empty")
	ErrNonPositiveWeight = errors.New("position weight must be positive")
	ErrDuplicatePosition = errors.New("duplicate position")
	ErrNoPositions       = errors.New("no positions configured")
)

package service

import "errors"

var (
	ErrPipelineLocked = errors.New("another pipeline run is in progress")
	ErrNoPositions    = errors.New("no positions stored")
)

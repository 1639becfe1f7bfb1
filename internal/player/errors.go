package player

import "errors"

var (
	ErrBackendUnavailable = errors.New("audio backend unavailable")
	ErrInvalidIndex       = errors.New("queue index out of range")
	ErrNothingPlaying     = errors.New("nothing is playing")
)

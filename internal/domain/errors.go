package domain

import "errors"

var (
	ErrUnknownField   = errors.New("unknown publication field")
	ErrInvalidValue   = errors.New("invalid value for publication field")
	ErrCorruptState   = errors.New("persisted publication state is corrupt")
	ErrPersist        = errors.New("failed to persist publication state")
	ErrTooManyClients = errors.New("too many display clients")
	ErrHubStopped     = errors.New("broadcast hub stopped")
)

package services

import "errors"

// Task errors
var (
	ErrTaskAlreadyRunning = errors.New("task: already running")
	ErrTaskNotFound       = errors.New("task: not found")
	ErrTaskCancelled      = errors.New("task: cancelled")
)

// Download errors
var (
	ErrUnexpectedStatus = errors.New("download: unexpected http status")
)

// Install errors
var (
	ErrProcessSpawn = errors.New("install: failed to start installer process")
)

// Version errors
var (
	ErrVersionNotFound = errors.New("version: not installed")
	ErrVersionActive   = errors.New("version: currently active")
	ErrVersionInvalid  = errors.New("version: invalid version string")
)

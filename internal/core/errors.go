package core

import "errors"

var (
	// ErrBusy is returned when every run slot stays taken for the wait
	// period. Clients should retry after a short delay.
	ErrBusy = errors.New("too many pipeline runs in progress")

	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrFileNotFound      = errors.New("file not found in workspace")
	ErrFileTooLarge      = errors.New("file too large")
	ErrTooManyFiles      = errors.New("too many files in workspace")
	ErrNoFile            = errors.New("no file provided")
	ErrRateLimited       = errors.New("rate limit exceeded")
)

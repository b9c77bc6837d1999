package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrNoCapital        = errors.New("no capital available")
	ErrNotViable        = errors.New("opportunity not viable")
	ErrAlreadyRunning   = errors.New("already running")
	ErrNotRunning       = errors.New("not running")
)

package services

import "errors"

var (
	// ErrUnknownView is returned for a view name that does not exist
	ErrUnknownView = errors.New("unknown view")

	// ErrReloadFailed wraps the cause of a reload that produced no dataset
	ErrReloadFailed = errors.New("dataset reload failed")
)

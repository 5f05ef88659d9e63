package projects

import "errors"

var (
	ErrNotFound         = errors.New("project not found")
	ErrAlreadyCompleted = errors.New("project already completed")
)

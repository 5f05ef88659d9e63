package catalog

import "errors"

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrModuleNotFound  = errors.New("module not part of course")
	ErrAlreadyEnrolled = errors.New("user already enrolled in course")
	ErrNotEnrolled     = errors.New("user not enrolled in course")
)

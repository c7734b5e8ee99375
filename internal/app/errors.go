package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrNotStarted      = errors.New("service not started")
)

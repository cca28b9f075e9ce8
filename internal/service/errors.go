package service

import "errors"

// ErrInvalidRequest is returned when a request fails validation
var ErrInvalidRequest = errors.New("invalid request")

// ErrTaskNotActive is returned when cancelling a finished task
var ErrTaskNotActive = errors.New("task is not active")

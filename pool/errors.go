package pool

import "errors"

var (
	// ErrWorkerRequired is returned when RunAll is called without a worker.
	ErrWorkerRequired = errors.New("worker function required")
)

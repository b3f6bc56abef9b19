package worker

import "errors"

// Ошибки воркера.
var (
	// ErrWorkerStopped — воркер остановлен.
	ErrWorkerStopped = errors.New("worker stopped")

	// ErrStaleJob — job завис в running и закрыт воркером.
	ErrStaleJob = errors.New("job stuck in running")
)

package domain

import "errors"

// ErrJobFinalized — попытка повторно финализировать job.
var ErrJobFinalized = errors.New("job already finalized")

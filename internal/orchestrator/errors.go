package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrQualityGateFailed — статья не прошла quality gate.
	// Это штатный исход: используется как метка в результате, не возвращается.
	ErrQualityGateFailed = errors.New("quality_gate_failed")

	// ErrAlreadyFinalized — повторная финализация job в рамках одного запуска.
	ErrAlreadyFinalized = errors.New("job already finalized in this run")
)

package stages

import "errors"

// Ошибки удалённых стадий. Наружу из Gateway не выходят.
var (
	// ErrStageUnavailable — стадия не настроена, недоступна или ответила >= 400.
	ErrStageUnavailable = errors.New("stage unavailable")

	// ErrBadResponse — ответ стадии не удалось разобрать.
	ErrBadResponse = errors.New("bad stage response")
)

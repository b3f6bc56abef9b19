package domain

// JobStatus — статус выполнения job.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ FAILED
//	          (или) → CANCELLED (из PENDING или RUNNING)
//
// Daily run создаётся сразу в RUNNING. Финальный статус выставляется ровно один раз.
type JobStatus string

const (
	// JobStatusPending — job создан, но ещё не начал выполняться.
	JobStatusPending JobStatus = "pending"

	// JobStatusRunning — job в процессе выполнения.
	JobStatusRunning JobStatus = "running"

	// JobStatusCompleted — job завершён (в том числе с отказом quality gate).
	JobStatusCompleted JobStatus = "completed"

	// JobStatusFailed — job завершился с ошибкой.
	JobStatusFailed JobStatus = "failed"

	// JobStatusCancelled — job отменён внешним сигналом.
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal возвращает true, если статус финальный (job завершён).
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// JobType — тип job.
type JobType string

const (
	// JobTypeDailyRun — ежедневный пайплайн.
	JobTypeDailyRun JobType = "daily_run"
)

// ArticleStatus — статус статьи.
//
// Жизненный цикл:
//
//	DRAFT → PENDING_APPROVAL → APPROVED → PUBLISHED → ARCHIVED
//	                         ↘ REJECTED
//
// Пайплайн создаёт статьи только в PENDING_APPROVAL или PUBLISHED,
// остальные переходы выполняет человек.
type ArticleStatus string

const (
	ArticleStatusDraft           ArticleStatus = "draft"
	ArticleStatusPendingApproval ArticleStatus = "pending_approval"
	ArticleStatusApproved        ArticleStatus = "approved"
	ArticleStatusPublished       ArticleStatus = "published"
	ArticleStatusRejected        ArticleStatus = "rejected"
	ArticleStatusArchived        ArticleStatus = "archived"
)

// String возвращает строковое представление ArticleStatus.
func (s ArticleStatus) String() string {
	return string(s)
}

// ParseArticleStatus парсит строку в ArticleStatus.
func ParseArticleStatus(s string) (ArticleStatus, bool) {
	switch ArticleStatus(s) {
	case ArticleStatusDraft, ArticleStatusPendingApproval, ArticleStatusApproved,
		ArticleStatusPublished, ArticleStatusRejected, ArticleStatusArchived:
		return ArticleStatus(s), true
	default:
		return "", false
	}
}

// Region — география трафика кластера.
type Region string

const (
	// RegionMoscow — Москва.
	RegionMoscow Region = "moscow"

	// RegionRF — остальная РФ.
	RegionRF Region = "rf"
)

// ParseRegion парсит строку в Region.
func ParseRegion(s string) (Region, bool) {
	switch Region(s) {
	case RegionMoscow, RegionRF:
		return Region(s), true
	default:
		return "", false
	}
}

// PublishMode — режим публикации.
type PublishMode string

const (
	// PublishModeAuto — публиковать сразу, если разрешено.
	PublishModeAuto PublishMode = "auto"

	// PublishModeSemi — всегда отправлять на утверждение.
	PublishModeSemi PublishMode = "semi"
)

// ParsePublishMode парсит строку в PublishMode.
func ParsePublishMode(s string) (PublishMode, bool) {
	switch PublishMode(s) {
	case PublishModeAuto, PublishModeSemi:
		return PublishMode(s), true
	default:
		return "", false
	}
}

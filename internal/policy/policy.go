// Package policy — решение о live-публикации.
package policy

import "github.com/shaiso/seoagent/internal/domain"

// ShouldPublishLive разрешает live-публикацию только если согласны все три
// предохранителя: запуск не dry-run, режим auto и глобальный DRY_RUN выключен.
func ShouldPublishLive(dryRun bool, mode domain.PublishMode, globalDryRun bool) bool {
	return !dryRun && mode == domain.PublishModeAuto && !globalDryRun
}

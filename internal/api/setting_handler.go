package api

import (
	"net/http"
	"strings"

	"github.com/shaiso/seoagent/internal/config"
)

// GetSetting возвращает override по ключу.
// GET /api/v1/settings/{key}
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	value, ok, err := h.settings.Get(r.Context(), key)
	if HandleRepoError(w, r, err, "") {
		return
	}

	Success(w, SettingResponse{Key: key, Value: value, Set: ok})
}

// PutSetting записывает override.
// PUT /api/v1/settings/{key}
func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req PutSettingRequest
	if err := decodeJSON(r, &req, false); err != nil {
		BadRequest(w, err.Error())
		return
	}

	value := strings.TrimSpace(req.Value)
	if err := config.ValidateSetting(key, value); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if err := h.settings.Set(r.Context(), key, value); HandleRepoError(w, r, err, "") {
		return
	}

	h.logger.Info("setting updated", "key", key, "value", value)
	Success(w, SettingResponse{Key: key, Value: value, Set: true})
}

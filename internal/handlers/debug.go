package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"pronounce-gateway/internal/cache"
	"pronounce-gateway/pkg/logging"
)

// CacheInspector is the operational surface of the server cache.
type CacheInspector interface {
	Stats(ctx context.Context) (cache.Stats, error)
	Prune(ctx context.Context) (cache.PruneResult, error)
	ClearMemory() int
}

type DebugHandler struct {
	Cache CacheInspector
}

func NewDebugHandler(c CacheInspector) *DebugHandler {
	return &DebugHandler{Cache: c}
}

// Stats handles GET /debug/cache.
func (h *DebugHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Cache.Stats(r.Context())
	if err != nil {
		logging.L(r.Context()).Error("cache stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorResponse{
			Error:   codeInternal,
			Message: "cache stats unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Clear handles DELETE /debug/cache. Only the memory tier is emptied.
func (h *DebugHandler) Clear(w http.ResponseWriter, r *http.Request) {
	n := h.Cache.ClearMemory()
	logging.L(r.Context()).Info("memory tier cleared", zap.Int("entries", n))
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

// Prune handles POST /debug/cache/prune.
func (h *DebugHandler) Prune(w http.ResponseWriter, r *http.Request) {
	res, err := h.Cache.Prune(r.Context())
	if err != nil {
		logging.L(r.Context()).Error("cache prune failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorResponse{
			Error:   codeInternal,
			Message: "cache prune failed",
		})
		return
	}
	logging.L(r.Context()).Info("cache pruned",
		zap.Int("expired", res.Expired),
		zap.Int("stale", res.Stale),
		zap.Int("memory", res.Memory),
	)
	writeJSON(w, http.StatusOK, res)
}

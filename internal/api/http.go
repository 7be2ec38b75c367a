package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kalambet/fitai/internal/engine"
	"github.com/kalambet/fitai/internal/plan"
	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/reconcile"
)

const maxRequestBodySize = 1 << 20 // 1MB

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "profile not found")
	case errors.Is(err, reconcile.ErrUnknownField):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%s: %v", op, err)
	case errors.Is(err, engine.ErrModel), errors.Is(err, plan.ErrRegeneration):
		httpError(w, http.StatusBadGateway, "model_error", "%s: %v", op, err)
	default:
		slog.Error("request failed", "op", op, "error", err)
		httpError(w, http.StatusInternalServerError, "api_error", "%s: %v", op, err)
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/shipshape/internal/mission"
)

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func familyIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get("family_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("family_id is required")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
// Validation refusals are 400, missing references 404, lost races 409, and
// anything else is a 500 with the detail kept server-side.
func writeEngineError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, mission.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, mission.ErrNotPending), errors.Is(err, mission.ErrAlreadyRefunded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, mission.ErrNotTemplate),
		errors.Is(err, mission.ErrMissionClosed),
		errors.Is(err, mission.ErrRewardInactive),
		errors.Is(err, mission.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

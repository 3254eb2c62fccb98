package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/shipshape/internal/mission"
	"github.com/dukerupert/shipshape/internal/model"
	"github.com/dukerupert/shipshape/internal/store"
	"github.com/dukerupert/shipshape/internal/websocket"
)

// maxProofSize caps proof photo uploads at 10 MiB.
const maxProofSize = 10 << 20

// ProofPutter stores a proof photo and returns its opaque key. Nil when
// object storage is not configured; attempts then carry no photo.
type ProofPutter interface {
	Put(ctx context.Context, familyID int64, data []byte, contentType string) (string, error)
}

type AttemptHandler struct {
	engine       *mission.Engine
	attemptStore *store.AttemptStore
	missionStore *store.MissionStore
	proofs       ProofPutter
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewAttemptHandler(engine *mission.Engine, as *store.AttemptStore, ms *store.MissionStore, proofs ProofPutter, hub *websocket.Hub, logger *slog.Logger) *AttemptHandler {
	return &AttemptHandler{engine: engine, attemptStore: as, missionStore: ms, proofs: proofs, hub: hub, logger: logger}
}

func (h *AttemptHandler) broadcast(familyID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(familyID, msg)
	}
}

// Submit accepts a recruit's proof-of-completion as multipart form data:
// a profile_id field and an optional photo file.
func (h *AttemptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	missionID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	m, err := h.missionStore.GetByID(missionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get mission")
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "mission not found")
		return
	}

	if err := r.ParseMultipartForm(maxProofSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	profileID, err := strconv.ParseInt(r.FormValue("profile_id"), 10, 64)
	if err != nil || profileID <= 0 {
		writeError(w, http.StatusBadRequest, "profile_id is required")
		return
	}

	var proofKey string
	if file, header, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		if h.proofs == nil {
			writeError(w, http.StatusBadRequest, "proof storage is not configured")
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxProofSize+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read photo")
			return
		}
		if len(data) > maxProofSize {
			writeError(w, http.StatusBadRequest, "photo too large")
			return
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/jpeg"
		}
		proofKey, err = h.proofs.Put(r.Context(), m.FamilyID, data, contentType)
		if err != nil {
			h.logger.Error("store proof", "error", err)
			writeError(w, http.StatusBadGateway, "failed to store proof photo")
			return
		}
	}

	attempt, err := h.engine.SubmitAttempt(r.Context(), missionID, profileID, proofKey)
	if err != nil {
		writeEngineError(w, h.logger, "submit attempt", err)
		return
	}

	h.broadcast(m.FamilyID, websocket.NewMessage("attempt", "submitted", attempt.ID, map[string]any{
		"mission_id": missionID,
	}))
	writeJSON(w, http.StatusCreated, attempt)
}

func (h *AttemptHandler) ListByMission(w http.ResponseWriter, r *http.Request) {
	missionID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	attempts, err := h.attemptStore.ListByMission(missionID)
	if err != nil {
		h.logger.Error("list attempts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list attempts")
		return
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (h *AttemptHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	familyID, err := familyIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attempts, err := h.attemptStore.ListPending(familyID)
	if err != nil {
		h.logger.Error("list pending attempts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list pending attempts")
		return
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	writeJSON(w, http.StatusOK, attempts)
}

type reviewRequest struct {
	ReviewedBy int64  `json:"reviewed_by"`
	Reason     string `json:"reason"`
}

func (h *AttemptHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ReviewedBy <= 0 {
		writeError(w, http.StatusBadRequest, "reviewed_by is required")
		return
	}

	attempt, err := h.engine.ApproveAttempt(r.Context(), id, req.ReviewedBy)
	if err != nil {
		writeEngineError(w, h.logger, "approve attempt", err)
		return
	}

	if m, err := h.missionStore.GetByID(attempt.MissionID); err == nil && m != nil {
		h.broadcast(m.FamilyID, websocket.NewMessage("attempt", "approved", attempt.ID, map[string]any{
			"mission_id": attempt.MissionID,
			"profile_id": attempt.ProfileID,
			"earned":     attempt.EarnedValue,
		}))
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *AttemptHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ReviewedBy <= 0 {
		writeError(w, http.StatusBadRequest, "reviewed_by is required")
		return
	}

	attempt, err := h.engine.RejectAttempt(r.Context(), id, req.ReviewedBy, req.Reason)
	if err != nil {
		writeEngineError(w, h.logger, "reject attempt", err)
		return
	}

	if m, err := h.missionStore.GetByID(attempt.MissionID); err == nil && m != nil {
		h.broadcast(m.FamilyID, websocket.NewMessage("attempt", "rejected", attempt.ID, map[string]any{
			"mission_id": attempt.MissionID,
			"profile_id": attempt.ProfileID,
		}))
	}
	writeJSON(w, http.StatusOK, attempt)
}

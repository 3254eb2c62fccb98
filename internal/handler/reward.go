package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/shipshape/internal/mission"
	"github.com/dukerupert/shipshape/internal/model"
	"github.com/dukerupert/shipshape/internal/store"
	"github.com/dukerupert/shipshape/internal/websocket"
)

type RewardHandler struct {
	engine      *mission.Engine
	rewardStore *store.RewardStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewRewardHandler(engine *mission.Engine, rs *store.RewardStore, hub *websocket.Hub, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{engine: engine, rewardStore: rs, hub: hub, logger: logger}
}

func (h *RewardHandler) broadcast(familyID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(familyID, msg)
	}
}

type rewardRequest struct {
	FamilyID    int64  `json:"family_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	Active      bool   `json:"active"`
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.FamilyID <= 0 {
		writeError(w, http.StatusBadRequest, "family_id is required")
		return
	}
	if req.Cost < 0 {
		writeError(w, http.StatusBadRequest, "cost must not be negative")
		return
	}

	reward, err := h.rewardStore.Create(req.FamilyID, req.Title, req.Description, req.Cost, req.Active)
	if err != nil {
		h.logger.Error("create reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create reward")
		return
	}

	h.broadcast(reward.FamilyID, websocket.NewMessage("reward", "created", reward.ID, nil))
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, err := familyIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rewards, err := h.rewardStore.List(familyID)
	if err != nil {
		h.logger.Error("list rewards", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list rewards")
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.rewardStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	reward, err := h.rewardStore.Update(id, req.Title, req.Description, req.Cost, req.Active)
	if err != nil {
		h.logger.Error("update reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}

	h.broadcast(reward.FamilyID, websocket.NewMessage("reward", "updated", id, nil))
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.rewardStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}

	if err := h.rewardStore.Delete(id); err != nil {
		h.logger.Error("delete reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete reward")
		return
	}

	h.broadcast(existing.FamilyID, websocket.NewMessage("reward", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		ProfileID int64 `json:"profile_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ProfileID <= 0 {
		writeError(w, http.StatusBadRequest, "profile_id is required")
		return
	}

	redemption, err := h.engine.RedeemReward(r.Context(), id, req.ProfileID)
	if err != nil {
		writeEngineError(w, h.logger, "redeem reward", err)
		return
	}

	if reward, err := h.rewardStore.GetByID(id); err == nil && reward != nil {
		h.broadcast(reward.FamilyID, websocket.NewMessage("reward", "redeemed", id, map[string]any{
			"profile_id": req.ProfileID,
			"cost":       redemption.CostPaid,
		}))
	}
	writeJSON(w, http.StatusCreated, redemption)
}

func (h *RewardHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	redemption, err := h.engine.RefundRedemption(r.Context(), id)
	if err != nil {
		writeEngineError(w, h.logger, "refund redemption", err)
		return
	}

	if reward, err := h.rewardStore.GetByID(redemption.RewardID); err == nil && reward != nil {
		h.broadcast(reward.FamilyID, websocket.NewMessage("reward", "refunded", redemption.ID, map[string]any{
			"profile_id": redemption.ProfileID,
		}))
	}
	writeJSON(w, http.StatusOK, redemption)
}

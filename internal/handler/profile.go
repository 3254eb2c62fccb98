package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/dukerupert/shipshape/internal/model"
	"github.com/dukerupert/shipshape/internal/store"
	"github.com/dukerupert/shipshape/internal/websocket"
	"golang.org/x/crypto/bcrypt"
)

var (
	hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	pinRegexp      = regexp.MustCompile(`^\d{4,8}$`)
)

type ProfileHandler struct {
	store  *store.ProfileStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewProfileHandler(s *store.ProfileStore, hub *websocket.Hub, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{store: s, hub: hub, logger: logger}
}

func (h *ProfileHandler) broadcast(familyID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(familyID, msg)
	}
}

func (h *ProfileHandler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	family, err := h.store.CreateFamily(req.Name)
	if err != nil {
		h.logger.Error("create family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create family")
		return
	}
	writeJSON(w, http.StatusCreated, family)
}

type profileRequest struct {
	FamilyID    int64  `json:"family_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Color       string `json:"color"`
	AvatarEmoji string `json:"avatar_emoji"`
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.FamilyID <= 0 {
		writeError(w, http.StatusBadRequest, "family_id is required")
		return
	}

	role := model.Role(req.Role)
	if role == "" {
		role = model.RoleRecruit
	}
	if role != model.RoleCaptain && role != model.RoleRecruit {
		writeError(w, http.StatusBadRequest, "role must be captain or recruit")
		return
	}

	if req.Color == "" {
		req.Color = "#3B82F6"
	}
	if !hexColorRegexp.MatchString(req.Color) {
		writeError(w, http.StatusBadRequest, "color must be a hex color (e.g. #FF0000)")
		return
	}

	family, err := h.store.GetFamily(req.FamilyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check family")
		return
	}
	if family == nil {
		writeError(w, http.StatusBadRequest, "family not found")
		return
	}

	profile, err := h.store.Create(req.FamilyID, req.Name, role, req.Color, req.AvatarEmoji)
	if err != nil {
		h.logger.Error("create profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}

	h.broadcast(profile.FamilyID, websocket.NewMessage("profile", "created", profile.ID, nil))
	writeJSON(w, http.StatusCreated, profile)
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, err := familyIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profiles, err := h.store.ListByFamily(familyID)
	if err != nil {
		h.logger.Error("list profiles", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []model.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Color == "" {
		req.Color = existing.Color
	}
	if !hexColorRegexp.MatchString(req.Color) {
		writeError(w, http.StatusBadRequest, "color must be a hex color (e.g. #FF0000)")
		return
	}

	profile, err := h.store.Update(id, req.Name, req.Color, req.AvatarEmoji)
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	h.broadcast(profile.FamilyID, websocket.NewMessage("profile", "updated", id, nil))
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete profile")
		return
	}

	h.broadcast(existing.FamilyID, websocket.NewMessage("profile", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Balance returns a profile with its current coin balance.
func (h *ProfileHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	profile, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"profile_id": profile.ID,
		"name":       profile.Name,
		"balance":    profile.Balance,
	})
}

// History returns the ledger of balance deltas for a profile, newest first.
func (h *ProfileHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	entries, err := h.store.ListBalanceEntries(id)
	if err != nil {
		h.logger.Error("list balance entries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list balance history")
		return
	}
	if entries == nil {
		entries = []model.BalanceEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- PIN methods ---

func (h *ProfileHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !pinRegexp.MatchString(req.PIN) {
		writeError(w, http.StatusBadRequest, "pin must be 4-8 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash pin")
		return
	}

	if err := h.store.SetPIN(id, string(hash)); err != nil {
		h.logger.Error("set pin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set pin")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.store.ClearPIN(id); err != nil {
		h.logger.Error("clear pin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear pin")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hash, err := h.store.GetPINHash(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if hash == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]bool{"valid": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/shipshape/internal/mission"
	"github.com/dukerupert/shipshape/internal/model"
	"github.com/dukerupert/shipshape/internal/store"
	"github.com/dukerupert/shipshape/internal/websocket"
)

type MissionHandler struct {
	engine       *mission.Engine
	missionStore *store.MissionStore
	profileStore *store.ProfileStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewMissionHandler(engine *mission.Engine, ms *store.MissionStore, ps *store.ProfileStore, hub *websocket.Hub, logger *slog.Logger) *MissionHandler {
	return &MissionHandler{engine: engine, missionStore: ms, profileStore: ps, hub: hub, logger: logger}
}

func (h *MissionHandler) broadcast(familyID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(familyID, msg)
	}
}

type missionRequest struct {
	FamilyID          int64  `json:"family_id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Icon              string `json:"icon"`
	RewardType        string `json:"reward_type"`
	RewardAmount      int    `json:"reward_amount"`
	CustomRewardLabel string `json:"custom_reward_label"`
	AssignedTo        *int64 `json:"assigned_to"`
	IsRecurring       bool   `json:"is_recurring"`
	RecurrenceDays    []any  `json:"recurrence_days"`
	StartTime         string `json:"start_time"`
	Deadline          string `json:"deadline"`
}

// toMission validates and normalizes the request. Weekdays arrive from
// clients as numbers or as names; both are folded into time.Weekday here.
func (req *missionRequest) toMission() (*model.Mission, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	rewardType := model.RewardType(req.RewardType)
	if rewardType == "" {
		rewardType = model.RewardCoins
	}
	switch rewardType {
	case model.RewardCoins:
		if req.RewardAmount < 0 {
			return nil, fmt.Errorf("reward_amount must not be negative")
		}
	case model.RewardCustom:
		if strings.TrimSpace(req.CustomRewardLabel) == "" {
			return nil, fmt.Errorf("custom_reward_label is required for custom rewards")
		}
	default:
		return nil, fmt.Errorf("unknown reward_type %q", req.RewardType)
	}

	m := &model.Mission{
		FamilyID:          req.FamilyID,
		Title:             req.Title,
		Description:       req.Description,
		Icon:              req.Icon,
		RewardType:        rewardType,
		RewardAmount:      req.RewardAmount,
		CustomRewardLabel: strings.TrimSpace(req.CustomRewardLabel),
		AssignedTo:        req.AssignedTo,
		IsRecurring:       req.IsRecurring,
	}

	for _, raw := range req.RecurrenceDays {
		var token string
		switch v := raw.(type) {
		case float64:
			token = strconv.Itoa(int(v))
		case string:
			token = v
		default:
			return nil, fmt.Errorf("recurrence_days entries must be numbers or day names")
		}
		wd, err := model.ParseWeekday(token)
		if err != nil {
			return nil, err
		}
		if !mission.ScheduledOn(m.RecurrenceDays, wd) {
			m.RecurrenceDays = append(m.RecurrenceDays, wd)
		}
	}

	if req.StartTime != "" {
		ct, err := model.ParseClock(req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("start_time: %w", err)
		}
		m.StartTime = &ct
	}
	if req.Deadline != "" {
		ct, err := model.ParseClock(req.Deadline)
		if err != nil {
			return nil, fmt.Errorf("deadline: %w", err)
		}
		m.Deadline = &ct
	}

	return m, nil
}

func (h *MissionHandler) checkAssignee(w http.ResponseWriter, m *model.Mission) bool {
	if m.AssignedTo == nil {
		return true
	}
	p, err := h.profileStore.GetByID(*m.AssignedTo)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check profile")
		return false
	}
	if p == nil || p.FamilyID != m.FamilyID {
		writeError(w, http.StatusBadRequest, "assigned profile not found in family")
		return false
	}
	return true
}

func (h *MissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req missionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.FamilyID <= 0 {
		writeError(w, http.StatusBadRequest, "family_id is required")
		return
	}

	m, err := req.toMission()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.checkAssignee(w, m) {
		return
	}

	created, err := h.missionStore.Create(m)
	if err != nil {
		h.logger.Error("create mission", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create mission")
		return
	}

	h.broadcast(created.FamilyID, websocket.NewMessage("mission", "created", created.ID, nil))
	writeJSON(w, http.StatusCreated, created)
}

func (h *MissionHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, err := familyIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var status *model.MissionStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := model.MissionStatus(raw)
		if !model.ValidMissionStatus(s) || s == model.StatusTemplate {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		status = &s
	}

	missions, err := h.missionStore.List(familyID, status, false)
	if err != nil {
		h.logger.Error("list missions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list missions")
		return
	}
	if missions == nil {
		missions = []model.Mission{}
	}
	writeJSON(w, http.StatusOK, missions)
}

func (h *MissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	m, err := h.missionStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get mission")
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "mission not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.missionStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get mission")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "mission not found")
		return
	}

	var req missionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.FamilyID = existing.FamilyID

	m, err := req.toMission()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.checkAssignee(w, m) {
		return
	}
	m.ID = id

	updated, err := h.missionStore.Update(m)
	if err != nil {
		h.logger.Error("update mission", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update mission")
		return
	}

	h.broadcast(updated.FamilyID, websocket.NewMessage("mission", "updated", id, nil))
	writeJSON(w, http.StatusOK, updated)
}

// Delete archives a live mission. Attempt history stays intact; only
// templates are ever physically removed.
func (h *MissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.missionStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get mission")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "mission not found")
		return
	}
	if existing.IsTemplate {
		writeError(w, http.StatusBadRequest, "use the template delete endpoint")
		return
	}

	if err := h.missionStore.Archive(id); err != nil {
		h.logger.Error("archive mission", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to archive mission")
		return
	}

	h.broadcast(existing.FamilyID, websocket.NewMessage("mission", "archived", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Reconcile recomputes mission statuses for a family on demand. The same
// routine runs periodically in the background sweeper.
func (h *MissionHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	familyID, err := familyIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	transitions, err := h.engine.RunReconciliation(r.Context(), familyID)
	if err != nil {
		writeEngineError(w, h.logger, "reconcile", err)
		return
	}

	for _, t := range transitions {
		h.broadcast(familyID, websocket.NewMessage("mission", "status_changed", t.MissionID, map[string]any{
			"from": string(t.From),
			"to":   string(t.To),
		}))
	}

	writeJSON(w, http.StatusOK, map[string]any{"transitions": len(transitions)})
}

// --- Template operations ---

func (h *MissionHandler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	t, err := h.engine.SaveAsTemplate(r.Context(), id)
	if err != nil {
		writeEngineError(w, h.logger, "save template", err)
		return
	}

	h.broadcast(t.FamilyID, websocket.NewMessage("template", "created", t.ID, nil))
	writeJSON(w, http.StatusCreated, t)
}

func (h *MissionHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	familyID, err := familyIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	templates, err := h.missionStore.ListTemplates(familyID)
	if err != nil {
		h.logger.Error("list templates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	if templates == nil {
		templates = []model.Mission{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *MissionHandler) InstantiateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	m, err := h.engine.InstantiateTemplate(r.Context(), id)
	if err != nil {
		writeEngineError(w, h.logger, "instantiate template", err)
		return
	}

	h.broadcast(m.FamilyID, websocket.NewMessage("mission", "created", m.ID, nil))
	writeJSON(w, http.StatusCreated, m)
}

// LaunchTemplate overwrites the template's fields and creates a live
// instance in one atomic operation.
func (h *MissionHandler) LaunchTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req missionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	// Family comes from the template row; the body cannot move it.
	fields, err := req.toMission()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	template, instance, err := h.engine.UpdateTemplateAndLaunch(r.Context(), id, fields)
	if err != nil {
		writeEngineError(w, h.logger, "launch template", err)
		return
	}

	h.broadcast(template.FamilyID, websocket.NewMessage("template", "updated", template.ID, nil))
	h.broadcast(instance.FamilyID, websocket.NewMessage("mission", "created", instance.ID, nil))
	writeJSON(w, http.StatusCreated, map[string]any{
		"template": template,
		"mission":  instance,
	})
}

func (h *MissionHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.missionStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	if !existing.IsTemplate {
		writeError(w, http.StatusBadRequest, "mission is not a template")
		return
	}

	if err := h.missionStore.Delete(id); err != nil {
		h.logger.Error("delete template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete template")
		return
	}

	h.broadcast(existing.FamilyID, websocket.NewMessage("template", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/bywater/internal/auth"
	"github.com/dukerupert/bywater/internal/model"
	"github.com/dukerupert/bywater/internal/store"
	"github.com/dukerupert/bywater/internal/websocket"
)

type ActivityHandler struct {
	activities *store.ActivityStore
	schedules  *store.ScheduleStore
	families   *store.FamilyStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewActivityHandler(as *store.ActivityStore, ss *store.ScheduleStore, fs *store.FamilyStore, hub *websocket.Hub, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activities: as, schedules: ss, families: fs, hub: hub, logger: logger}
}

func (h *ActivityHandler) broadcast(familyID int64, msg websocket.Message) {
	if h.hub != nil && familyID != 0 {
		h.hub.Broadcast(familyID, msg)
	}
}

type activityRequest struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	DefaultMinutes int    `json:"default_minutes"`
	OwnerType      string `json:"owner_type"`
	IsRota         bool   `json:"is_rota"`
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	category := model.Category(req.Category)
	if category.Rank() > 3 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
		return
	}
	if req.DefaultMinutes < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "default_minutes must not be negative"})
		return
	}

	var userID, familyID *int64
	switch req.OwnerType {
	case model.OwnerPersonal:
		userID = &ac.UserID
		if req.IsRota {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "personal activities cannot be rota"})
			return
		}
	case model.OwnerFamily:
		if ac.FamilyID == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no active family"})
			return
		}
		familyID = &ac.FamilyID
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner_type must be personal or family"})
		return
	}

	activity, err := h.activities.Create(req.Name, category, req.DefaultMinutes, req.OwnerType, userID, familyID, req.IsRota)
	if err != nil {
		h.logger.Error("create activity", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create activity"})
		return
	}

	h.broadcast(ac.FamilyID, websocket.NewMessage("activity", "created", activity.ID, nil))
	writeJSON(w, http.StatusCreated, activity)
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	activities, err := h.activities.ListForUser(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list activities"})
		return
	}
	if activities == nil {
		activities = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	activity, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	existing, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	category := model.Category(req.Category)
	if category.Rank() > 3 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
		return
	}
	if existing.OwnerType == model.OwnerPersonal && req.IsRota {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "personal activities cannot be rota"})
		return
	}

	activity, err := h.activities.Update(existing.ID, req.Name, category, req.DefaultMinutes, req.IsRota)
	if err != nil {
		h.logger.Error("update activity", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update activity"})
		return
	}

	h.broadcast(ac.FamilyID, websocket.NewMessage("activity", "updated", activity.ID, nil))
	writeJSON(w, http.StatusOK, activity)
}

// Delete deactivates an activity. The row stays so historical completions
// keep their join target.
func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	existing, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.activities.Deactivate(existing.ID); err != nil {
		h.logger.Error("deactivate activity", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete activity"})
		return
	}

	h.broadcast(ac.FamilyID, websocket.NewMessage("activity", "deleted", existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ActivityHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	entries, err := h.schedules.ListForActivity(existing.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list schedule"})
		return
	}
	if entries == nil {
		entries = []model.ScheduleEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type scheduleSlotRequest struct {
	UserID      *int64 `json:"user_id"`
	WeekOfCycle int    `json:"week_of_cycle"`
	DayOfWeek   int    `json:"day_of_week"`
}

// PutSchedule replaces the activity's schedule entries wholesale.
func (h *ActivityHandler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	existing, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req []scheduleSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	slots := make([]store.Slot, 0, len(req))
	for _, s := range req {
		if s.WeekOfCycle < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week_of_cycle must be at least 1"})
			return
		}
		if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "day_of_week must be 0-6 (Monday-Sunday)"})
			return
		}
		if existing.OwnerType == model.OwnerPersonal {
			// Personal schedules always belong to the owner
			s.UserID = existing.UserID
		}
		slots = append(slots, store.Slot{UserID: s.UserID, WeekOfCycle: s.WeekOfCycle, DayOfWeek: s.DayOfWeek})
	}

	if err := h.schedules.Rewrite(existing.ID, slots); err != nil {
		h.logger.Error("rewrite schedule", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update schedule"})
		return
	}

	h.broadcast(ac.FamilyID, websocket.NewMessage("schedule", "updated", existing.ID, nil))

	entries, err := h.schedules.ListForActivity(existing.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list schedule"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// loadOwned fetches the activity from the path id and checks the caller can
// see it: their own personal activity, or one owned by a family they belong
// to. Writes the error response itself when the check fails.
func (h *ActivityHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*model.Activity, bool) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return nil, false
	}

	activity, err := h.activities.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get activity"})
		return nil, false
	}
	if activity == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "activity not found"})
		return nil, false
	}

	switch activity.OwnerType {
	case model.OwnerPersonal:
		if activity.UserID == nil || *activity.UserID != ac.UserID {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your activity"})
			return nil, false
		}
	case model.OwnerFamily:
		if activity.FamilyID == nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "activity has no owner"})
			return nil, false
		}
		member, err := h.families.GetMember(*activity.FamilyID, ac.UserID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check membership"})
			return nil, false
		}
		if member == nil {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "not a member of the owning family"})
			return nil, false
		}
	}

	return activity, true
}

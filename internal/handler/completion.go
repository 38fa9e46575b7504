package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/bywater/internal/auth"
	"github.com/dukerupert/bywater/internal/cycle"
	"github.com/dukerupert/bywater/internal/model"
	"github.com/dukerupert/bywater/internal/push"
	"github.com/dukerupert/bywater/internal/store"
	"github.com/dukerupert/bywater/internal/timer"
	"github.com/dukerupert/bywater/internal/websocket"
)

type CompletionHandler struct {
	timer       *timer.Service
	completions *store.CompletionStore
	activities  *store.ActivityStore
	users       *store.UserStore
	families    *store.FamilyStore
	hub         *websocket.Hub
	alerts      *push.Scheduler
	logger      *slog.Logger
}

func NewCompletionHandler(ts *timer.Service, cs *store.CompletionStore, as *store.ActivityStore, us *store.UserStore, fs *store.FamilyStore, hub *websocket.Hub, alerts *push.Scheduler, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{
		timer:       ts,
		completions: cs,
		activities:  as,
		users:       us,
		families:    fs,
		hub:         hub,
		alerts:      alerts,
		logger:      logger,
	}
}

type transitionRequest struct {
	ActivityID      int64   `json:"activity_id"`
	UserID          *int64  `json:"user_id"`
	Date            string  `json:"date"`
	Status          string  `json:"status"`
	OverrideMinutes *int    `json:"override_minutes"`
	DeferredTo      *string `json:"deferred_to"`
}

// Transition applies a status change to a completion row for an activity and
// date, creating the row if this is the first interaction. The optional
// user_id field lets family members record a transition for each other (a
// parent marking a child's task done); it defaults to the caller.
func (h *CompletionHandler) Transition(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if _, err := cycle.ParseDate(req.Date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	targetUserID := ac.UserID
	if req.UserID != nil {
		targetUserID = *req.UserID
	}
	if targetUserID != ac.UserID {
		shared, err := h.families.SharesFamily(ac.UserID, targetUserID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check membership"})
			return
		}
		if !shared {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "user is not in your family"})
			return
		}
	}

	activity, err := h.activities.GetByID(req.ActivityID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get activity"})
		return
	}
	if activity == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "activity not found"})
		return
	}

	completion, err := h.timer.Transition(req.ActivityID, targetUserID, req.Date, model.Status(req.Status), req.OverrideMinutes, req.DeferredTo)
	if err != nil {
		switch {
		case errors.Is(err, timer.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		case errors.Is(err, timer.ErrDeferredDate):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "deferred_to must be YYYY-MM-DD"})
		case errors.Is(err, timer.ErrTerminalState):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "task is finished; undo it first"})
		default:
			h.logger.Error("completion transition", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update completion"})
		}
		return
	}

	if h.hub != nil && ac.FamilyID != 0 {
		h.hub.Broadcast(ac.FamilyID, websocket.NewMessage("completion", "updated", completion.ID, map[string]any{
			"activity_id": completion.ActivityID,
			"date":        completion.Date,
			"status":      string(completion.Status),
		}))
	}

	if completion.Status == model.StatusDone && h.alerts != nil && ac.FamilyID != 0 {
		if user, err := h.users.GetByID(targetUserID); err == nil && user != nil {
			go h.alerts.SendTaskAlert(ac.FamilyID, targetUserID, user.Name, activity.Name)
		}
	}

	writeJSON(w, http.StatusOK, completion)
}

// Undo deletes a completion row, returning the task to unstarted.
func (h *CompletionHandler) Undo(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.completions.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get completion"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "completion not found"})
		return
	}
	if existing.UserID != ac.UserID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your completion"})
		return
	}

	if err := h.timer.Undo(id); err != nil {
		if errors.Is(err, timer.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "completion not found"})
			return
		}
		h.logger.Error("completion undo", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to undo completion"})
		return
	}

	if h.hub != nil && ac.FamilyID != 0 {
		h.hub.Broadcast(ac.FamilyID, websocket.NewMessage("completion", "deleted", id, nil))
	}

	w.WriteHeader(http.StatusNoContent)
}

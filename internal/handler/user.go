package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/bywater/internal/auth"
	"github.com/dukerupert/bywater/internal/cycle"
	"github.com/dukerupert/bywater/internal/store"
)

type UserHandler struct {
	users  *store.UserStore
	logger *slog.Logger
}

func NewUserHandler(us *store.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: us, logger: logger}
}

type updateProfileRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and name are required"})
		return
	}

	user, err := h.users.Update(userID, req.Email, req.Name)
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update profile"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type cycleConfigRequest struct {
	CycleWeeks     int    `json:"cycle_weeks"`
	CycleStartDate string `json:"cycle_start_date"`
}

// UpdateCycle changes the user's personal cycle configuration.
func (h *UserHandler) UpdateCycle(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req cycleConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.CycleWeeks < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cycle_weeks must be at least 1"})
		return
	}
	if _, err := cycle.ParseDate(req.CycleStartDate); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cycle_start_date must be YYYY-MM-DD"})
		return
	}

	user, err := h.users.UpdateCycleConfig(userID, req.CycleWeeks, req.CycleStartDate)
	if err != nil {
		h.logger.Error("update cycle config", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update cycle config"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

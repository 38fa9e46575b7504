package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/bywater/internal/auth"
	"github.com/dukerupert/bywater/internal/cycle"
	"github.com/dukerupert/bywater/internal/store"
)

type FamilyHandler struct {
	families *store.FamilyStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewFamilyHandler(fs *store.FamilyStore, ss *store.SessionStore, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{families: fs, sessions: ss, logger: logger}
}

type createFamilyRequest struct {
	Name           string `json:"name"`
	RotaCycleWeeks int    `json:"rota_cycle_weeks"`
	RotaStartDate  string `json:"rota_start_date"`
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req createFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.RotaCycleWeeks < 1 {
		req.RotaCycleWeeks = 1
	}
	if _, err := cycle.ParseDate(req.RotaStartDate); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rota_start_date must be YYYY-MM-DD"})
		return
	}

	inviteCode := uuid.NewString()

	family, err := h.families.Create(req.Name, req.RotaCycleWeeks, req.RotaStartDate, inviteCode)
	if err != nil {
		h.logger.Error("create family", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create family"})
		return
	}

	if _, err := h.families.AddMember(family.ID, ac.UserID, "admin"); err != nil {
		h.logger.Error("add founding member", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to join family"})
		return
	}

	// Make the new family the session's active one
	if err := h.sessions.UpdateFamilyID(ac.SessionID, family.ID); err != nil {
		h.logger.Error("activate family", "error", err)
	}

	writeJSON(w, http.StatusCreated, family)
}

type joinFamilyRequest struct {
	InviteCode string `json:"invite_code"`
}

func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req joinFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	family, err := h.families.GetByInviteCode(strings.TrimSpace(req.InviteCode))
	if err != nil {
		h.logger.Error("invite lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if family == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "invite code not found"})
		return
	}

	existing, err := h.families.GetMember(family.ID, ac.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check membership"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already a member"})
		return
	}

	if _, err := h.families.AddMember(family.ID, ac.UserID, "member"); err != nil {
		h.logger.Error("join family", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to join family"})
		return
	}

	if err := h.sessions.UpdateFamilyID(ac.SessionID, family.ID); err != nil {
		h.logger.Error("activate family", "error", err)
	}

	writeJSON(w, http.StatusOK, family)
}

func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())
	if familyID == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active family"})
		return
	}

	family, err := h.families.GetByID(familyID)
	if err != nil || family == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load family"})
		return
	}

	writeJSON(w, http.StatusOK, family)
}

func (h *FamilyHandler) Members(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())
	if familyID == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active family"})
		return
	}

	members, err := h.families.ListMembers(familyID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list members"})
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type rotaConfigRequest struct {
	RotaCycleWeeks int    `json:"rota_cycle_weeks"`
	RotaStartDate  string `json:"rota_start_date"`
}

// UpdateRota changes the family's rotation cycle. Admin only; enforced by
// the route middleware.
func (h *FamilyHandler) UpdateRota(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())
	if familyID == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active family"})
		return
	}

	var req rotaConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.RotaCycleWeeks < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rota_cycle_weeks must be at least 1"})
		return
	}
	if _, err := cycle.ParseDate(req.RotaStartDate); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rota_start_date must be YYYY-MM-DD"})
		return
	}

	family, err := h.families.UpdateRotaConfig(familyID, req.RotaCycleWeeks, req.RotaStartDate)
	if err != nil {
		h.logger.Error("update rota config", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update rota"})
		return
	}
	writeJSON(w, http.StatusOK, family)
}

func (h *FamilyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())
	if familyID == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active family"})
		return
	}

	userID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.families.RemoveMember(familyID, userID); err != nil {
		h.logger.Error("remove member", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to remove member"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

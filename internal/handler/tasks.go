package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/bywater/internal/auth"
	"github.com/dukerupert/bywater/internal/cycle"
	"github.com/dukerupert/bywater/internal/planner"
	"github.com/dukerupert/bywater/internal/store"
)

type TaskHandler struct {
	assembler *planner.Assembler
	families  *store.FamilyStore
	logger    *slog.Logger
}

func NewTaskHandler(a *planner.Assembler, fs *store.FamilyStore, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{assembler: a, families: fs, logger: logger}
}

// DailyTasks returns the assembled plan for a date. The optional user_id
// query parameter lets family members view each other's day.
func (h *TaskHandler) DailyTasks(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date is required"})
		return
	}
	date, err := cycle.ParseDate(dateStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	targetUserID := ac.UserID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		targetUserID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
			return
		}
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

	plan, err := h.assembler.Assemble(targetUserID, date)
	if err != nil {
		if errors.Is(err, planner.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		h.logger.Error("assemble daily tasks", "error", err, "user_id", targetUserID, "date", dateStr)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to assemble tasks"})
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

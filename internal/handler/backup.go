package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/bywater/internal/backup"
	"github.com/dukerupert/bywater/internal/store"
)

type BackupHandler struct {
	manager *backup.Manager
	records *store.BackupStore
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, records: bs, logger: logger}
}

// GetStatus handles GET /api/backups/status (admin only)
func (h *BackupHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

// List handles GET /api/backups (admin only)
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.ListRecent(20)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list backups"})
		return
	}
	if records == nil {
		records = []store.BackupRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// RunNow handles POST /api/backups (admin only)
func (h *BackupHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "backups are not configured"})
		return
	}

	key, err := h.manager.Run(r.Context())
	if err != nil {
		h.logger.Error("manual backup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "backup failed"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"object_key": key})
}

package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/bywater/internal/backup"
	"github.com/dukerupert/bywater/internal/handler"
	"github.com/dukerupert/bywater/internal/middleware"
	"github.com/dukerupert/bywater/internal/planner"
	"github.com/dukerupert/bywater/internal/push"
	"github.com/dukerupert/bywater/internal/store"
	"github.com/dukerupert/bywater/internal/timer"
	ws "github.com/dukerupert/bywater/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	userH         *handler.UserHandler
	familyH       *handler.FamilyHandler
	activityH     *handler.ActivityHandler
	taskH         *handler.TaskHandler
	completionH   *handler.CompletionHandler
	pushH         *handler.PushHandler
	backupH       *handler.BackupHandler
	sessionStore  *store.SessionStore
	familyStore   *store.FamilyStore
	pushStore     *store.PushStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	pushService   *push.Service
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

// Config carries the pieces the server wires together but does not own.
type Config struct {
	Backup     backup.Config
	Push       push.Config
	DigestHour int
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	familyStore := store.NewFamilyStore(db)
	sessionStore := store.NewSessionStore(db)
	activityStore := store.NewActivityStore(db)
	scheduleStore := store.NewScheduleStore(db)
	completionStore := store.NewCompletionStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	assembler := planner.NewAssembler(userStore, familyStore, activityStore, scheduleStore, completionStore)
	timerSvc := timer.NewService(completionStore, nil)

	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, logger.With("component", "backup"))

	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
		pushSched = push.NewScheduler(pushSvc, pushStore, familyStore, assembler, cfg.DigestHour, logger.With("component", "push"))
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, familyStore, sessionStore, logger.With("component", "auth")),
		userH:         handler.NewUserHandler(userStore, logger.With("component", "user")),
		familyH:       handler.NewFamilyHandler(familyStore, sessionStore, logger.With("component", "family")),
		activityH:     handler.NewActivityHandler(activityStore, scheduleStore, familyStore, hub, logger.With("component", "activity")),
		taskH:         handler.NewTaskHandler(assembler, familyStore, logger.With("component", "tasks")),
		completionH:   handler.NewCompletionHandler(timerSvc, completionStore, activityStore, userStore, familyStore, hub, pushSched, logger.With("component", "completion")),
		pushH:         pushH,
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),
		sessionStore:  sessionStore,
		familyStore:   familyStore,
		pushStore:     pushStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		pushService:   pushSvc,
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the push scheduler; nil when VAPID keys are missing.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.familyStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Session routes
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("POST /api/me/switch-family", s.authH.SwitchFamily)
	mux.HandleFunc("PUT /api/me", s.userH.UpdateProfile)
	mux.HandleFunc("PUT /api/me/cycle", s.userH.UpdateCycle)

	// Family routes
	mux.HandleFunc("POST /api/families", s.familyH.Create)
	mux.HandleFunc("POST /api/families/join", s.familyH.Join)
	mux.HandleFunc("GET /api/family", s.familyH.Get)
	mux.HandleFunc("GET /api/family/members", s.familyH.Members)
	mux.Handle("PUT /api/family/rota", middleware.RequireAdmin(http.HandlerFunc(s.familyH.UpdateRota)))
	mux.Handle("DELETE /api/family/members/{id}", middleware.RequireAdmin(http.HandlerFunc(s.familyH.RemoveMember)))

	// Activity routes
	mux.HandleFunc("POST /api/activities", s.activityH.Create)
	mux.HandleFunc("GET /api/activities", s.activityH.List)
	mux.HandleFunc("GET /api/activities/{id}", s.activityH.Get)
	mux.HandleFunc("PUT /api/activities/{id}", s.activityH.Update)
	mux.HandleFunc("DELETE /api/activities/{id}", s.activityH.Delete)
	mux.HandleFunc("GET /api/activities/{id}/schedule", s.activityH.GetSchedule)
	mux.HandleFunc("PUT /api/activities/{id}/schedule", s.activityH.PutSchedule)

	// Daily plan and time accounting
	mux.HandleFunc("GET /api/daily-tasks", s.taskH.DailyTasks)
	mux.HandleFunc("POST /api/completions", s.completionH.Transition)
	mux.HandleFunc("DELETE /api/completions/{id}", s.completionH.Undo)

	// Push notification routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
		mux.HandleFunc("GET /api/push/preferences", s.pushH.GetPreferences)
		mux.HandleFunc("PUT /api/push/preferences", s.pushH.UpdatePreferences)
		mux.HandleFunc("POST /api/push/test", s.pushH.TestNotification)
	}

	// Backup routes
	mux.Handle("GET /api/backups", middleware.RequireAdmin(http.HandlerFunc(s.backupH.List)))
	mux.Handle("GET /api/backups/status", middleware.RequireAdmin(http.HandlerFunc(s.backupH.GetStatus)))
	mux.Handle("POST /api/backups", middleware.RequireAdmin(http.HandlerFunc(s.backupH.RunNow)))

	// Real-time sync
	mux.Handle("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}

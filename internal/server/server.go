package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/shipshape/internal/handler"
	"github.com/dukerupert/shipshape/internal/middleware"
	"github.com/dukerupert/shipshape/internal/mission"
	"github.com/dukerupert/shipshape/internal/proof"
	"github.com/dukerupert/shipshape/internal/store"
	ws "github.com/dukerupert/shipshape/internal/websocket"
)

// Config holds server construction options.
type Config struct {
	Proof         proof.Config
	SweepInterval time.Duration
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	engine      *mission.Engine
	sweeper     *mission.Sweeper
	missionH    *handler.MissionHandler
	attemptH    *handler.AttemptHandler
	profileH    *handler.ProfileHandler
	rewardH     *handler.RewardHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	missionStore := store.NewMissionStore(db)
	attemptStore := store.NewAttemptStore(db)
	profileStore := store.NewProfileStore(db)
	rewardStore := store.NewRewardStore(db)

	var proofStore *proof.Store
	if cfg.Proof.Enabled() {
		proofStore = proof.NewStore(cfg.Proof, logger.With("component", "proof"))
	}

	// The engine's proof deleter must stay nil (not a typed-nil interface)
	// when storage is off.
	var deleter mission.ProofDeleter
	var putter handler.ProofPutter
	if proofStore != nil {
		deleter = proofStore
		putter = proofStore
	}

	engine := mission.NewEngine(db, missionStore, attemptStore, profileStore, rewardStore, deleter, logger.With("component", "engine"))

	notify := func(familyID int64, transitions []mission.Transition) {
		for _, t := range transitions {
			hub.Broadcast(familyID, ws.NewMessage("mission", "status_changed", t.MissionID, map[string]any{
				"from": string(t.From),
				"to":   string(t.To),
			}))
		}
	}
	sweeper := mission.NewSweeper(engine, profileStore, cfg.SweepInterval, notify, logger.With("component", "sweeper"))

	return &Server{
		db:          db,
		hub:         hub,
		engine:      engine,
		sweeper:     sweeper,
		missionH:    handler.NewMissionHandler(engine, missionStore, profileStore, hub, logger.With("component", "mission")),
		attemptH:    handler.NewAttemptHandler(engine, attemptStore, missionStore, putter, hub, logger.With("component", "attempt")),
		profileH:    handler.NewProfileHandler(profileStore, hub, logger.With("component", "profile")),
		rewardH:     handler.NewRewardHandler(engine, rewardStore, hub, logger.With("component", "reward")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// Sweeper returns the reconciliation sweeper for lifecycle management.
func (s *Server) Sweeper() *mission.Sweeper {
	return s.sweeper
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Family + profile routes
	mux.HandleFunc("POST /api/families", s.profileH.CreateFamily)
	mux.HandleFunc("GET /api/profiles", s.profileH.List)
	mux.HandleFunc("POST /api/profiles", s.profileH.Create)
	mux.HandleFunc("PUT /api/profiles/{id}", s.profileH.Update)
	mux.HandleFunc("DELETE /api/profiles/{id}", s.profileH.Delete)
	mux.HandleFunc("GET /api/profiles/{id}/balance", s.profileH.Balance)
	mux.HandleFunc("GET /api/profiles/{id}/history", s.profileH.History)

	// PIN routes
	mux.HandleFunc("POST /api/profiles/{id}/pin", s.profileH.SetPIN)
	mux.HandleFunc("DELETE /api/profiles/{id}/pin", s.profileH.ClearPIN)
	mux.Handle("POST /api/profiles/{id}/pin/verify", s.rateLimited(s.profileH.VerifyPIN))

	// Mission routes
	mux.HandleFunc("POST /api/missions", s.missionH.Create)
	mux.HandleFunc("GET /api/missions", s.missionH.List)
	mux.HandleFunc("GET /api/missions/{id}", s.missionH.Get)
	mux.HandleFunc("PUT /api/missions/{id}", s.missionH.Update)
	mux.HandleFunc("DELETE /api/missions/{id}", s.missionH.Delete)
	mux.HandleFunc("POST /api/missions/{id}/save-template", s.missionH.SaveTemplate)
	mux.HandleFunc("POST /api/reconcile", s.missionH.Reconcile)

	// Template routes
	mux.HandleFunc("GET /api/templates", s.missionH.ListTemplates)
	mux.HandleFunc("POST /api/templates/{id}/instantiate", s.missionH.InstantiateTemplate)
	mux.HandleFunc("PUT /api/templates/{id}/launch", s.missionH.LaunchTemplate)
	mux.HandleFunc("DELETE /api/templates/{id}", s.missionH.DeleteTemplate)

	// Attempt routes
	mux.Handle("POST /api/missions/{id}/attempts", s.rateLimited(s.attemptH.Submit))
	mux.HandleFunc("GET /api/missions/{id}/attempts", s.attemptH.ListByMission)
	mux.HandleFunc("GET /api/attempts/pending", s.attemptH.ListPending)
	mux.HandleFunc("POST /api/attempts/{id}/approve", s.attemptH.Approve)
	mux.HandleFunc("POST /api/attempts/{id}/reject", s.attemptH.Reject)

	// Reward shop routes
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)
	mux.HandleFunc("POST /api/redemptions/{id}/refund", s.rewardH.Refund)

	// WebSocket change feed
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	return middleware.RateLimit(s.rateLimiter, keyFunc, 30, time.Minute)(h)
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/pokercount/backend/internal/api/handlers"
	"github.com/pokercount/backend/internal/api/httpx"
	"github.com/pokercount/backend/internal/config"
	"github.com/pokercount/backend/internal/metrics"
	"github.com/pokercount/backend/internal/middleware"
	"github.com/pokercount/backend/internal/services"
)

type RouterDeps struct {
	Cfg           config.Config
	AuthMW        *middleware.AuthMiddleware
	UserSvc       *services.UserService
	GroupSvc      *services.GroupService
	SessionSvc    *services.SessionService
	SettlementSvc *services.SettlementService
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.RateLimit(d.Cfg.RateRPS), middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	ah := handlers.NewAuthHandler(d.UserSvc)

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth (public) ----------
		r.Post("/auth/register", ah.Register)
		r.Post("/auth/login", ah.Login)
		r.Post("/auth/refresh", ah.Refresh)

		// ---------- everything else needs a user ----------
		r.Group(func(r chi.Router) {
			r.Use(d.AuthMW.Auth)

			// ---------- groups ----------
			r.Post("/groups", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				var req struct {
					Name string `json:"name"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
					return
				}
				g, err := d.GroupSvc.Create(r.Context(), req.Name, uid)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusCreated, g)
			})

			r.Get("/groups", func(w http.ResponseWriter, r *http.Request) {
				groups, err := d.GroupSvc.List(r.Context())
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, groups)
			})

			r.Get("/groups/{groupID}", func(w http.ResponseWriter, r *http.Request) {
				detail, err := d.GroupSvc.Get(r.Context(), chi.URLParam(r, "groupID"))
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, detail)
			})

			r.Delete("/groups/{groupID}", func(w http.ResponseWriter, r *http.Request) {
				if err := d.GroupSvc.Delete(r.Context(), chi.URLParam(r, "groupID")); err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			// ---------- players ----------
			r.Post("/groups/{groupID}/players", func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					Name string `json:"name"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
					return
				}
				p, err := d.GroupSvc.AddPlayer(r.Context(), chi.URLParam(r, "groupID"), req.Name)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusCreated, p)
			})

			r.Delete("/groups/{groupID}/players/{playerID}", func(w http.ResponseWriter, r *http.Request) {
				err := d.GroupSvc.RemovePlayer(r.Context(), chi.URLParam(r, "groupID"), chi.URLParam(r, "playerID"))
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/groups/{groupID}/join", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				var req struct {
					PlayerID string `json:"player_id"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "player_id required", nil)
					return
				}
				p, err := d.GroupSvc.Join(r.Context(), chi.URLParam(r, "groupID"), req.PlayerID, uid)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, p)
			})

			// ---------- sessions ----------
			r.Post("/groups/{groupID}/sessions", func(w http.ResponseWriter, r *http.Request) {
				var req services.SessionInput
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
					return
				}
				sess, err := d.SessionSvc.Create(r.Context(), chi.URLParam(r, "groupID"), req)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusCreated, sess)
			})

			r.Get("/sessions/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
				sess, err := d.SessionSvc.Get(r.Context(), chi.URLParam(r, "sessionID"))
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, sess)
			})

			r.Put("/sessions/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
				var req services.SessionInput
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
					return
				}
				sess, err := d.SessionSvc.Update(r.Context(), chi.URLParam(r, "sessionID"), req)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, sess)
			})

			r.Delete("/sessions/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
				if err := d.SessionSvc.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			// ---------- settlements ----------
			r.Get("/groups/{groupID}/settlements", func(w http.ResponseWriter, r *http.Request) {
				views, err := d.SettlementSvc.List(r.Context(), chi.URLParam(r, "groupID"))
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, views)
			})

			r.Post("/settlements/{settlementID}/settle", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				st, err := d.SettlementSvc.MarkSettled(r.Context(), chi.URLParam(r, "settlementID"), uid)
				if err != nil {
					httpx.WriteServiceError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, st)
			})
		})
	})

	return r
}

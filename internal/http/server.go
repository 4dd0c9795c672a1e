package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pintlog-backend-go/internal/config"
	"pintlog-backend-go/internal/services"
)

// Store is everything the API needs from persistence.
type Store interface {
	services.RecordStore
	services.UserDirectory
	Ping(ctx context.Context) error
}

type Server struct {
	Config   config.Config
	Logger   zerolog.Logger
	Tokens   services.TokenService
	Store    Store
	Registry *prometheus.Registry
	Metrics  *Metrics

	Users       *services.Users
	Stats       *services.Stats
	Consumption *services.Consumption
	Ranking     *services.Ranking
	Transfer    *services.Transfer
	NightMode   *services.NightMode
}

func NewServer(cfg config.Config, store Store, now services.Clock, logger zerolog.Logger) *Server {
	tokens := services.TokenService{
		Secret:    []byte(cfg.JWTSecret),
		Issuer:    cfg.JWTIssuer,
		AccessTTL: time.Duration(cfg.AccessTTLSeconds) * time.Second,
	}
	admin := services.AdminAccount{Username: cfg.AdminUsername, Password: cfg.AdminPassword}
	users := services.NewUsers(store, store, tokens, admin)
	registry := prometheus.NewRegistry()
	return &Server{
		Config:      cfg,
		Logger:      logger,
		Tokens:      tokens,
		Store:       store,
		Registry:    registry,
		Metrics:     NewMetrics(registry),
		Users:       users,
		Stats:       services.NewStats(store, now),
		Consumption: services.NewConsumption(store, now),
		Ranking:     services.NewRanking(store, store),
		Transfer:    services.NewTransfer(store, users),
		NightMode:   services.NewNightMode(store, now),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.Logger))
	r.Use(MetricsMiddleware(s.Metrics))
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", s.Login)
		api.Post("/auth/logout", s.Logout)

		api.With(WithAuth(s.Tokens)).Get("/me", s.Me)

		api.Group(func(user chi.Router) {
			user.Use(WithAuth(s.Tokens))
			user.Use(RequireRole(services.RoleUser))
			user.Get("/consumption", s.GetStats)
			user.Post("/consumption", s.AddConsumption)
			user.Get("/export", s.ExportOwn)
			user.Get("/night-mode", s.GetNightMode)
			user.Post("/night-mode", s.SetNightMode)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(WithAuth(s.Tokens))
			admin.Use(RequireRole(services.RoleAdmin))
			admin.Get("/ranking", s.TopDrinkers)
			admin.Get("/export", s.ExportAll)
			admin.Post("/import", s.Import)
			admin.Route("/users", func(users chi.Router) {
				users.Get("/", s.ListUsers)
				users.Post("/", s.CreateUser)
				users.Delete("/{userId}", s.DeleteUser)
				users.Put("/{userId}/password", s.ResetPassword)
				users.Get("/{userId}/night-mode", s.AdminNightModeStatus)
				users.Post("/{userId}/night-mode", s.AdminToggleNightMode)
			})
		})
	})
	return r
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		s.Logger.Warn().Err(err).Msg("health check failed")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

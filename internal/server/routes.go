package server

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/metrics"
	"github.com/yasinhessnawi1/timeguard/internal/middleware"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
)

// SetupRoutes configures the router.
//
// Every request passes, in order: request ID, audit, panic recovery,
// security headers, CORS and admission. Audit sits outside recovery so a
// panicking handler still produces an access log record with status 500.
//
// The configured routes include:
//   - health, version and metrics (unauthenticated, exempt from admission by default)
//   - login
//   - security administration (administrators only)
//   - timesheet entries, live streams and reports (authenticated)
func (s *Server) SetupRoutes() {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(s.audit.Handler)
	r.Use(middleware.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(corsHandler(s.Config.CORS.AllowedOrigins, s.Config.CORS.AllowCredentials))
	r.Use(s.admission.Handler)

	r.Get(constants.HealthPath, s.Handlers.Health.Health)
	r.Get(constants.VersionPath, s.Handlers.Health.Version)
	r.Handle(constants.MetricsPath, metrics.Handler())

	jwtAuth := middleware.JWTAuth(s.authProviders.JWTService)
	adminOnly := middleware.AdminOnly(s.authProviders.JWTService)

	r.Route(constants.APIBasePath, func(r chi.Router) {
		r.Post("/auth/login", s.Handlers.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Use(chimiddleware.NoCache)

			r.Route("/ip", func(r chi.Router) {
				r.Get("/blacklist", s.Handlers.Security.ListBlacklist)
				r.Post("/blacklist", s.Handlers.Security.AddBlacklist)
				r.Delete("/blacklist/{"+constants.ParamID+"}", s.Handlers.Security.DeleteBlacklist)
				r.Get("/whitelist", s.Handlers.Security.ListWhitelist)
			})

			r.Route("/ua-blacklist", func(r chi.Router) {
				r.Get("/", s.Handlers.Security.ListUARules)
				r.Post("/", s.Handlers.Security.CreateUARule)
				r.Delete("/{"+constants.ParamID+"}", s.Handlers.Security.DeleteUARule)
			})

			r.Get("/access-logs", s.Handlers.Security.ListAccessLogs)
			r.Get("/routes", s.GetAPIRoutes)
		})
	})

	r.Route(constants.TimesheetBasePath, func(r chi.Router) {
		r.Use(jwtAuth)

		r.Post("/entry", s.Handlers.Timesheet.SaveEntry)
		r.Get("/entries", s.Handlers.Timesheet.GetEntries)
		r.Get("/stream", s.Handlers.Timesheet.Stream)
		r.Get("/ws", s.Handlers.Timesheet.WebSocket)

		r.Post("/reports", s.Handlers.Report.CreateReport)
		r.Get("/reports/{"+constants.ParamID+"}", s.Handlers.Report.GetReport)
	})

	s.router = r
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() chi.Router {
	return s.router
}

// corsHandler builds the CORS middleware. Without configured origins no CORS
// headers are sent and browsers fall back to same-origin.
func corsHandler(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	log.Info().Strs("allowed_origins", allowedOrigins).Msg("Configuring CORS")
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", constants.HeaderContentType, constants.HeaderXRequestID},
		ExposedHeaders:   []string{constants.HeaderRetryAfter, constants.HeaderXRequestID},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	})
}

// APIRoute describes one registered route.
type APIRoute struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// GetAPIRoutes lists every registered route, sorted by path then method.
func (s *Server) GetAPIRoutes(w http.ResponseWriter, r *http.Request) {
	var routes []APIRoute
	err := chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, APIRoute{Method: method, Path: route})
		return nil
	})
	if err != nil {
		utils.ErrorFromAppError(w, utils.NewInternalServerError(err))
		return
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	utils.JSON(w, http.StatusOK, routes)
}

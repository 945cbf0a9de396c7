/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for a planning frontend

ROUTE GROUPS:
  /api/calendars/*      Working calendars and day arithmetic
  /api/constraints/*    Stored constraints, validation, auto-resolution
  /api/resources/*      Conflict detection and leveling
  /api/rates, /api/costs  Rate records and cost calculation
  /api/scenarios/*      What-if scenarios
  /                     Endpoint index

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/calendars", func(r chi.Router) {
			r.Get("/", h.ListCalendars)
			r.Post("/", h.CreateCalendar)
			r.Get("/{id}", h.GetCalendar)
			r.Delete("/{id}", h.DeleteCalendar)
			r.Get("/{id}/working-days", h.WorkingDays)
			r.Post("/{id}/end-date", h.EndDate)
		})

		r.Route("/constraints", func(r chi.Router) {
			r.Get("/", h.ListConstraints)
			r.Post("/", h.CreateConstraint)
			r.Post("/validate", h.ValidateConstraints)
			r.Post("/apply", h.ApplyConstraints)
			r.Delete("/{taskID}/{kind}", h.DeleteConstraint)
		})

		r.Route("/resources", func(r chi.Router) {
			r.Post("/conflicts", h.DetectConflicts)
			r.Post("/level", h.LevelResources)
		})

		r.Route("/rates", func(r chi.Router) {
			r.Get("/", h.ListRates)
			r.Post("/", h.CreateRate)
		})
		r.Post("/costs", h.CalculateCosts)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/", h.CreateScenario)
			r.Post("/compare", h.CompareScenarios)
			r.Get("/{id}", h.GetScenario)
			r.Post("/{id}/changes", h.ApplyChanges)
			r.Post("/{id}/status", h.UpdateScenarioStatus)
		})

		r.Route("/demos", func(r chi.Router) {
			r.Get("/", h.ListDemos)
			r.Get("/current", h.GetCurrentDemo)
			r.Post("/load", h.LoadDemo)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Schedule Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Schedule Engine API</h1>
<ul>
<li><a href="/api/calendars">/api/calendars</a> - Working calendars</li>
<li><a href="/api/constraints">/api/constraints</a> - Task constraints</li>
<li><a href="/api/rates">/api/rates</a> - Rate records</li>
<li><a href="/api/scenarios">/api/scenarios</a> - What-if scenarios</li>
<li><a href="/api/demos">/api/demos</a> - Demo projects</li>
</ul>
</body>
</html>`))
	})

	return r
}

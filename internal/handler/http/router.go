package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

func NewRouter(attendanceHandler AttendanceHandler, employeeHandler EmployeeHandler, syncHandler SyncHandler, deviceHandler DeviceHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "fieldclock-agent"),
		slog.String("version", "v1.0.0"),
	)

	// The API is served to the kiosk UI on the same machine only.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/events", func(r chi.Router) {
			r.Post("/", attendanceHandler.Submit)
			r.Get("/", attendanceHandler.List)
			r.Get("/pending-count", attendanceHandler.PendingCount)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", employeeHandler.List)
			r.Post("/refresh", employeeHandler.Refresh)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/next-event", employeeHandler.NextEvent)
				r.Patch("/active", employeeHandler.SetActive)
			})
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/", syncHandler.SyncNow)
			r.Get("/status", syncHandler.Status)
		})

		r.Route("/device", func(r chi.Router) {
			r.Get("/", deviceHandler.Get)
			r.Put("/", deviceHandler.Update)
		})
	})
	return r
}

package routes

import (
	"net/http"

	"airside-bknd/internal/config"
	"airside-bknd/internal/handlers"
	"airside-bknd/internal/logger"
	"airside-bknd/internal/pipeline"
	"airside-bknd/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/uptrace/bun"
)

func NewRouter(db *bun.DB, cfg *config.Config, logr *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// CORS middleware with config
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	pipelineClient := pipeline.NewClient(cfg.PipelineURL)

	defectSvc := services.NewDefectService(db)
	segmentSvc := services.NewSegmentService(db)
	maintenanceSvc := services.NewMaintenanceService(db)
	vehicleSvc := services.NewVehicleService(db)
	ingestSvc := services.NewIngestService(db, pipelineClient, logr.Logger)

	defectHandler := handlers.NewDefectHandler(defectSvc, logr.Logger)
	segmentHandler := handlers.NewSegmentHandler(segmentSvc, logr.Logger)
	maintenanceHandler := handlers.NewMaintenanceHandler(maintenanceSvc, logr.Logger)
	vehicleHandler := handlers.NewVehicleHandler(vehicleSvc, logr.Logger)
	pipelineHandler := handlers.NewPipelineHandler(ingestSvc, pipelineClient, cfg, logr.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("ok"))
		if err != nil {
			return
		}
	})

	r.Route("/defects", func(r chi.Router) {
		r.Get("/", defectHandler.List)
		r.Get("/unassigned", defectHandler.Unassigned)
		r.Get("/urgent", defectHandler.Urgent)
		r.Get("/active", defectHandler.Active)

		r.Get("/{id}", defectHandler.GetByID)
		r.Patch("/{id}/status", defectHandler.UpdateStatus)
		r.Patch("/{id}/assign", defectHandler.AssignTeam)
		r.Delete("/{id}/delete", defectHandler.Delete)
	})

	r.Route("/segments", func(r chi.Router) {
		r.Get("/", segmentHandler.List)
		r.Get("/critical", segmentHandler.Critical)
		r.Get("/iri-average", segmentHandler.AverageIRI)
	})

	r.Route("/maintenance", func(r chi.Router) {
		r.Get("/teams", maintenanceHandler.Teams)
	})

	r.Get("/vehicles", vehicleHandler.List)

	r.Route("/pipeline", func(r chi.Router) {
		r.Post("/upload", pipelineHandler.Upload)
		r.Get("/status", pipelineHandler.Status)
	})

	return r
}

package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"medrecapi/internal/http/middleware"
	"medrecapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay thin: parsing, identity extraction and status mapping only; all
// authorization and sequencing lives in the record service.
func RegisterRoutes(app *fiber.App, db *sql.DB, recSvc service.RecordService, jwtSecret string) {
	// Health endpoints are unauthenticated.
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	authed := app.Group("", middleware.Identity(jwtSecret))

	records := authed.Group("/records")
	records.Post("/", CreateRecord(recSvc))
	records.Get("/:id", GetRecord(recSvc))
	records.Patch("/:id", UpdateRecord(recSvc))
	records.Delete("/:id", DeleteRecord(recSvc))
	records.Post("/:id/attachments", AddAttachment(recSvc))
	records.Get("/:id/attachments", ListAttachments(recSvc))
	records.Get("/:id/attachments/:attachmentId", DownloadAttachment(recSvc))

	authed.Get("/patients/:patientId/records", ListPatientRecords(recSvc))
}

package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"medrecapi/internal/authz"
	"medrecapi/internal/http/middleware"
	"medrecapi/internal/service"
)

// callerFromCtx pulls the verified identity set by the Identity middleware.
func callerFromCtx(c *fiber.Ctx) (authz.Identity, bool) {
	return middleware.IdentityFromCtx(c)
}

func parseRecordID(c *fiber.Ctx, param string) (string, bool) {
	id := c.Params(param)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// HealthCheck reports readiness by pinging the database.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// CreateRecord handles POST /records.
//
// @Summary Create a medical record
// @Tags records
// @Accept json
// @Produce json
// @Success 201 {object} model.MedicalRecord
// @Router /records [post]
func CreateRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := callerFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		var in service.CreateRecordInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if in.PatientID <= 0 || in.DoctorID <= 0 || in.Title == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "patient_id, doctor_id and title are required")
		}

		rec, err := svc.Create(c.UserContext(), caller, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// GetRecord handles GET /records/:id.
func GetRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := callerFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id, ok := parseRecordID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		rec, err := svc.GetRecord(c.UserContext(), caller, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

// UpdateRecord handles PATCH /records/:id.
func UpdateRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := callerFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id, ok := parseRecordID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var in service.UpdateRecordInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if in.Title == nil && in.Description == nil && in.Notes == nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "no updatable fields provided")
		}

		rec, err := svc.Update(c.UserContext(), caller, id, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

// ListPatientRecords handles GET /patients/:patientId/records with
// optional type and recent/limit query filters.
func ListPatientRecords(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := callerFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		patientID, err := strconv.ParseInt(c.Params("patientId"), 10, 64)
		if err != nil || patientID <= 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PATIENT_ID", "invalid patient id")
		}

		ctx := c.UserContext()
		switch {
		case c.Query("type") != "":
			recs, err := svc.ListByType(ctx, caller, patientID, c.Query("type"))
			if err != nil {
				return writeServiceError(c, err)
			}
			return c.JSON(recs)
		case c.Query("recent") == "true":
			// Service falls back to its default for unusable limits.
			limit, _ := strconv.Atoi(c.Query("limit", "0"))
			recs, err := svc.ListRecent(ctx, caller, patientID, limit)
			if err != nil {
				return writeServiceError(c, err)
			}
			return c.JSON(recs)
		default:
			recs, err := svc.ListByPatient(ctx, caller, patientID)
			if err != nil {
				return writeServiceError(c, err)
			}
			return c.JSON(recs)
		}
	}
}

// AddAttachment handles POST /records/:id/attachments (multipart field: file).
func AddAttachment(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := callerFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id, ok := parseRecordID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		att, err := svc.AddAttachment(c.UserContext(), caller, id, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(att)
	}
}

// ListAttachments handles GET /records/:id/attachments.
func ListAttachments(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := callerFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id, ok := parseRecordID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		atts, err := svc.ListAttachments(c.UserContext(), caller, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(atts)
	}
}

// DownloadAttachment handles GET /records/:id/attachments/:attachmentId.
func DownloadAttachment(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := callerFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id, ok := parseRecordID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		attID, ok := parseRecordID(c, "attachmentId")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid attachment id format")
		}

		rc, att, err := svc.DownloadAttachment(c.UserContext(), caller, id, attID)
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, att.MimeType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+att.Filename+`"`)
		return c.SendStream(rc)
	}
}

// DeleteRecord handles DELETE /records/:id.
func DeleteRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := callerFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id, ok := parseRecordID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if err := svc.DeleteRecord(c.UserContext(), caller, id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

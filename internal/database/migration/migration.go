package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_medical_records",
		SQL: `CREATE TABLE IF NOT EXISTS medical_records (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  patient_id  BIGINT      NOT NULL CHECK (patient_id > 0),
  doctor_id   BIGINT      NOT NULL CHECK (doctor_id > 0),
  record_type TEXT        NOT NULL,
  title       TEXT        NOT NULL,
  description TEXT        NOT NULL DEFAULT '',
  notes       TEXT        NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_medical_records_patient_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_medical_records_patient_id ON medical_records (patient_id);`,
	},
	{
		Name: "create_index_medical_records_patient_type",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_medical_records_patient_type ON medical_records (patient_id, record_type);`,
	},
	{
		Name: "create_index_medical_records_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_medical_records_created_at ON medical_records (created_at DESC);`,
	},
	{
		Name: "create_table_attachments",
		SQL: `CREATE TABLE IF NOT EXISTS attachments (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  record_id   UUID        NOT NULL REFERENCES medical_records (id),
  filename    TEXT        NOT NULL,
  mime_type   TEXT        NOT NULL,
  size        BIGINT      NOT NULL CHECK (size >= 0),
  storage_key TEXT        NOT NULL UNIQUE,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_attachments_record_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_attachments_record_id ON attachments (record_id);`,
	},
}

// EnsureMigrated checks if the 'medical_records' table exists and runs the
// schema steps if it doesn't. The sentinel check keeps startup cheap on an
// already-migrated database.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	start := time.Now()

	var exists bool
	query := "SELECT to_regclass('public.medical_records') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		logger.Error("migration sentinel check failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logger.Info("schema already exists, skipping migration",
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}

	logger.Info("running schema migration", zap.Int("steps", len(steps)))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logger.Error("migration step failed",
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Duration("step_duration", time.Since(stepStart)),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		logger.Info("migration step applied",
			zap.String("migration_step", step.Name),
			zap.Duration("step_duration", time.Since(stepStart)),
		)
	}

	logger.Info("schema migration complete", zap.Duration("duration", time.Since(start)))
	return nil
}

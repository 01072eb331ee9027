package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"studioapi/internal/model"
	"studioapi/internal/repository/postgres"
)

// Step is one idempotent DDL statement.
type Step struct {
	Name string
	SQL  string
}

// Steps returns the schema for every content kind. All statements use
// IF NOT EXISTS so the whole list can be replayed on every start.
func Steps() []Step {
	var steps []Step
	for _, kind := range model.Collections() {
		table := postgres.TableName(kind)
		ident := pgx.Identifier{table}.Sanitize()
		steps = append(steps,
			Step{
				Name: "create_table_" + table,
				SQL: `CREATE TABLE IF NOT EXISTS ` + ident + ` (
  id         TEXT        PRIMARY KEY,
  data       JSONB       NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
			},
			Step{
				Name: "create_index_" + table + "_created_at",
				SQL:  `CREATE INDEX IF NOT EXISTS ` + pgx.Identifier{"idx_" + table + "_created_at"}.Sanitize() + ` ON ` + ident + ` (created_at);`,
			},
		)
	}

	admins := postgres.TableName(model.KindAdmins)
	steps = append(steps, Step{
		Name: "create_unique_index_" + admins + "_email",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS ` + pgx.Identifier{"idx_" + admins + "_email"}.Sanitize() +
			` ON ` + pgx.Identifier{admins}.Sanitize() + ` ((data->>'email'));`,
	})
	return steps
}

// Run applies every migration step in order and stops at the first failure.
func Run(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	start := time.Now()
	log := logger.With(zap.String("component", "database"))
	log.Info("db_migration_start")

	for _, step := range Steps() {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Debug("db_migration_step",
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success", zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

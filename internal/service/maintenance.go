package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jask/flowdesk/internal/database"
)

// MaintenanceService houses destructive/ops actions surfaced through the CLI.
type MaintenanceService struct {
	DB *sql.DB
}

// Reset wipes cached state and the audit log. It keeps the schema intact so
// the app can continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		tables := []string{
			"mutation_log",
			"mutation_arguments",
			"mutation_definitions",
			"catalog_snapshot",
			"nodes",
		}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}

// PruneLog drops finished audit entries older than the cutoff.
func (s *MaintenanceService) PruneLog(ctx context.Context, before time.Time) (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM mutation_log WHERE status != 'pending' AND started_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtbook/internal/db"
)

const (
	maintenanceJobName = "ledger_maintenance"
	maintenanceTimeout = 2 * time.Minute
)

// MaintenanceReport summarizes one maintenance run.
type MaintenanceReport struct {
	CheckpointBusy   int64
	WALFrames        int64
	CheckpointFrames int64
	OrphanedBookings int64
}

// RegisterMaintenanceJob schedules RunMaintenance on cronExpr.
func RegisterMaintenanceJob(s *Service, database *db.DB, cronExpr string) error {
	if database == nil {
		return fmt.Errorf("maintenance job requires database")
	}

	jobLogger := log.With().
		Str("component", "ledger_maintenance_job").
		Str("job_name", maintenanceJobName).
		Str("cron", cronExpr).
		Logger()

	_, err := s.AddJob(maintenanceJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if _, err := RunMaintenance(ctx, database); err != nil {
			jobLogger.Error().Err(err).Msg("Ledger maintenance failed")
		}
	})
	return err
}

// RunMaintenance refreshes planner statistics, checkpoints the WAL and
// reports active bookings whose sport configuration no longer exists. It never
// writes to the bookings table.
func RunMaintenance(ctx context.Context, database *db.DB) (MaintenanceReport, error) {
	logger := log.Ctx(ctx)
	var report MaintenanceReport

	if _, err := database.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return report, fmt.Errorf("optimize: %w", err)
	}

	row := database.QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)")
	if err := row.Scan(&report.CheckpointBusy, &report.WALFrames, &report.CheckpointFrames); err != nil {
		return report, fmt.Errorf("wal checkpoint: %w", err)
	}

	orphaned, err := database.Queries.CountOrphanedActiveBookings(ctx)
	if err != nil {
		return report, fmt.Errorf("count orphaned bookings: %w", err)
	}
	report.OrphanedBookings = orphaned
	if orphaned > 0 {
		logger.Warn().
			Int64("orphaned_bookings", orphaned).
			Msg("Active bookings reference deleted sport configurations")
	}

	logger.Info().
		Int64("wal_frames", report.WALFrames).
		Int64("checkpointed_frames", report.CheckpointFrames).
		Msg("Ledger maintenance completed")
	return report, nil
}

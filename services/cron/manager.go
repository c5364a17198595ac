package cron

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/sahilchouksey/coursecheckout-api/services"
	"github.com/sahilchouksey/coursecheckout-api/services/events"
	"github.com/sahilchouksey/coursecheckout-api/utils/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Config wires the jobs to their collaborators
type Config struct {
	Relay             *events.Relay
	Payments          *services.PaymentService
	StalePaymentAfter time.Duration
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron       *cron.Cron
	db         *gorm.DB
	relay      *events.Relay
	payments   *services.PaymentService
	staleAfter time.Duration
	log        zerolog.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, cfg Config) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	staleAfter := cfg.StalePaymentAfter
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}

	return &CronManager{
		cron:       c,
		db:         db,
		relay:      cfg.Relay,
		payments:   cfg.Payments,
		staleAfter: staleAfter,
		log:        logger.Component("cron"),
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	m.log.Info().Msg("[CRON] Starting cron jobs...")

	// Register all jobs
	if err := m.registerJobs(); err != nil {
		return err
	}

	// Start the cron scheduler
	m.cron.Start()

	m.log.Info().Int("jobs", len(m.cron.Entries())).Msg("[CRON] Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	m.log.Info().Msg("[CRON] Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info().Msg("[CRON] Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every 30 seconds: relay outbox events to the broker
	if m.relay != nil {
		_, err := m.cron.AddFunc("*/30 * * * * *", func() {
			m.RelayOutboxEvents(context.Background())
		})
		if err != nil {
			return err
		}
	}

	// 2. Every hour: report PENDING payments that never got verified
	if m.payments != nil {
		_, err := m.cron.AddFunc("0 0 * * * *", func() {
			m.runJob("report_stale_payments", m.ReportStalePayments)
		})
		if err != nil {
			return err
		}
	}

	// 3. Daily at 2 AM: cleanup old data
	_, err := m.cron.AddFunc("0 0 2 * * *", func() {
		m.runJob("cleanup_old_data", m.CleanupOldData)
	})
	if err != nil {
		return err
	}

	m.log.Info().Msg("[CRON] All cron jobs registered successfully")
	return nil
}

// jobFunc returns a summary message, optional metadata and an error
type jobFunc func(ctx context.Context) (string, interface{}, error)

// runJob executes fn with a timeout and records the run in cron_job_logs
func (m *CronManager) runJob(jobName string, fn jobFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	entry := m.logJobStart(jobName)
	message, metadata, err := fn(ctx)
	if err != nil {
		m.logJobError(entry, err)
		return
	}
	m.logJobComplete(entry, message, metadata)
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	m.log.Info().Str("job", jobName).Msg("[CRON] Starting job")

	cronLog := &model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronStatusStarted,
		StartedAt: time.Now(),
	}
	if err := m.db.Create(cronLog).Error; err != nil {
		m.log.Error().Err(err).Str("job", jobName).Msg("[CRON] Failed to record job start")
	}
	return cronLog
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(entry *model.CronJobLog, message string, metadata interface{}) {
	now := time.Now()
	m.log.Info().Str("job", entry.JobName).Dur("took", now.Sub(entry.StartedAt)).Msgf("[CRON] Completed job: %s", message)

	updates := map[string]interface{}{
		"status":       model.CronStatusCompleted,
		"completed_at": now,
		"duration":     now.Sub(entry.StartedAt).Milliseconds(),
		"message":      message,
	}
	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			updates["metadata"] = datatypes.JSON(raw)
		}
	}
	m.updateJobLog(entry, updates)
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	now := time.Now()
	m.log.Error().Err(err).Str("job", entry.JobName).Msg("[CRON] Error in job")

	m.updateJobLog(entry, map[string]interface{}{
		"status":       model.CronStatusFailed,
		"completed_at": now,
		"duration":     now.Sub(entry.StartedAt).Milliseconds(),
		"error_msg":    err.Error(),
	})
}

func (m *CronManager) updateJobLog(entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	if err := m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
		m.log.Error().Err(err).Str("job", entry.JobName).Msg("[CRON] Failed to update job log")
	}
}

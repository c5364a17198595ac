package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/sahilchouksey/coursecheckout-api/utils/metrics"
)

const (
	cronLogRetention      = 90 * 24 * time.Hour
	publishedOutboxMaxAge = 7 * 24 * time.Hour
)

// RelayOutboxEvents drains the outbox in batches. It runs every 30 seconds so
// only failures are written to cron_job_logs.
func (m *CronManager) RelayOutboxEvents(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 25*time.Second)
	defer cancel()

	total := 0
	for {
		n, err := m.relay.PublishPending(ctx)
		total += n
		if err != nil {
			entry := m.logJobStart("relay_outbox_events")
			m.logJobError(entry, err)
			return
		}
		if n == 0 || ctx.Err() != nil {
			break
		}
	}
	if total > 0 {
		m.log.Debug().Int("events", total).Msg("[CRON] Relayed outbox events")
	}
}

// stalePaymentReport is stored as job metadata
type stalePaymentReport struct {
	Count      int      `json:"count"`
	OlderThan  string   `json:"older_than"`
	PaymentIDs []uint   `json:"payment_ids"`
	TxnIDs     []string `json:"txn_ids"`
}

// ReportStalePayments logs PENDING payments older than the configured age.
// Their status is left as is: the gateway may still deliver a confirmation.
func (m *CronManager) ReportStalePayments(ctx context.Context) (string, interface{}, error) {
	stale, err := m.payments.StalePendingPayments(ctx, m.staleAfter)
	if err != nil {
		return "", nil, err
	}
	metrics.StalePendingPayments.Set(float64(len(stale)))

	report := stalePaymentReport{
		Count:      len(stale),
		OlderThan:  m.staleAfter.String(),
		PaymentIDs: make([]uint, 0, len(stale)),
		TxnIDs:     make([]string, 0, len(stale)),
	}
	for _, p := range stale {
		report.PaymentIDs = append(report.PaymentIDs, p.ID)
		report.TxnIDs = append(report.TxnIDs, p.TxnID)
		m.log.Warn().
			Uint("payment_id", p.ID).
			Uint("order_id", p.OrderID).
			Str("txn_id", p.TxnID).
			Time("created_at", p.CreatedAt).
			Msg("[CRON] Stale pending payment")
	}

	return fmt.Sprintf("%d stale pending payments", len(stale)), report, nil
}

// CleanupOldData removes old cron logs and published outbox events
func (m *CronManager) CleanupOldData(ctx context.Context) (string, interface{}, error) {
	totalCleaned := int64(0)

	result := m.db.WithContext(ctx).
		Where("created_at < ?", time.Now().Add(-cronLogRetention)).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		return "", nil, fmt.Errorf("failed to clean cron logs: %w", result.Error)
	}
	m.log.Info().Int64("rows", result.RowsAffected).Msg("[CRON] Cleaned old cron logs")
	totalCleaned += result.RowsAffected

	if m.relay != nil {
		purged, err := m.relay.PurgePublished(ctx, time.Now().Add(-publishedOutboxMaxAge))
		if err != nil {
			return "", nil, fmt.Errorf("failed to purge outbox events: %w", err)
		}
		m.log.Info().Int64("rows", purged).Msg("[CRON] Purged published outbox events")
		totalCleaned += purged
	}

	return fmt.Sprintf("Cleaned %d records", totalCleaned), map[string]int64{"cleaned": totalCleaned}, nil
}

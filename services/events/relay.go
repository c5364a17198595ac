package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sahilchouksey/coursecheckout-api/model"
	"github.com/sahilchouksey/coursecheckout-api/utils/metrics"
	"gorm.io/gorm"
)

const defaultBatchSize = 100

// Relay moves unpublished outbox events to a Publisher
type Relay struct {
	db        *gorm.DB
	publisher Publisher
	batchSize int
}

// NewRelay creates a relay. batchSize <= 0 selects the default.
func NewRelay(db *gorm.DB, publisher Publisher, batchSize int) *Relay {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Relay{db: db, publisher: publisher, batchSize: batchSize}
}

// PublishPending sends one batch of unpublished events, oldest first, and
// returns how many were marked published. A failed batch stays unpublished and
// is retried on the next run.
func (r *Relay) PublishPending(ctx context.Context) (int, error) {
	var pending []model.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id ASC").
		Limit(r.batchSize).
		Find(&pending).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load outbox events: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	ids := make([]uint, 0, len(pending))
	for _, evt := range pending {
		ids = append(ids, evt.ID)
	}

	if pubErr := r.publisher.Publish(ctx, pending); pubErr != nil {
		metrics.OutboxEventsRelayed.WithLabelValues("failed").Add(float64(len(pending)))
		updateErr := r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"attempts":   gorm.Expr("attempts + ?", 1),
				"last_error": pubErr.Error(),
			}).Error
		if updateErr != nil {
			log.Error().Err(updateErr).Msg("[OUTBOX] failed to record publish failure")
		}
		return 0, fmt.Errorf("failed to publish outbox events: %w", pubErr)
	}

	now := time.Now()
	err = r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"published_at": now, "last_error": ""}).Error
	if err != nil {
		return 0, fmt.Errorf("failed to mark outbox events published: %w", err)
	}

	metrics.OutboxEventsRelayed.WithLabelValues("published").Add(float64(len(pending)))
	return len(pending), nil
}

// PurgePublished deletes events published before the cutoff
func (r *Relay) PurgePublished(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at < ?", before).
		Delete(&model.OutboxEvent{})
	return result.RowsAffected, result.Error
}

package service

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"examstore_backend/internals/configs"
	"examstore_backend/internals/features/emails/model"
)

/* =========================================================
   Queue scheduler
   ========================================================= */

// StartQueueScheduler runs the drain and maintenance jobs in-process.
// Overlapping runs are skipped, so a slow SMTP session never stacks
// workers on the same rows.
func StartQueueScheduler(db *gorm.DB, processor *QueueProcessor) *cron.Cron {
	drainSchedule := configs.GetEnv("EMAIL_DRAIN_SCHEDULE", "@every 1m")
	maintenanceSchedule := configs.GetEnv("EMAIL_MAINTENANCE_SCHEDULE", "@every 15m")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	if _, err := c.AddFunc(drainSchedule, func() {
		res := processor.ProcessPendingQueue(DefaultProcessLimit)
		if res.Processed > 0 {
			log.Printf("[EMAIL-WORKER] drained processed=%d ok=%d failed=%d", res.Processed, res.Successful, res.Failed)
		}
	}); err != nil {
		log.Fatalf("[EMAIL-WORKER] add drain cron failed: %v", err)
	}

	if _, err := c.AddFunc(maintenanceSchedule, func() {
		runQueueMaintenance(db)
	}); err != nil {
		log.Fatalf("[EMAIL-WORKER] add maintenance cron failed: %v", err)
	}

	log.Printf("[EMAIL-WORKER] started drain=%q maintenance=%q", drainSchedule, maintenanceSchedule)
	c.Start()
	return c
}

// runQueueMaintenance cancels expired rows and releases rows stuck in
// processing past the stale window (a crashed worker never finalized
// them).
func runQueueMaintenance(db *gorm.DB) {
	now := time.Now().UTC()

	res := db.Model(&model.EmailQueue{}).
		Where("queue_status IN ? AND expires_at IS NOT NULL AND expires_at < ?",
			[]string{model.QueuePending, model.QueueRetry}, now).
		Updates(map[string]interface{}{
			"queue_status":  model.QueueCancelled,
			"error_message": "expired before processing",
		})
	if res.Error != nil {
		log.Printf("[EMAIL-WORKER] expiry sweep failed: %v", res.Error)
	} else if res.RowsAffected > 0 {
		log.Printf("[EMAIL-WORKER] cancelled %d expired rows", res.RowsAffected)
	}

	staleMinutes := configs.GetInt("EMAIL_STALE_PROCESSING_MINUTES", 30)
	cutoff := now.Add(-time.Duration(staleMinutes) * time.Minute)
	res = db.Model(&model.EmailQueue{}).
		Where("queue_status = ? AND updated_at < ?", model.QueueProcessing, cutoff).
		Update("queue_status", model.QueueRetry)
	if res.Error != nil {
		log.Printf("[EMAIL-WORKER] stale sweep failed: %v", res.Error)
	} else if res.RowsAffected > 0 {
		log.Printf("[EMAIL-WORKER] requeued %d stale processing rows", res.RowsAffected)
	}
}

package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type jobRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Queue       string         `gorm:"type:varchar(64);not null;index:idx_jobs_ready,priority:1"`
	Name        string         `gorm:"type:varchar(64);not null"`
	Payload     datatypes.JSON `gorm:"not null"`
	Status      Status         `gorm:"type:varchar(16);not null;index:idx_jobs_ready,priority:2"`
	Attempts    int            `gorm:"not null;default:0"`
	MaxAttempts int            `gorm:"not null;default:1"`
	LastError   string
	RunAt       time.Time `gorm:"not null;index:idx_jobs_ready,priority:3"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (jobRecord) TableName() string { return "jobs" }

// Migrate creates the jobs table. Production databases get it from the SQL migrations.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&jobRecord{})
}

type GormOptions struct {
	// RetryDelay is multiplied by the attempt number to delay a retried job.
	RetryDelay time.Duration
	// ClaimTimeout is how long a job may stay running before RecoverStale takes it
	// back. Zero disables recovery.
	ClaimTimeout time.Duration
}

// GormBroker persists jobs in the jobs table so they survive restarts and can be
// shared by several worker processes.
type GormBroker struct {
	db   *gorm.DB
	opts GormOptions
	now  func() time.Time
}

func NewGormBroker(db *gorm.DB, opts GormOptions) *GormBroker {
	return &GormBroker{db: db, opts: opts, now: time.Now}
}

func (b *GormBroker) Enqueue(ctx context.Context, job Job) error {
	runAt := job.EnqueuedAt
	if runAt.IsZero() {
		runAt = b.now().UTC()
	}
	rec := jobRecord{
		ID:          job.ID,
		Queue:       job.Queue,
		Name:        job.Name,
		Payload:     datatypes.JSON(job.Payload),
		Status:      StatusQueued,
		MaxAttempts: job.MaxAttempts,
		RunAt:       runAt,
	}
	return b.db.WithContext(ctx).Create(&rec).Error
}

func (b *GormBroker) Claim(ctx context.Context, queues []string) (*Job, error) {
	var claimed *Job
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ? AND run_at <= ?", StatusQueued, b.now().UTC())
		if len(queues) > 0 {
			q = q.Where("queue IN ?", queues)
		}
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var rec jobRecord
		err := q.Order("run_at ASC").Take(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		rec.Attempts++
		if err := tx.Model(&jobRecord{}).Where("id = ?", rec.ID).Updates(map[string]any{
			"status":     StatusRunning,
			"attempts":   rec.Attempts,
			"updated_at": b.now().UTC(),
		}).Error; err != nil {
			return err
		}

		claimed = &Job{
			ID:          rec.ID,
			Queue:       rec.Queue,
			Name:        rec.Name,
			Payload:     []byte(rec.Payload),
			Attempts:    rec.Attempts,
			MaxAttempts: rec.MaxAttempts,
			EnqueuedAt:  rec.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (b *GormBroker) Finish(ctx context.Context, job *Job, outcome Outcome) error {
	now := b.now().UTC()
	updates := map[string]any{
		"status":     outcome.Status,
		"last_error": outcome.Reason,
		"updated_at": now,
	}
	if outcome.Retry {
		updates["status"] = StatusQueued
		updates["run_at"] = now.Add(time.Duration(job.Attempts) * b.opts.RetryDelay)
	}
	return b.db.WithContext(ctx).Model(&jobRecord{}).Where("id = ?", job.ID).Updates(updates).Error
}

// RecoverStale takes back jobs left running longer than the claim timeout, usually
// by a worker that died mid-job. Jobs with attempts left are queued again, the rest
// are marked failed. It returns how many rows changed.
func (b *GormBroker) RecoverStale(ctx context.Context) (int64, error) {
	if b.opts.ClaimTimeout <= 0 {
		return 0, nil
	}
	now := b.now().UTC()
	cutoff := now.Add(-b.opts.ClaimTimeout)

	var total int64
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := func() *gorm.DB {
			return tx.Model(&jobRecord{}).Where("status = ? AND updated_at < ?", StatusRunning, cutoff)
		}

		res := stale().Where("attempts >= max_attempts").Updates(map[string]any{
			"status":     StatusFailed,
			"last_error": "claim expired",
			"updated_at": now,
		})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected

		res = stale().Where("attempts < max_attempts").Updates(map[string]any{
			"status":     StatusQueued,
			"last_error": "claim expired",
			"run_at":     now,
			"updated_at": now,
		})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Counts reports how many jobs are in each status, for health output.
func (b *GormBroker) Counts(ctx context.Context) (map[Status]int64, error) {
	var rows []struct {
		Status Status
		Total  int64
	}
	if err := b.db.WithContext(ctx).Model(&jobRecord{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

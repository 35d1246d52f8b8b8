package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPendingNotFound = errors.New("pending submission not found")

// PendingSubmission holds RSVPs that exhausted their remote retries. One row
// per (event, email); a newer failed submission overwrites the older one.
type PendingSubmission struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_pending_event_email"`
	Email   string    `gorm:"not null;uniqueIndex:idx_pending_event_email"`

	Payload []byte `gorm:"type:jsonb;not null"`
	Method  string `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (PendingSubmission) TableName() string {
	return "pending_submissions"
}

type PendingDAO struct {
	db *gorm.DB
}

func NewPendingDAO(db *gorm.DB) *PendingDAO {
	return &PendingDAO{
		db: db,
	}
}

func (d *PendingDAO) Upsert(ctx context.Context, pending PendingSubmission) (PendingSubmission, error) {
	pending.Email = strings.ToLower(pending.Email)

	result := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "method", "updated_at"}),
		}).
		Create(&pending)
	if result.Error != nil {
		return PendingSubmission{}, result.Error
	}

	return pending, nil
}

func (d *PendingDAO) FindByEvent(ctx context.Context, eventID uuid.UUID) ([]PendingSubmission, error) {
	var pendings []PendingSubmission

	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at asc").
		Find(&pendings)
	if result.Error != nil {
		return nil, result.Error
	}

	return pendings, nil
}

func (d *PendingDAO) CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Model(&PendingSubmission{}).
		Where("event_id = ?", eventID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

func (d *PendingDAO) Delete(ctx context.Context, id uuid.UUID) error {
	result := d.db.WithContext(ctx).Delete(&PendingSubmission{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPendingNotFound
	}

	return nil
}

package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrEventNotFound = errors.New("event not found")

type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Title       string `gorm:"not null"`
	Date        time.Time
	Time        string
	Location    string
	Description string
	CoverImage  string

	AskReason          bool
	AllowGuests        bool
	RequiresMealChoice bool
	CheckInEnabled     bool

	CustomQuestions []byte `gorm:"type:jsonb"`
	EventDetails    []byte `gorm:"type:jsonb"`
	Seating         []byte `gorm:"type:jsonb"`

	Status            string `gorm:"not null;default:'active'"`
	CreatedBy         uint   `gorm:"not null;index"`
	CreatedByUsername string `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

// Upsert replaces the stored event wholesale. Sync uses it when reconciling
// the local cache against the remote store.
func (d *EventDAO) Upsert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) Update(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).
		Model(&Event{ID: event.ID}).
		Select("*").
		Omit("id", "created_at", "created_by", "created_by_username").
		Updates(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Event{}, ErrEventNotFound
	}

	return d.FindByID(ctx, event.ID)
}

func (d *EventDAO) FindByID(ctx context.Context, id uuid.UUID) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindAll(ctx context.Context) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).Order("date asc").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) FindByCreator(ctx context.Context, userID uint) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).Where("created_by = ?", userID).Order("date asc").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

// Delete removes the event and cascades to its responses and pending
// submissions in one transaction.
func (d *EventDAO) Delete(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&RSVP{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&PendingSubmission{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&Event{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEventNotFound
		}

		return nil
	})
}

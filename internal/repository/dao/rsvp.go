package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var ErrRSVPNotFound = errors.New("rsvp not found")

// RSVP rows hold emails lowercased so the (event_id, email) unique index
// enforces the one-response-per-address rule case-insensitively.
type RSVP struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_rsvps_event_email"`
	Email     string    `gorm:"not null;uniqueIndex:idx_rsvps_event_email"`
	EditToken string    `gorm:"index"`

	Name       string `gorm:"not null"`
	Phone      string
	Attending  *bool
	GuestCount int `gorm:"not null;default:0"`
	Reason     string

	CustomAnswers       []byte `gorm:"type:jsonb"`
	DietaryRestrictions []byte `gorm:"type:jsonb"`
	AllergyDetails      string

	Rank   string
	Unit   string
	Branch string

	ValidationHash string
	CheckInToken   string `gorm:"index"`
	CheckedInAt    *time.Time

	Timestamp    time.Time `gorm:"not null"`
	LastModified *time.Time
}

func (RSVP) TableName() string {
	return "rsvps"
}

type RSVPDAO struct {
	db *gorm.DB
}

func NewRSVPDAO(db *gorm.DB) *RSVPDAO {
	return &RSVPDAO{
		db: db,
	}
}

// Upsert inserts the response, or updates the existing row for the same
// event and email when the unique index trips. The stored ID and edit token
// survive an update so previously issued edit links stay valid.
func (d *RSVPDAO) Upsert(ctx context.Context, rsvp RSVP) (RSVP, error) {
	rsvp.Email = strings.ToLower(rsvp.Email)

	result := d.db.WithContext(ctx).Create(&rsvp)
	if result.Error == nil {
		return rsvp, nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(result.Error, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return RSVP{}, result.Error
	}

	existing, err := d.FindByEmail(ctx, rsvp.EventID, rsvp.Email)
	if err != nil {
		return RSVP{}, err
	}

	rsvp.ID = existing.ID
	if existing.EditToken != "" {
		rsvp.EditToken = existing.EditToken
	}

	updated := d.db.WithContext(ctx).
		Model(&RSVP{ID: existing.ID}).
		Select("*").
		Omit("id", "event_id", "timestamp").
		Updates(&rsvp)
	if updated.Error != nil {
		return RSVP{}, updated.Error
	}

	return d.FindByID(ctx, existing.ID)
}

func (d *RSVPDAO) FindByID(ctx context.Context, id uuid.UUID) (RSVP, error) {
	var rsvp RSVP

	result := d.db.WithContext(ctx).First(&rsvp, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RSVP{}, ErrRSVPNotFound
		}

		return RSVP{}, result.Error
	}

	return rsvp, nil
}

func (d *RSVPDAO) FindByEmail(ctx context.Context, eventID uuid.UUID, email string) (RSVP, error) {
	var rsvp RSVP

	result := d.db.WithContext(ctx).
		First(&rsvp, "event_id = ? AND email = ?", eventID, strings.ToLower(email))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RSVP{}, ErrRSVPNotFound
		}

		return RSVP{}, result.Error
	}

	return rsvp, nil
}

func (d *RSVPDAO) FindByEditToken(ctx context.Context, eventID uuid.UUID, editToken string) (RSVP, error) {
	var rsvp RSVP

	result := d.db.WithContext(ctx).
		First(&rsvp, "event_id = ? AND edit_token = ?", eventID, editToken)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RSVP{}, ErrRSVPNotFound
		}

		return RSVP{}, result.Error
	}

	return rsvp, nil
}

func (d *RSVPDAO) FindByCheckInToken(ctx context.Context, eventID uuid.UUID, token string) (RSVP, error) {
	var rsvp RSVP

	result := d.db.WithContext(ctx).
		First(&rsvp, "event_id = ? AND check_in_token = ?", eventID, token)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return RSVP{}, ErrRSVPNotFound
		}

		return RSVP{}, result.Error
	}

	return rsvp, nil
}

func (d *RSVPDAO) FindByEvent(ctx context.Context, eventID uuid.UUID) ([]RSVP, error) {
	var rsvps []RSVP

	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("timestamp asc").
		Find(&rsvps)
	if result.Error != nil {
		return nil, result.Error
	}

	return rsvps, nil
}

func (d *RSVPDAO) Update(ctx context.Context, rsvp RSVP) (RSVP, error) {
	rsvp.Email = strings.ToLower(rsvp.Email)

	result := d.db.WithContext(ctx).
		Model(&RSVP{ID: rsvp.ID}).
		Select("*").
		Omit("id", "event_id", "timestamp").
		Updates(&rsvp)
	if result.Error != nil {
		return RSVP{}, result.Error
	}
	if result.RowsAffected == 0 {
		return RSVP{}, ErrRSVPNotFound
	}

	return d.FindByID(ctx, rsvp.ID)
}

func (d *RSVPDAO) Delete(ctx context.Context, id uuid.UUID) error {
	result := d.db.WithContext(ctx).Delete(&RSVP{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRSVPNotFound
	}

	return nil
}

// ReplaceForEvent swaps an event's whole response collection, used when a
// bulk load reconciles the cache against the remote store.
func (d *RSVPDAO) ReplaceForEvent(ctx context.Context, eventID uuid.UUID, rsvps []RSVP) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&RSVP{}).Error; err != nil {
			return err
		}

		for i := range rsvps {
			rsvps[i].EventID = eventID
			rsvps[i].Email = strings.ToLower(rsvps[i].Email)
		}

		if len(rsvps) == 0 {
			return nil
		}

		return tx.Create(&rsvps).Error
	})
}

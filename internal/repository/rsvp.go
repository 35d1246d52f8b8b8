package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/repository/dao"
)

var ErrRSVPNotFound = dao.ErrRSVPNotFound

type RSVPDAO interface {
	Upsert(ctx context.Context, rsvp dao.RSVP) (dao.RSVP, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.RSVP, error)
	FindByEmail(ctx context.Context, eventID uuid.UUID, email string) (dao.RSVP, error)
	FindByEditToken(ctx context.Context, eventID uuid.UUID, editToken string) (dao.RSVP, error)
	FindByCheckInToken(ctx context.Context, eventID uuid.UUID, token string) (dao.RSVP, error)
	FindByEvent(ctx context.Context, eventID uuid.UUID) ([]dao.RSVP, error)
	Update(ctx context.Context, rsvp dao.RSVP) (dao.RSVP, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceForEvent(ctx context.Context, eventID uuid.UUID, rsvps []dao.RSVP) error
}

type RSVPRepository struct {
	dao RSVPDAO
}

func NewRSVPRepository(dao RSVPDAO) *RSVPRepository {
	return &RSVPRepository{
		dao: dao,
	}
}

func attendanceToDao(a domain.Attendance) *bool {
	switch a {
	case domain.AttendanceYes:
		v := true
		return &v
	case domain.AttendanceNo:
		v := false
		return &v
	default:
		return nil
	}
}

func attendanceFromDao(attending *bool) domain.Attendance {
	if attending == nil {
		return domain.AttendanceInvited
	}
	if *attending {
		return domain.AttendanceYes
	}

	return domain.AttendanceNo
}

func (r *RSVPRepository) domainToDao(rsvp domain.RSVP) (dao.RSVP, error) {
	answers, err := json.Marshal(rsvp.CustomAnswers)
	if err != nil {
		return dao.RSVP{}, fmt.Errorf("json.Marshal custom answers -> %w", err)
	}

	dietary, err := json.Marshal(rsvp.DietaryRestrictions)
	if err != nil {
		return dao.RSVP{}, fmt.Errorf("json.Marshal dietary restrictions -> %w", err)
	}

	return dao.RSVP{
		ID:                  rsvp.ID,
		EventID:             rsvp.EventID,
		Email:               rsvp.Email,
		EditToken:           rsvp.EditToken,
		Name:                rsvp.Name,
		Phone:               rsvp.Phone,
		Attending:           attendanceToDao(rsvp.Attendance),
		GuestCount:          rsvp.GuestCount,
		Reason:              rsvp.Reason,
		CustomAnswers:       answers,
		DietaryRestrictions: dietary,
		AllergyDetails:      rsvp.AllergyDetails,
		Rank:                rsvp.Rank,
		Unit:                rsvp.Unit,
		Branch:              rsvp.Branch,
		ValidationHash:      rsvp.ValidationHash,
		CheckInToken:        rsvp.CheckInToken,
		CheckedInAt:         rsvp.CheckedInAt,
		Timestamp:           rsvp.Timestamp,
		LastModified:        rsvp.LastModified,
	}, nil
}

func (r *RSVPRepository) daoToDomain(rsvp dao.RSVP) (domain.RSVP, error) {
	result := domain.RSVP{
		ID:             rsvp.ID,
		EventID:        rsvp.EventID,
		EditToken:      rsvp.EditToken,
		Name:           rsvp.Name,
		Email:          rsvp.Email,
		Phone:          rsvp.Phone,
		Attendance:     attendanceFromDao(rsvp.Attending),
		GuestCount:     rsvp.GuestCount,
		Reason:         rsvp.Reason,
		AllergyDetails: rsvp.AllergyDetails,
		Rank:           rsvp.Rank,
		Unit:           rsvp.Unit,
		Branch:         rsvp.Branch,
		ValidationHash: rsvp.ValidationHash,
		CheckInToken:   rsvp.CheckInToken,
		CheckedInAt:    rsvp.CheckedInAt,
		Timestamp:      rsvp.Timestamp,
		LastModified:   rsvp.LastModified,
	}

	if len(rsvp.CustomAnswers) > 0 {
		if err := json.Unmarshal(rsvp.CustomAnswers, &result.CustomAnswers); err != nil {
			return domain.RSVP{}, fmt.Errorf("json.Unmarshal custom answers -> %w", err)
		}
	}

	if len(rsvp.DietaryRestrictions) > 0 {
		if err := json.Unmarshal(rsvp.DietaryRestrictions, &result.DietaryRestrictions); err != nil {
			return domain.RSVP{}, fmt.Errorf("json.Unmarshal dietary restrictions -> %w", err)
		}
	}

	return result, nil
}

func (r *RSVPRepository) daosToDomain(rsvps []dao.RSVP) ([]domain.RSVP, error) {
	result := make([]domain.RSVP, 0, len(rsvps))
	for _, rsvp := range rsvps {
		converted, err := r.daoToDomain(rsvp)
		if err != nil {
			return nil, err
		}
		result = append(result, converted)
	}

	return result, nil
}

// Upsert stores the response, folding a duplicate email for the same event
// into an update of the existing record.
func (r *RSVPRepository) Upsert(ctx context.Context, rsvp domain.RSVP) (domain.RSVP, error) {
	daoRSVP, err := r.domainToDao(rsvp)
	if err != nil {
		return domain.RSVP{}, err
	}

	stored, err := r.dao.Upsert(ctx, daoRSVP)
	if err != nil {
		return domain.RSVP{}, err
	}

	return r.daoToDomain(stored)
}

func (r *RSVPRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.RSVP, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.RSVP{}, err
	}

	return r.daoToDomain(found)
}

func (r *RSVPRepository) FindByEmail(ctx context.Context, eventID uuid.UUID, email string) (domain.RSVP, error) {
	found, err := r.dao.FindByEmail(ctx, eventID, email)
	if err != nil {
		return domain.RSVP{}, err
	}

	return r.daoToDomain(found)
}

func (r *RSVPRepository) FindByEditToken(ctx context.Context, eventID uuid.UUID, editToken string) (domain.RSVP, error) {
	found, err := r.dao.FindByEditToken(ctx, eventID, editToken)
	if err != nil {
		return domain.RSVP{}, err
	}

	return r.daoToDomain(found)
}

func (r *RSVPRepository) FindByCheckInToken(ctx context.Context, eventID uuid.UUID, token string) (domain.RSVP, error) {
	found, err := r.dao.FindByCheckInToken(ctx, eventID, token)
	if err != nil {
		return domain.RSVP{}, err
	}

	return r.daoToDomain(found)
}

func (r *RSVPRepository) FindByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.RSVP, error) {
	found, err := r.dao.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(found)
}

func (r *RSVPRepository) Update(ctx context.Context, rsvp domain.RSVP) (domain.RSVP, error) {
	daoRSVP, err := r.domainToDao(rsvp)
	if err != nil {
		return domain.RSVP{}, err
	}

	updated, err := r.dao.Update(ctx, daoRSVP)
	if err != nil {
		return domain.RSVP{}, err
	}

	return r.daoToDomain(updated)
}

func (r *RSVPRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.dao.Delete(ctx, id)
}

func (r *RSVPRepository) ReplaceForEvent(ctx context.Context, eventID uuid.UUID, rsvps []domain.RSVP) error {
	daoRSVPs := make([]dao.RSVP, 0, len(rsvps))
	for _, rsvp := range rsvps {
		converted, err := r.domainToDao(rsvp)
		if err != nil {
			return err
		}
		daoRSVPs = append(daoRSVPs, converted)
	}

	return r.dao.ReplaceForEvent(ctx, eventID, daoRSVPs)
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/repository/dao"
)

var ErrPendingNotFound = dao.ErrPendingNotFound

type PendingDAO interface {
	Upsert(ctx context.Context, pending dao.PendingSubmission) (dao.PendingSubmission, error)
	FindByEvent(ctx context.Context, eventID uuid.UUID) ([]dao.PendingSubmission, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PendingRepository struct {
	dao PendingDAO
}

func NewPendingRepository(dao PendingDAO) *PendingRepository {
	return &PendingRepository{
		dao: dao,
	}
}

func (r *PendingRepository) domainToDao(p domain.PendingSubmission) (dao.PendingSubmission, error) {
	payload, err := json.Marshal(p.RSVP)
	if err != nil {
		return dao.PendingSubmission{}, fmt.Errorf("json.Marshal rsvp payload -> %w", err)
	}

	return dao.PendingSubmission{
		ID:        p.ID,
		EventID:   p.EventID,
		Email:     p.RSVP.Email,
		Payload:   payload,
		Method:    string(p.Method),
		CreatedAt: p.CreatedAt,
	}, nil
}

func (r *PendingRepository) daoToDomain(p dao.PendingSubmission) (domain.PendingSubmission, error) {
	pending := domain.PendingSubmission{
		ID:        p.ID,
		EventID:   p.EventID,
		Method:    domain.SubmissionMethod(p.Method),
		CreatedAt: p.CreatedAt,
	}

	if err := json.Unmarshal(p.Payload, &pending.RSVP); err != nil {
		return domain.PendingSubmission{}, fmt.Errorf("json.Unmarshal rsvp payload -> %w", err)
	}

	return pending, nil
}

// Store saves a failed submission, replacing any prior pending entry for the
// same event and email.
func (r *PendingRepository) Store(ctx context.Context, pending domain.PendingSubmission) (domain.PendingSubmission, error) {
	daoPending, err := r.domainToDao(pending)
	if err != nil {
		return domain.PendingSubmission{}, err
	}

	stored, err := r.dao.Upsert(ctx, daoPending)
	if err != nil {
		return domain.PendingSubmission{}, err
	}

	return r.daoToDomain(stored)
}

func (r *PendingRepository) FindByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.PendingSubmission, error) {
	found, err := r.dao.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	pendings := make([]domain.PendingSubmission, 0, len(found))
	for _, p := range found {
		pending, err := r.daoToDomain(p)
		if err != nil {
			return nil, err
		}
		pendings = append(pendings, pending)
	}

	return pendings, nil
}

func (r *PendingRepository) CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	return r.dao.CountByEvent(ctx, eventID)
}

func (r *PendingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.dao.Delete(ctx, id)
}

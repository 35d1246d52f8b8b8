package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/repository/dao"
)

var ErrEventNotFound = dao.ErrEventNotFound

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	Upsert(ctx context.Context, event dao.Event) (dao.Event, error)
	Update(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.Event, error)
	FindAll(ctx context.Context) ([]dao.Event, error)
	FindByCreator(ctx context.Context, userID uint) ([]dao.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) domainToDao(e domain.Event) (dao.Event, error) {
	questions, err := json.Marshal(e.CustomQuestions)
	if err != nil {
		return dao.Event{}, fmt.Errorf("json.Marshal custom questions -> %w", err)
	}

	details, err := json.Marshal(e.EventDetails)
	if err != nil {
		return dao.Event{}, fmt.Errorf("json.Marshal event details -> %w", err)
	}

	var seating []byte
	if e.Seating != nil {
		if seating, err = json.Marshal(e.Seating); err != nil {
			return dao.Event{}, fmt.Errorf("json.Marshal seating -> %w", err)
		}
	}

	return dao.Event{
		ID:                 e.ID,
		Title:              e.Title,
		Date:               e.Date,
		Time:               e.Time,
		Location:           e.Location,
		Description:        e.Description,
		CoverImage:         e.CoverImage,
		AskReason:          e.AskReason,
		AllowGuests:        e.AllowGuests,
		RequiresMealChoice: e.RequiresMealChoice,
		CheckInEnabled:     e.CheckInEnabled,
		CustomQuestions:    questions,
		EventDetails:       details,
		Seating:            seating,
		Status:             e.Status,
		CreatedBy:          e.CreatedBy,
		CreatedByUsername:  e.CreatedByUsername,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}, nil
}

func (r *EventRepository) daoToDomain(e dao.Event) (domain.Event, error) {
	event := domain.Event{
		ID:                 e.ID,
		Title:              e.Title,
		Date:               e.Date,
		Time:               e.Time,
		Location:           e.Location,
		Description:        e.Description,
		CoverImage:         e.CoverImage,
		AskReason:          e.AskReason,
		AllowGuests:        e.AllowGuests,
		RequiresMealChoice: e.RequiresMealChoice,
		CheckInEnabled:     e.CheckInEnabled,
		Status:             e.Status,
		CreatedBy:          e.CreatedBy,
		CreatedByUsername:  e.CreatedByUsername,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}

	if len(e.CustomQuestions) > 0 {
		if err := json.Unmarshal(e.CustomQuestions, &event.CustomQuestions); err != nil {
			return domain.Event{}, fmt.Errorf("json.Unmarshal custom questions -> %w", err)
		}
	}

	if len(e.EventDetails) > 0 {
		if err := json.Unmarshal(e.EventDetails, &event.EventDetails); err != nil {
			return domain.Event{}, fmt.Errorf("json.Unmarshal event details -> %w", err)
		}
	}

	if len(e.Seating) > 0 {
		event.Seating = &domain.SeatingChart{}
		if err := json.Unmarshal(e.Seating, event.Seating); err != nil {
			return domain.Event{}, fmt.Errorf("json.Unmarshal seating -> %w", err)
		}
	}

	return event, nil
}

func (r *EventRepository) daosToDomain(events []dao.Event) ([]domain.Event, error) {
	result := make([]domain.Event, 0, len(events))
	for _, e := range events {
		event, err := r.daoToDomain(e)
		if err != nil {
			return nil, err
		}
		result = append(result, event)
	}

	return result, nil
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	daoEvent, err := r.domainToDao(event)
	if err != nil {
		return domain.Event{}, err
	}

	created, err := r.dao.Insert(ctx, daoEvent)
	if err != nil {
		return domain.Event{}, err
	}

	return r.daoToDomain(created)
}

func (r *EventRepository) Save(ctx context.Context, event domain.Event) (domain.Event, error) {
	daoEvent, err := r.domainToDao(event)
	if err != nil {
		return domain.Event{}, err
	}

	saved, err := r.dao.Upsert(ctx, daoEvent)
	if err != nil {
		return domain.Event{}, err
	}

	return r.daoToDomain(saved)
}

func (r *EventRepository) Update(ctx context.Context, event domain.Event) (domain.Event, error) {
	daoEvent, err := r.domainToDao(event)
	if err != nil {
		return domain.Event{}, err
	}

	updated, err := r.dao.Update(ctx, daoEvent)
	if err != nil {
		return domain.Event{}, err
	}

	return r.daoToDomain(updated)
}

func (r *EventRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}

	return r.daoToDomain(found)
}

func (r *EventRepository) FindAll(ctx context.Context) ([]domain.Event, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(found)
}

func (r *EventRepository) FindByCreator(ctx context.Context, userID uint) ([]domain.Event, error) {
	found, err := r.dao.FindByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}

	return r.daosToDomain(found)
}

func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.dao.Delete(ctx, id)
}

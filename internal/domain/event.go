package domain

import (
	"time"

	"github.com/google/uuid"
)

type CustomQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
}

type EventDetail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Event struct {
	ID                 uuid.UUID              `json:"id"`
	Title              string                 `json:"title"`
	Date               time.Time              `json:"date"`
	Time               string                 `json:"time"`
	Location           string                 `json:"location"`
	Description        string                 `json:"description"`
	CoverImage         string                 `json:"cover_image,omitempty"`
	AskReason          bool                   `json:"ask_reason"`
	AllowGuests        bool                   `json:"allow_guests"`
	RequiresMealChoice bool                   `json:"requires_meal_choice"`
	CheckInEnabled     bool                   `json:"check_in_enabled"`
	CustomQuestions    []CustomQuestion       `json:"custom_questions,omitempty"`
	EventDetails       map[string]EventDetail `json:"event_details,omitempty"`
	Seating            *SeatingChart          `json:"seating_chart,omitempty"`
	Status             string                 `json:"status"`
	CreatedBy          uint                   `json:"created_by"`
	CreatedByUsername  string                 `json:"created_by_username"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// HasQuestion reports whether the event declares a custom question with the given id.
func (e *Event) HasQuestion(questionID string) bool {
	for _, q := range e.CustomQuestions {
		if q.ID == questionID {
			return true
		}
	}

	return false
}

package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/muster-events/backend/internal/domain"
)

type CreateEventRequest struct {
	Title              string                        `json:"title"`
	Date               string                        `json:"date"`
	Time               string                        `json:"time"`
	Location           string                        `json:"location"`
	Description        string                        `json:"description"`
	CoverImage         string                        `json:"coverImage"`
	AskReason          bool                          `json:"askReason"`
	AllowGuests        bool                          `json:"allowGuests"`
	RequiresMealChoice bool                          `json:"requiresMealChoice"`
	CheckInEnabled     bool                          `json:"checkInEnabled"`
	CustomQuestions    []domain.CustomQuestion       `json:"customQuestions"`
	EventDetails       map[string]domain.EventDetail `json:"eventDetails"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&req.Location, validation.Length(0, 300)),
		validation.Field(&req.CoverImage, is.URL),
	)
}

// ToDomain maps the request onto an event. Date has already validated as
// YYYY-MM-DD.
func (req *CreateEventRequest) ToDomain() domain.Event {
	date, _ := time.Parse("2006-01-02", req.Date)

	return domain.Event{
		Title:              req.Title,
		Date:               date,
		Time:               req.Time,
		Location:           req.Location,
		Description:        req.Description,
		CoverImage:         req.CoverImage,
		AskReason:          req.AskReason,
		AllowGuests:        req.AllowGuests,
		RequiresMealChoice: req.RequiresMealChoice,
		CheckInEnabled:     req.CheckInEnabled,
		CustomQuestions:    req.CustomQuestions,
		EventDetails:       req.EventDetails,
	}
}

type UpdateEventRequest struct {
	CreateEventRequest

	Status string `json:"status"`
}

func (req *UpdateEventRequest) Validate() error {
	if err := req.CreateEventRequest.Validate(); err != nil {
		return err
	}

	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.In("draft", "published", "archived")),
	)
}

type RosterEntry struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Rank   string `json:"rank"`
	Unit   string `json:"unit"`
	Branch string `json:"branch"`
}

type RosterImportRequest struct {
	Entries []RosterEntry `json:"entries"`
}

func (req *RosterImportRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Entries, validation.Required, validation.Length(1, 1000)),
	)
}

func (e RosterEntry) Validate() error {
	return validation.ValidateStruct(
		&e,
		validation.Field(&e.Name, validation.Required, validation.Length(2, 50)),
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

type CheckInRequest struct {
	Token string `json:"token"`
}

func (req *CheckInRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Token, validation.Required),
	)
}

package request

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/service"
)

var (
	nameExp  = regexp.MustCompile(`^[A-Za-z\s\-.]{2,50}$`)
	phoneExp = regexp.MustCompile(`^\+?[0-9\s\-().]{7,20}$`)

	errInvalidName       = errors.New("name must be 2-50 letters, spaces, hyphens or periods")
	errMissingAttendance = errors.New("please select whether you are attending")
)

// SubmitRSVPRequest is the public submission body. Attending is a pointer so
// an omitted value is distinguishable from an explicit "no".
type SubmitRSVPRequest struct {
	Name                string            `json:"name"`
	Email               string            `json:"email"`
	Phone               string            `json:"phone"`
	Attending           *bool             `json:"attending"`
	GuestCount          int               `json:"guestCount"`
	Reason              string            `json:"reason"`
	CustomAnswers       map[string]string `json:"customAnswers"`
	DietaryRestrictions []string          `json:"dietaryRestrictions"`
	AllergyDetails      string            `json:"allergyDetails"`
	Rank                string            `json:"rank"`
	Unit                string            `json:"unit"`
	Branch              string            `json:"branch"`
	EditToken           string            `json:"editToken"`
}

func (req *SubmitRSVPRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Match(nameExp).Error(errInvalidName.Error())),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Phone, validation.Match(phoneExp)),
		validation.Field(&req.Attending, validation.NotNil.Error(errMissingAttendance.Error())),
		validation.Field(&req.GuestCount, validation.Min(0), validation.Max(10)),
		validation.Field(&req.Reason, validation.Length(0, 500)),
		validation.Field(&req.AllergyDetails, validation.Length(0, 500)),
	)
}

// ToSubmission maps the validated request into the pipeline's input.
func (req *SubmitRSVPRequest) ToSubmission() service.Submission {
	attendance := domain.AttendanceNo
	if req.Attending != nil && *req.Attending {
		attendance = domain.AttendanceYes
	}

	guestCount := req.GuestCount
	if attendance != domain.AttendanceYes {
		guestCount = 0
	}

	return service.Submission{
		Name:                req.Name,
		Email:               req.Email,
		Phone:               req.Phone,
		Attendance:          attendance,
		GuestCount:          guestCount,
		Reason:              req.Reason,
		CustomAnswers:       req.CustomAnswers,
		DietaryRestrictions: req.DietaryRestrictions,
		AllergyDetails:      req.AllergyDetails,
		Rank:                req.Rank,
		Unit:                req.Unit,
		Branch:              req.Branch,
		EditToken:           req.EditToken,
	}
}

package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Attendance is the tri-state answer on an RSVP. Roster imports create entries
// that have not answered yet; those never come through the submission pipeline.
type Attendance int

const (
	AttendanceInvited Attendance = iota
	AttendanceYes
	AttendanceNo
)

// ParseAttendance is the single coercion boundary for the legacy store, which
// holds attendance as a bool, the strings "true"/"false", or null.
func ParseAttendance(v interface{}) (Attendance, error) {
	switch t := v.(type) {
	case nil:
		return AttendanceInvited, nil
	case bool:
		if t {
			return AttendanceYes, nil
		}
		return AttendanceNo, nil
	case string:
		switch t {
		case "true":
			return AttendanceYes, nil
		case "false":
			return AttendanceNo, nil
		}
	}

	return AttendanceInvited, fmt.Errorf("invalid attendance value %v", v)
}

func (a Attendance) Attending() bool {
	return a == AttendanceYes
}

func (a Attendance) Responded() bool {
	return a == AttendanceYes || a == AttendanceNo
}

func (a Attendance) MarshalJSON() ([]byte, error) {
	switch a {
	case AttendanceYes:
		return []byte("true"), nil
	case AttendanceNo:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (a *Attendance) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := ParseAttendance(raw)
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

type RSVP struct {
	ID                  uuid.UUID         `json:"rsvp_id"`
	EventID             uuid.UUID         `json:"event_id"`
	EditToken           string            `json:"edit_token,omitempty"`
	Name                string            `json:"name"`
	Email               string            `json:"email"`
	Phone               string            `json:"phone,omitempty"`
	Attendance          Attendance        `json:"attending"`
	GuestCount          int               `json:"guest_count"`
	Reason              string            `json:"reason,omitempty"`
	CustomAnswers       map[string]string `json:"custom_answers,omitempty"`
	DietaryRestrictions []string          `json:"dietary_restrictions,omitempty"`
	AllergyDetails      string            `json:"allergy_details,omitempty"`
	Rank                string            `json:"rank,omitempty"`
	Unit                string            `json:"unit,omitempty"`
	Branch              string            `json:"branch,omitempty"`
	ValidationHash      string            `json:"validation_hash,omitempty"`
	CheckInToken        string            `json:"check_in_token,omitempty"`
	CheckedInAt         *time.Time        `json:"checked_in_at,omitempty"`
	Timestamp           time.Time         `json:"timestamp"`
	LastModified        *time.Time        `json:"last_modified,omitempty"`
}

// PartySize is the number of seats the response occupies: the respondent plus
// their guests. Non-attending responses occupy none.
func (r *RSVP) PartySize() int {
	if !r.Attendance.Attending() {
		return 0
	}

	guests := r.GuestCount
	if guests < 0 {
		guests = 0
	}

	return 1 + guests
}

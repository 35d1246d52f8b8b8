package request_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muster-events/backend/internal/api/handler/v1/request"
	"github.com/muster-events/backend/internal/domain"
)

func boolPtr(b bool) *bool { return &b }

func validSubmitRequest() request.SubmitRSVPRequest {
	return request.SubmitRSVPRequest{
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Attending: boolPtr(true),
	}
}

func TestSubmitRSVPRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*request.SubmitRSVPRequest)
		wantErr string
	}{
		{
			name:   "valid request",
			mutate: func(*request.SubmitRSVPRequest) {},
		},
		{
			name:    "name too short",
			mutate:  func(r *request.SubmitRSVPRequest) { r.Name = "J" },
			wantErr: "name",
		},
		{
			name:    "name with digits",
			mutate:  func(r *request.SubmitRSVPRequest) { r.Name = "Jane 2nd" },
			wantErr: "name",
		},
		{
			name:   "name with hyphen and period",
			mutate: func(r *request.SubmitRSVPRequest) { r.Name = "Lt. Smith-Jones" },
		},
		{
			name:    "bad email",
			mutate:  func(r *request.SubmitRSVPRequest) { r.Email = "not-an-email" },
			wantErr: "email",
		},
		{
			name:    "missing attendance",
			mutate:  func(r *request.SubmitRSVPRequest) { r.Attending = nil },
			wantErr: "select whether you are attending",
		},
		{
			name:    "too many guests",
			mutate:  func(r *request.SubmitRSVPRequest) { r.GuestCount = 11 },
			wantErr: "guestCount",
		},
		{
			name:    "negative guests",
			mutate:  func(r *request.SubmitRSVPRequest) { r.GuestCount = -1 },
			wantErr: "guestCount",
		},
		{
			name:   "optional phone accepted",
			mutate: func(r *request.SubmitRSVPRequest) { r.Phone = "+1 (555) 123-4567" },
		},
		{
			name:    "malformed phone rejected",
			mutate:  func(r *request.SubmitRSVPRequest) { r.Phone = "call me" },
			wantErr: "phone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSubmitRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSubmitRSVPRequest_CollectsAllViolations(t *testing.T) {
	req := request.SubmitRSVPRequest{
		Name:       "J",
		Email:      "nope",
		GuestCount: 99,
	}

	err := req.Validate()
	require.Error(t, err)

	// Field errors are reported together, not first-failure-only.
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "guestCount")
	assert.Contains(t, err.Error(), "select whether you are attending")
}

func TestSubmitRSVPRequest_ToSubmission(t *testing.T) {
	req := validSubmitRequest()
	req.GuestCount = 3

	sub := req.ToSubmission()
	assert.Equal(t, domain.AttendanceYes, sub.Attendance)
	assert.Equal(t, 3, sub.GuestCount)

	// Declining zeroes the guest count.
	req.Attending = boolPtr(false)
	sub = req.ToSubmission()
	assert.Equal(t, domain.AttendanceNo, sub.Attendance)
	assert.Zero(t, sub.GuestCount)
}

func TestSignupRequest_Validate(t *testing.T) {
	valid := request.SignupRequest{
		Email:           "org@example.com",
		Password:        "hunter22x",
		ConfirmPassword: "hunter22x",
		Name:            "Organizer",
		Username:        "organizer1",
	}
	assert.NoError(t, valid.Validate())

	noDigits := valid
	noDigits.Password = "onlyletters"
	noDigits.ConfirmPassword = "onlyletters"
	assert.Error(t, noDigits.Validate())

	mismatch := valid
	mismatch.ConfirmPassword = "different1"
	assert.Error(t, mismatch.Validate())
}

// Package stats computes attendance aggregates from a response collection.
// Every view of an event's responses (dashboard, management, seating) goes
// through the same computation so the numbers never disagree.
package stats

import (
	"math"

	"github.com/muster-events/backend/internal/domain"
)

type Stats struct {
	Total               int `json:"total"`
	Attending           int `json:"attending"`
	NotAttending        int `json:"not_attending"`
	TotalGuests         int `json:"total_guests"`
	AttendingWithGuests int `json:"attending_with_guests"`
	TotalHeadcount      int `json:"total_headcount"`
	ResponseRate        int `json:"response_rate"`
}

// Compute aggregates a response collection. It is pure and order-independent:
// any permutation of the input produces identical output.
func Compute(responses []domain.RSVP) Stats {
	s := Stats{Total: len(responses)}

	for i := range responses {
		r := &responses[i]

		guests := r.GuestCount
		if guests < 0 {
			guests = 0
		}
		s.TotalGuests += guests

		switch r.Attendance {
		case domain.AttendanceYes:
			s.Attending++
			s.AttendingWithGuests += guests
		case domain.AttendanceNo:
			s.NotAttending++
		}
	}

	s.TotalHeadcount = s.Attending + s.AttendingWithGuests

	if s.Total > 0 {
		s.ResponseRate = int(math.Round(100 * float64(s.Attending+s.NotAttending) / float64(s.Total)))
	}

	return s
}

// AttendingGuests filters a response collection down to attending responses,
// preserving input order. Seating reconciliation depends on the ordering.
func AttendingGuests(responses []domain.RSVP) []domain.RSVP {
	attending := make([]domain.RSVP, 0, len(responses))
	for i := range responses {
		if responses[i].Attendance.Attending() {
			attending = append(attending, responses[i])
		}
	}

	return attending
}

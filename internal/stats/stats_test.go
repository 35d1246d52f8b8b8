package stats_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/stats"
)

func rsvp(a domain.Attendance, guests int) domain.RSVP {
	return domain.RSVP{Attendance: a, GuestCount: guests}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		responses []domain.RSVP
		want      stats.Stats
	}{
		{
			name:      "empty collection",
			responses: nil,
			want:      stats.Stats{},
		},
		{
			name: "mixed responses",
			responses: []domain.RSVP{
				rsvp(domain.AttendanceYes, 2),
				rsvp(domain.AttendanceYes, 0),
				rsvp(domain.AttendanceNo, 3),
				rsvp(domain.AttendanceInvited, 0),
			},
			want: stats.Stats{
				Total:               4,
				Attending:           2,
				NotAttending:        1,
				TotalGuests:         5,
				AttendingWithGuests: 2,
				TotalHeadcount:      4,
				ResponseRate:        75,
			},
		},
		{
			name: "negative guest counts are coerced to zero",
			responses: []domain.RSVP{
				rsvp(domain.AttendanceYes, -4),
			},
			want: stats.Stats{
				Total:          1,
				Attending:      1,
				TotalHeadcount: 1,
				ResponseRate:   100,
			},
		},
		{
			name: "roster-only entries count toward total but not response rate numerator",
			responses: []domain.RSVP{
				rsvp(domain.AttendanceInvited, 0),
				rsvp(domain.AttendanceInvited, 0),
				rsvp(domain.AttendanceYes, 1),
			},
			want: stats.Stats{
				Total:               3,
				Attending:           1,
				TotalGuests:         1,
				AttendingWithGuests: 1,
				TotalHeadcount:      2,
				ResponseRate:        33,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stats.Compute(tt.responses)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompute_HeadcountInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		responses := make([]domain.RSVP, rng.Intn(30))
		for j := range responses {
			responses[j] = rsvp(domain.Attendance(rng.Intn(3)), rng.Intn(12)-1)
		}

		got := stats.Compute(responses)

		assert.Equal(t, got.Attending+got.AttendingWithGuests, got.TotalHeadcount)
		assert.LessOrEqual(t, got.Attending+got.NotAttending, got.Total)
	}
}

func TestCompute_OrderIndependence(t *testing.T) {
	responses := []domain.RSVP{
		rsvp(domain.AttendanceYes, 3),
		rsvp(domain.AttendanceNo, 0),
		rsvp(domain.AttendanceInvited, 2),
		rsvp(domain.AttendanceYes, 0),
		rsvp(domain.AttendanceNo, 1),
	}

	want := stats.Compute(responses)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]domain.RSVP, len(responses))
		copy(shuffled, responses)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		assert.Equal(t, want, stats.Compute(shuffled))
	}
}

func TestAttendingGuests(t *testing.T) {
	responses := []domain.RSVP{
		{Name: "a", Attendance: domain.AttendanceYes},
		{Name: "b", Attendance: domain.AttendanceNo},
		{Name: "c", Attendance: domain.AttendanceYes},
		{Name: "d", Attendance: domain.AttendanceInvited},
	}

	got := stats.AttendingGuests(responses)

	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[1].Name)
}

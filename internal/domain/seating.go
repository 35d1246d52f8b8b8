package domain

import (
	"time"

	"github.com/google/uuid"
)

type SeatGuest struct {
	RSVPID     uuid.UUID `json:"rsvp_id"`
	Name       string    `json:"name"`
	GuestCount int       `json:"guest_count"`
}

func (g SeatGuest) PartySize() int {
	if g.GuestCount < 0 {
		return 1
	}

	return 1 + g.GuestCount
}

type Table struct {
	Number   int         `json:"table_number"`
	Capacity int         `json:"capacity"`
	VIP      bool        `json:"vip_table"`
	Guests   []SeatGuest `json:"assigned_guests"`
}

// Occupancy is the number of seats taken at the table.
func (t *Table) Occupancy() int {
	total := 0
	for _, g := range t.Guests {
		total += g.PartySize()
	}

	return total
}

func (t *Table) Remaining() int {
	return t.Capacity - t.Occupancy()
}

type SeatingChart struct {
	Enabled      bool        `json:"enabled"`
	Tables       []Table     `json:"tables"`
	Unassigned   []uuid.UUID `json:"unassigned_guests"`
	LastModified time.Time   `json:"last_modified"`
}

// TotalCapacity is the sum of all table capacities.
func (c *SeatingChart) TotalCapacity() int {
	total := 0
	for i := range c.Tables {
		total += c.Tables[i].Capacity
	}

	return total
}

// TableOf returns the table currently holding the guest, or nil.
func (c *SeatingChart) TableOf(rsvpID uuid.UUID) *Table {
	for i := range c.Tables {
		for _, g := range c.Tables[i].Guests {
			if g.RSVPID == rsvpID {
				return &c.Tables[i]
			}
		}
	}

	return nil
}

func (c *SeatingChart) IsUnassigned(rsvpID uuid.UUID) bool {
	for _, id := range c.Unassigned {
		if id == rsvpID {
			return true
		}
	}

	return false
}

type SeatingStats struct {
	Assigned      int `json:"assigned"`
	Unassigned    int `json:"unassigned"`
	Available     int `json:"available"`
	PercentFilled int `json:"percent_filled"`
}

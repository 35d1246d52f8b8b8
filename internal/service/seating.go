package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muster-events/backend/internal/domain"
	"github.com/muster-events/backend/internal/stats"
)

var (
	ErrSeatingDisabled = errors.New("seating chart is not enabled for this event")
	ErrTableNotFound   = errors.New("table not found")
)

// AssignResult reports a seat assignment outcome. Capacity problems are a
// result, not an error: the caller shows the message and carries on.
type AssignResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AutoAssignResult reports how many guests an auto-assignment placed and how
// many fit nowhere.
type AutoAssignResult struct {
	Assigned int `json:"assigned"`
	Failed   int `json:"failed"`
}

// SeatingService manages table assignments on an event's seating chart. All
// mutations are owner-gated and persisted through the event repository.
type SeatingService struct {
	events EventServiceGateway
	rsvps  RSVPRepository
}

// EventServiceGateway is the slice of event behavior seating needs: guarded
// loads and persistence.
type EventServiceGateway interface {
	GetEvent(ctx context.Context, eventID uuid.UUID) (domain.Event, error)
	UserOwnsEvent(event domain.Event, user domain.User) bool
	UpdateEvent(ctx context.Context, event domain.Event, user domain.User) (domain.Event, error)
}

func NewSeatingService(events EventServiceGateway, rsvps RSVPRepository) *SeatingService {
	return &SeatingService{
		events: events,
		rsvps:  rsvps,
	}
}

func (s *SeatingService) loadChart(ctx context.Context, eventID uuid.UUID, user domain.User) (domain.Event, *domain.SeatingChart, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, nil, err
	}

	if !s.events.UserOwnsEvent(event, user) {
		return domain.Event{}, nil, ErrNotEventOwner
	}

	if event.Seating == nil || !event.Seating.Enabled {
		return domain.Event{}, nil, ErrSeatingDisabled
	}

	return event, event.Seating, nil
}

func (s *SeatingService) persist(ctx context.Context, event domain.Event, user domain.User) error {
	event.Seating.LastModified = time.Now()

	if _, err := s.events.UpdateEvent(ctx, event, user); err != nil {
		return fmt.Errorf("s.events.UpdateEvent -> %w", err)
	}

	return nil
}

// Initialize creates a chart of tableCount tables, each seating
// seatsPerTable, with 1-based sequential numbering.
func (s *SeatingService) Initialize(ctx context.Context, eventID uuid.UUID, user domain.User, tableCount, seatsPerTable int) (*domain.SeatingChart, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !s.events.UserOwnsEvent(event, user) {
		return nil, ErrNotEventOwner
	}

	tables := make([]domain.Table, tableCount)
	for i := range tables {
		tables[i] = domain.Table{
			Number:   i + 1,
			Capacity: seatsPerTable,
			Guests:   []domain.SeatGuest{},
		}
	}

	event.Seating = &domain.SeatingChart{
		Enabled:    true,
		Tables:     tables,
		Unassigned: []uuid.UUID{},
	}

	if err = s.persist(ctx, event, user); err != nil {
		return nil, err
	}

	return event.Seating, nil
}

// Sync reconciles chart membership with current attendance: attending guests
// seated nowhere join the unassigned pool; guests no longer attending are
// purged from tables and the pool. Runs before any assignment view, since
// attendance can change between seating-chart views.
func (s *SeatingService) Sync(ctx context.Context, eventID uuid.UUID, user domain.User) (*domain.SeatingChart, error) {
	event, chart, err := s.loadChart(ctx, eventID, user)
	if err != nil {
		return nil, err
	}

	responses, err := s.rsvps.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.rsvps.FindByEvent -> %w", err)
	}

	syncChart(chart, stats.AttendingGuests(responses))

	if err = s.persist(ctx, event, user); err != nil {
		return nil, err
	}

	return chart, nil
}

// syncChart is the pure reconciliation step, separated for tests.
func syncChart(chart *domain.SeatingChart, attending []domain.RSVP) {
	attendingSet := make(map[uuid.UUID]bool, len(attending))
	for i := range attending {
		attendingSet[attending[i].ID] = true
	}

	// Purge guests who declined or were removed.
	for i := range chart.Tables {
		kept := chart.Tables[i].Guests[:0]
		for _, g := range chart.Tables[i].Guests {
			if attendingSet[g.RSVPID] {
				kept = append(kept, g)
			}
		}
		chart.Tables[i].Guests = kept
	}

	keptUnassigned := chart.Unassigned[:0]
	for _, id := range chart.Unassigned {
		if attendingSet[id] {
			keptUnassigned = append(keptUnassigned, id)
		}
	}
	chart.Unassigned = keptUnassigned

	// Attending guests seated nowhere join the unassigned pool in response
	// order.
	for i := range attending {
		id := attending[i].ID
		if chart.TableOf(id) == nil && !chart.IsUnassigned(id) {
			chart.Unassigned = append(chart.Unassigned, id)
		}
	}
}

// Assign seats a guest at a table, failing on insufficient capacity.
func (s *SeatingService) Assign(ctx context.Context, eventID uuid.UUID, user domain.User, rsvpID uuid.UUID, tableNumber int) (AssignResult, error) {
	event, chart, err := s.loadChart(ctx, eventID, user)
	if err != nil {
		return AssignResult{}, err
	}

	rsvp, err := s.rsvps.FindByID(ctx, rsvpID)
	if err != nil {
		return AssignResult{}, err
	}

	guest := domain.SeatGuest{RSVPID: rsvp.ID, Name: rsvp.Name, GuestCount: rsvp.GuestCount}

	result, err := assignGuest(chart, guest, tableNumber)
	if err != nil {
		return AssignResult{}, err
	}
	if !result.Success {
		return result, nil
	}

	if err = s.persist(ctx, event, user); err != nil {
		return AssignResult{}, err
	}

	return result, nil
}

func assignGuest(chart *domain.SeatingChart, guest domain.SeatGuest, tableNumber int) (AssignResult, error) {
	var table *domain.Table
	for i := range chart.Tables {
		if chart.Tables[i].Number == tableNumber {
			table = &chart.Tables[i]
			break
		}
	}
	if table == nil {
		return AssignResult{}, ErrTableNotFound
	}

	party := guest.PartySize()

	// A guest already seated here frees their own seats for the check, so
	// re-assigning to the same table is a no-op rather than a false failure.
	occupied := table.Occupancy()
	for _, seated := range table.Guests {
		if seated.RSVPID == guest.RSVPID {
			occupied -= seated.PartySize()
			break
		}
	}

	if occupied+party > table.Capacity {
		return AssignResult{
			Success: false,
			Message: fmt.Sprintf("insufficient capacity at table %v: %v seats left, party of %v", table.Number, table.Capacity-occupied, party),
		}, nil
	}

	// A guest sits at one table at most.
	unassignGuest(chart, guest.RSVPID)
	table.Guests = append(table.Guests, guest)

	return AssignResult{Success: true}, nil
}

// Unassign removes a guest from whichever table holds them and returns them
// to the unassigned pool.
func (s *SeatingService) Unassign(ctx context.Context, eventID uuid.UUID, user domain.User, rsvpID uuid.UUID) (bool, error) {
	event, chart, err := s.loadChart(ctx, eventID, user)
	if err != nil {
		return false, err
	}

	if !unassignGuest(chart, rsvpID) {
		return false, nil
	}
	chart.Unassigned = append(chart.Unassigned, rsvpID)

	if err = s.persist(ctx, event, user); err != nil {
		return false, err
	}

	return true, nil
}

// unassignGuest removes the guest from any table and from the unassigned
// pool, reporting whether a table held them.
func unassignGuest(chart *domain.SeatingChart, rsvpID uuid.UUID) bool {
	removed := false
	for i := range chart.Tables {
		guests := chart.Tables[i].Guests
		for j := range guests {
			if guests[j].RSVPID == rsvpID {
				chart.Tables[i].Guests = append(guests[:j], guests[j+1:]...)
				removed = true
				break
			}
		}
	}

	for i, id := range chart.Unassigned {
		if id == rsvpID {
			chart.Unassigned = append(chart.Unassigned[:i], chart.Unassigned[i+1:]...)
			break
		}
	}

	return removed
}

// AutoAssign places every unassigned guest into the first table with enough
// remaining capacity, in pool order, without backtracking. Guests that fit
// nowhere stay unassigned and are counted as failed. First-fit in input
// order is deliberate: it keeps the outcome reproducible.
func (s *SeatingService) AutoAssign(ctx context.Context, eventID uuid.UUID, user domain.User) (AutoAssignResult, error) {
	event, chart, err := s.loadChart(ctx, eventID, user)
	if err != nil {
		return AutoAssignResult{}, err
	}

	responses, err := s.rsvps.FindByEvent(ctx, eventID)
	if err != nil {
		return AutoAssignResult{}, fmt.Errorf("s.rsvps.FindByEvent -> %w", err)
	}

	byID := make(map[uuid.UUID]domain.RSVP, len(responses))
	for i := range responses {
		byID[responses[i].ID] = responses[i]
	}

	result := autoAssign(chart, byID)

	if err = s.persist(ctx, event, user); err != nil {
		return AutoAssignResult{}, err
	}

	return result, nil
}

func autoAssign(chart *domain.SeatingChart, byID map[uuid.UUID]domain.RSVP) AutoAssignResult {
	var result AutoAssignResult

	pool := make([]uuid.UUID, len(chart.Unassigned))
	copy(pool, chart.Unassigned)

	for _, id := range pool {
		rsvp, ok := byID[id]
		if !ok {
			result.Failed++
			continue
		}

		guest := domain.SeatGuest{RSVPID: rsvp.ID, Name: rsvp.Name, GuestCount: rsvp.GuestCount}
		party := guest.PartySize()

		placed := false
		for i := range chart.Tables {
			if chart.Tables[i].Remaining() >= party {
				unassignGuest(chart, id)
				chart.Tables[i].Guests = append(chart.Tables[i].Guests, guest)
				placed = true
				break
			}
		}

		if placed {
			result.Assigned++
		} else {
			result.Failed++
		}
	}

	return result
}

// Stats summarizes chart occupancy.
func (s *SeatingService) Stats(ctx context.Context, eventID uuid.UUID, user domain.User) (domain.SeatingStats, error) {
	_, chart, err := s.loadChart(ctx, eventID, user)
	if err != nil {
		return domain.SeatingStats{}, err
	}

	return chartStats(chart), nil
}

func chartStats(chart *domain.SeatingChart) domain.SeatingStats {
	assigned := 0
	for i := range chart.Tables {
		assigned += chart.Tables[i].Occupancy()
	}

	capacity := chart.TotalCapacity()

	result := domain.SeatingStats{
		Assigned:   assigned,
		Unassigned: len(chart.Unassigned),
		Available:  capacity - assigned,
	}
	if capacity > 0 {
		result.PercentFilled = int(float64(assigned)/float64(capacity)*100 + 0.5)
	}

	return result
}

// ExportCSV renders the chart as CSV: one row per seated guest, then the
// unassigned guests.
func (s *SeatingService) ExportCSV(ctx context.Context, eventID uuid.UUID, user domain.User) (string, error) {
	_, chart, err := s.loadChart(ctx, eventID, user)
	if err != nil {
		return "", err
	}

	responses, err := s.rsvps.FindByEvent(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("s.rsvps.FindByEvent -> %w", err)
	}

	byID := make(map[uuid.UUID]domain.RSVP, len(responses))
	for i := range responses {
		byID[responses[i].ID] = responses[i]
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write([]string{"Table", "Name", "Party Size", "VIP"})
	for i := range chart.Tables {
		t := &chart.Tables[i]
		for _, g := range t.Guests {
			_ = w.Write([]string{
				strconv.Itoa(t.Number),
				g.Name,
				strconv.Itoa(g.PartySize()),
				strconv.FormatBool(t.VIP),
			})
		}
	}
	for _, id := range chart.Unassigned {
		name := id.String()
		party := 1
		if rsvp, ok := byID[id]; ok {
			name = rsvp.Name
			party = rsvp.PartySize()
		}
		_ = w.Write([]string{"Unassigned", name, strconv.Itoa(party), "false"})
	}
	w.Flush()

	if err = w.Error(); err != nil {
		return "", fmt.Errorf("csv.Write -> %w", err)
	}

	return sb.String(), nil
}

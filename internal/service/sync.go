package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muster-events/backend/internal/logger"
	"github.com/muster-events/backend/internal/pkg/retry"
	"github.com/muster-events/backend/internal/remote"
)

var ErrSyncInProgress = errors.New("a sync is already in progress")

// SyncService reconciles the local database with the remote store and drains
// both backlogs of RSVPs submitted while the backend was unreachable: the
// external intake queue and the local pending_submissions fallback. Only one
// sync runs at a time.
type SyncService struct {
	store       remote.Store
	intake      remote.IntakeQueue
	eventRepo   EventRepository
	rsvpRepo    RSVPRepository
	pendingRepo PendingRepository
	policy      RemotePolicy

	inFlight atomic.Bool
}

func NewSyncService(store remote.Store, intake remote.IntakeQueue, eventRepo EventRepository, rsvpRepo RSVPRepository, pendingRepo PendingRepository, policy RemotePolicy) *SyncService {
	return &SyncService{
		store:       store,
		intake:      intake,
		eventRepo:   eventRepo,
		rsvpRepo:    rsvpRepo,
		pendingRepo: pendingRepo,
		policy:      policy.orDefaults(),
	}
}

// SyncReport summarizes one reconciliation pass.
type SyncReport struct {
	EventsLoaded    int `json:"eventsLoaded"`
	PendingPromoted int `json:"pendingPromoted"`
	IntakePromoted  int `json:"intakePromoted"`
	IntakeSkipped   int `json:"intakeSkipped"`
}

// Run performs a full pass: pull events and responses from the remote store
// into the local database, promote fallback-stored submissions, then drain
// the intake queue. A second call while one is running returns
// ErrSyncInProgress.
func (s *SyncService) Run(ctx context.Context) (SyncReport, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return SyncReport{}, ErrSyncInProgress
	}
	defer s.inFlight.Store(false)

	var report SyncReport

	loaded, err := s.pullRemote(ctx)
	if err != nil {
		// A degraded remote must not take the service down. The local
		// database keeps serving whatever it already holds.
		logger.L().Warn("remote pull failed, continuing with local data",
			zap.Error(err))
	}
	report.EventsLoaded = loaded

	touched := make(map[uuid.UUID]bool)
	cleanup := make(map[uuid.UUID][]uuid.UUID)

	promoted, err := s.drainPending(ctx, touched, cleanup)
	report.PendingPromoted = promoted
	if err != nil {
		return report, err
	}

	intakePromoted, skipped, err := s.drainIntake(ctx, touched)
	report.IntakePromoted = intakePromoted
	report.IntakeSkipped = skipped
	if err != nil {
		return report, err
	}

	for eventID := range touched {
		if err := s.persistResponses(ctx, eventID); err != nil {
			logger.L().Warn("failed to persist promoted responses",
				zap.String("eventID", eventID.String()),
				zap.Error(err))

			continue
		}

		for _, pendingID := range cleanup[eventID] {
			if err := s.pendingRepo.Delete(ctx, pendingID); err != nil {
				logger.L().Warn("failed to clear promoted pending submission",
					zap.String("id", pendingID.String()),
					zap.Error(err))
			}
		}
	}

	return report, nil
}

// pullRemote loads the remote event index and response collections into the
// local database. Returns the number of events reconciled.
func (s *SyncService) pullRemote(ctx context.Context) (int, error) {
	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("s.store.LoadEvents -> %w", err)
	}

	responses, err := s.store.LoadResponses(ctx)
	if err != nil {
		return 0, fmt.Errorf("s.store.LoadResponses -> %w", err)
	}

	count := 0
	for _, event := range events {
		if _, err = s.eventRepo.Save(ctx, event); err != nil {
			logger.L().Warn("failed to reconcile remote event",
				zap.String("eventID", event.ID.String()),
				zap.Error(err))
			continue
		}

		if err = s.rsvpRepo.ReplaceForEvent(ctx, event.ID, responses[event.ID]); err != nil {
			logger.L().Warn("failed to reconcile remote responses",
				zap.String("eventID", event.ID.String()),
				zap.Error(err))
		}
		count++
	}

	return count, nil
}

// drainPending promotes fallback-stored submissions back into the canonical
// response collection. Runs after the remote pull so a promoted RSVP is not
// wiped by the pull's ReplaceForEvent. Rows are deleted only once their
// event's responses persist remotely; until then a crash re-promotes rather
// than drops.
func (s *SyncService) drainPending(ctx context.Context, touched map[uuid.UUID]bool, cleanup map[uuid.UUID][]uuid.UUID) (int, error) {
	events, err := s.eventRepo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("s.eventRepo.FindAll -> %w", err)
	}

	promoted := 0
	for _, event := range events {
		pendings, err := s.pendingRepo.FindByEvent(ctx, event.ID)
		if err != nil {
			return promoted, fmt.Errorf("s.pendingRepo.FindByEvent -> %w", err)
		}

		for _, pending := range pendings {
			if _, err := s.rsvpRepo.Upsert(ctx, pending.RSVP); err != nil {
				logger.L().Warn("failed to promote pending submission",
					zap.String("id", pending.ID.String()),
					zap.Error(err))
				continue
			}
			touched[event.ID] = true
			cleanup[event.ID] = append(cleanup[event.ID], pending.ID)
			promoted++
		}
	}

	return promoted, nil
}

// drainIntake promotes queued submissions to canonical RSVPs. Each entry is
// upserted locally and then marked processed, so a crash mid-drain
// re-delivers rather than drops. Touched events are persisted remotely by the
// caller.
func (s *SyncService) drainIntake(ctx context.Context, touched map[uuid.UUID]bool) (promoted, skipped int, err error) {
	if s.intake == nil {
		return 0, 0, nil
	}

	entries, err := s.intake.ListPending(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("s.intake.ListPending -> %w", err)
	}

	for _, entry := range entries {
		if _, err := s.rsvpRepo.Upsert(ctx, entry.RSVP); err != nil {
			logger.L().Warn("failed to promote intake entry",
				zap.String("id", entry.ID),
				zap.Error(err))
			skipped++
			continue
		}
		touched[entry.RSVP.EventID] = true

		if err := s.intake.MarkProcessed(ctx, entry); err != nil {
			logger.L().Warn("failed to mark intake entry processed",
				zap.String("id", entry.ID),
				zap.Error(err))
		}
		promoted++
	}

	return promoted, skipped, nil
}

func (s *SyncService) persistResponses(ctx context.Context, id uuid.UUID) error {
	responses, err := s.rsvpRepo.FindByEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("s.rsvpRepo.FindByEvent -> %w", err)
	}

	err = retry.Do(ctx, s.policy.Attempts, s.policy.Backoff, func() error {
		if saveErr := s.store.SaveResponses(ctx, id, responses); saveErr != nil {
			if !remote.IsTransient(saveErr) {
				return &retry.Permanent{Err: saveErr}
			}
			return saveErr
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("s.store.SaveResponses -> %w", err)
	}

	return nil
}

// PendingCount reports how many submissions are waiting for a sync pass:
// intake entries plus fallback-stored rows. Callers poll this sparingly; the
// backlogs are only drained by Run.
func (s *SyncService) PendingCount(ctx context.Context) (int, error) {
	count := 0

	if s.intake != nil {
		entries, err := s.intake.ListPending(ctx)
		if err != nil {
			return 0, fmt.Errorf("s.intake.ListPending -> %w", err)
		}
		count = len(entries)
	}

	events, err := s.eventRepo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("s.eventRepo.FindAll -> %w", err)
	}
	for _, event := range events {
		n, err := s.pendingRepo.CountByEvent(ctx, event.ID)
		if err != nil {
			return 0, fmt.Errorf("s.pendingRepo.CountByEvent -> %w", err)
		}
		count += int(n)
	}

	return count, nil
}

// InProgress reports whether a sync pass is currently running.
func (s *SyncService) InProgress() bool {
	return s.inFlight.Load()
}

// StartBackground runs periodic sync passes until the context is cancelled.
// A pass still running when the ticker fires is skipped, not queued.
func (s *SyncService) StartBackground(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Run(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
					logger.L().Warn("background sync failed", zap.Error(err))
				}
			}
		}
	}()
}

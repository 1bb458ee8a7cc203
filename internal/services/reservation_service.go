package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"ghostlounge_backend/internal/calendar"
	"ghostlounge_backend/internal/database"
	"ghostlounge_backend/internal/lock"
	"ghostlounge_backend/internal/metrics"
	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/repositories"
	"ghostlounge_backend/pkg/utils"
)

const (
	defaultLockWait     = 5 * time.Second
	calendarTimeout     = 5 * time.Second
	defaultUpcomingSize = 10
)

// --- Reservation DTOs ---

// ReservationRequest carries every writable field of a reservation.
// Update replaces all of them.
type ReservationRequest struct {
	ClientID         int64     `json:"client_id" binding:"required"`
	PCID             int64     `json:"pc_id" binding:"required"`
	StartTime        time.Time `json:"start_time" binding:"required"`
	EndTime          time.Time `json:"end_time" binding:"required"`
	Notes            *string   `json:"notes"`
	ExternalEventRef *string   `json:"external_event_ref"`
}

// --- ReservationService Interface ---
type ReservationService interface {
	CheckConflict(ctx context.Context, pcID int64, start, end time.Time, excludeID *int64) (bool, error)
	Create(ctx context.Context, req ReservationRequest, createdBy int64) (*models.Reservation, error)
	Update(ctx context.Context, id int64, req ReservationRequest) (*models.Reservation, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Reservation, error)
	ListAll(ctx context.Context) ([]models.Reservation, error)
	ListByClient(ctx context.Context, clientID int64) ([]models.Reservation, error)
	ListByRange(ctx context.Context, from, to time.Time) ([]models.Reservation, error)
	ListUpcoming(ctx context.Context, limit int) ([]models.Reservation, error)
	SetExternalEventRef(ctx context.Context, id int64, ref *string) error
}

// --- reservationService Implementation ---
type reservationService struct {
	db         *sql.DB
	resRepo    repositories.ReservationRepository
	clientRepo repositories.ClientRepository
	pcRepo     repositories.PCRepository
	authRepo   repositories.AuthRepository
	locker     lock.Locker
	syncer     calendar.Syncer
	metrics    *metrics.Metrics
	lockWait   time.Duration
	now        func() time.Time
}

// NewReservationService creates a new instance of ReservationService.
// A nil locker falls back to an in-process lock; a nil syncer publishes nothing.
func NewReservationService(
	db *sql.DB,
	resRepo repositories.ReservationRepository,
	clientRepo repositories.ClientRepository,
	pcRepo repositories.PCRepository,
	authRepo repositories.AuthRepository,
	locker lock.Locker,
	syncer calendar.Syncer,
	m *metrics.Metrics,
) ReservationService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if syncer == nil {
		syncer = calendar.Nop{}
	}
	return &reservationService{
		db:         db,
		resRepo:    resRepo,
		clientRepo: clientRepo,
		pcRepo:     pcRepo,
		authRepo:   authRepo,
		locker:     locker,
		syncer:     syncer,
		metrics:    m,
		lockWait:   defaultLockWait,
		now:        database.Now,
	}
}

func pcLockKey(pcID int64) string {
	return fmt.Sprintf("pc:%d", pcID)
}

// validateInterval normalises [start, end) and rejects empty or inverted intervals.
func validateInterval(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, validationf("start_time and end_time are required")
	}
	start, end = database.Normalize(start), database.Normalize(end)
	if !end.After(start) {
		return time.Time{}, time.Time{}, validationf("end_time must be after start_time")
	}
	return start, end, nil
}

// lockPCs takes the booking locks for every pc in ids, in ascending order.
func (s *reservationService) lockPCs(ctx context.Context, ids ...int64) (func(), error) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	var releases []func()
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	var prev int64
	for i, id := range ids {
		if i > 0 && id == prev {
			continue
		}
		prev = id
		release, err := s.locker.Acquire(lockCtx, pcLockKey(id))
		if err != nil {
			releaseAll()
			if errors.Is(err, lock.ErrNotAcquired) {
				return nil, ErrPCBusy
			}
			return nil, fmt.Errorf("%w: acquiring pc lock: %v", ErrStore, err)
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

func (s *reservationService) CheckConflict(ctx context.Context, pcID int64, start, end time.Time, excludeID *int64) (bool, error) {
	start, end, err := validateInterval(start, end)
	if err != nil {
		return false, err
	}
	conflict, err := s.resRepo.HasConflict(ctx, s.db, pcID, start, end, excludeID)
	if err != nil {
		return false, storeErr(err, nil, "checking reservation conflict")
	}
	return conflict, nil
}

// checkRefs verifies the client and pc exist. requireActive rejects inactive pcs.
func (s *reservationService) checkRefs(ctx context.Context, exec repositories.SQLExecutor, clientID, pcID int64, requireActive bool) error {
	if _, err := s.clientRepo.GetClientByID(ctx, exec, clientID); err != nil {
		return storeErr(err, ErrClientNotFound, "loading client")
	}
	pc, err := s.pcRepo.GetPCByID(ctx, exec, pcID)
	if err != nil {
		return storeErr(err, ErrPCNotFound, "loading pc")
	}
	if requireActive && !pc.IsActive {
		return validationf("pc %q is not active", pc.Name)
	}
	return nil
}

func validateRequest(req ReservationRequest) (ReservationRequest, error) {
	if req.ClientID <= 0 {
		return req, validationf("client_id is required")
	}
	if req.PCID <= 0 {
		return req, validationf("pc_id is required")
	}
	start, end, err := validateInterval(req.StartTime, req.EndTime)
	if err != nil {
		return req, err
	}
	req.StartTime, req.EndTime = start, end
	return req, nil
}

func (s *reservationService) Create(ctx context.Context, req ReservationRequest, createdBy int64) (*models.Reservation, error) {
	req, err := validateRequest(req)
	if err != nil {
		return nil, err
	}
	if createdBy <= 0 {
		return nil, validationf("created_by is required")
	}

	release, err := s.lockPCs(ctx, req.PCID)
	if err != nil {
		return nil, err
	}

	var created *models.Reservation
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.checkRefs(ctx, tx, req.ClientID, req.PCID, true); err != nil {
			return err
		}
		if _, err := s.authRepo.FindUserByID(ctx, tx, createdBy); err != nil {
			return storeErr(err, ErrUserNotFound, "loading creator")
		}
		if err := s.ensureFree(ctx, tx, req.PCID, req.StartTime, req.EndTime, nil); err != nil {
			return err
		}

		now := s.now()
		res := &models.Reservation{
			ClientID:         req.ClientID,
			PCID:             req.PCID,
			StartTime:        req.StartTime,
			EndTime:          req.EndTime,
			Notes:            req.Notes,
			ExternalEventRef: req.ExternalEventRef,
			CreatedBy:        &createdBy,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if _, err := s.resRepo.CreateReservation(ctx, tx, res); err != nil {
			return storeErr(err, nil, "creating reservation")
		}
		created, err = s.resRepo.GetReservationByID(ctx, tx, res.ID)
		return storeErr(err, nil, "reloading reservation")
	})
	// the mirror publish must not hold up other bookings on the pc
	release()
	if err != nil {
		return nil, storeErr(err, nil, "creating reservation")
	}

	s.metrics.RecordReservationWrite(calendar.ActionCreated)
	s.publish(ctx, calendar.ActionCreated, created)
	return created, nil
}

func (s *reservationService) ensureFree(ctx context.Context, exec repositories.SQLExecutor, pcID int64, start, end time.Time, excludeID *int64) error {
	conflict, err := s.resRepo.HasConflict(ctx, exec, pcID, start, end, excludeID)
	if err != nil {
		return storeErr(err, nil, "checking reservation conflict")
	}
	if conflict {
		s.metrics.RecordReservationConflict()
		return ErrReservationConflict
	}
	return nil
}

// Update replaces every field of a reservation; its own interval never conflicts with itself.
func (s *reservationService) Update(ctx context.Context, id int64, req ReservationRequest) (*models.Reservation, error) {
	req, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	release, err := s.lockPCs(ctx, existing.PCID, req.PCID)
	if err != nil {
		return nil, err
	}

	var updated *models.Reservation
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := s.resRepo.GetReservationByID(ctx, tx, id)
		if err != nil {
			return storeErr(err, ErrReservationNotFound, "loading reservation")
		}
		if err := s.checkRefs(ctx, tx, req.ClientID, req.PCID, req.PCID != current.PCID); err != nil {
			return err
		}
		if err := s.ensureFree(ctx, tx, req.PCID, req.StartTime, req.EndTime, &id); err != nil {
			return err
		}

		current.ClientID = req.ClientID
		current.PCID = req.PCID
		current.StartTime = req.StartTime
		current.EndTime = req.EndTime
		current.Notes = req.Notes
		current.ExternalEventRef = req.ExternalEventRef
		current.UpdatedAt = s.now()
		if err := s.resRepo.UpdateReservation(ctx, tx, current); err != nil {
			return storeErr(err, ErrReservationNotFound, "updating reservation")
		}
		updated, err = s.resRepo.GetReservationByID(ctx, tx, id)
		return storeErr(err, nil, "reloading reservation")
	})
	release()
	if err != nil {
		return nil, storeErr(err, nil, "updating reservation")
	}

	s.metrics.RecordReservationWrite(calendar.ActionUpdated)
	s.publish(ctx, calendar.ActionUpdated, updated)
	return updated, nil
}

// Delete removes a reservation. Reservations are leaves; nothing guards deletion.
func (s *reservationService) Delete(ctx context.Context, id int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.resRepo.DeleteReservation(ctx, s.db, id); err != nil {
		return storeErr(err, ErrReservationNotFound, "deleting reservation")
	}
	s.metrics.RecordReservationWrite(calendar.ActionDeleted)
	s.publish(ctx, calendar.ActionDeleted, existing)
	return nil
}

// publish mirrors a committed change to the external calendar. Failures are
// logged and counted; the reservation itself is already durable.
func (s *reservationService) publish(ctx context.Context, action string, res *models.Reservation) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), calendarTimeout)
	defer cancel()

	if err := s.syncer.Publish(pubCtx, calendar.NewEvent(action, res, s.now())); err != nil {
		s.metrics.RecordCalendarFailure()
		utils.LogWarn(err, "Calendar mirror publish failed", map[string]interface{}{
			"reservation_id": res.ID,
			"action":         action,
		})
	}
}

func (s *reservationService) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	res, err := s.resRepo.GetReservationByID(ctx, s.db, id)
	if err != nil {
		return nil, storeErr(err, ErrReservationNotFound, "getting reservation")
	}
	return res, nil
}

func (s *reservationService) ListAll(ctx context.Context) ([]models.Reservation, error) {
	list, err := s.resRepo.GetReservations(ctx)
	return list, storeErr(err, nil, "listing reservations")
}

func (s *reservationService) ListByClient(ctx context.Context, clientID int64) ([]models.Reservation, error) {
	if _, err := s.clientRepo.GetClientByID(ctx, s.db, clientID); err != nil {
		return nil, storeErr(err, ErrClientNotFound, "loading client")
	}
	list, err := s.resRepo.GetReservationsByClient(ctx, clientID)
	return list, storeErr(err, nil, "listing client reservations")
}

// ListByRange returns reservations intersecting [from, to), ordered by start.
func (s *reservationService) ListByRange(ctx context.Context, from, to time.Time) ([]models.Reservation, error) {
	from, to, err := validateInterval(from, to)
	if err != nil {
		return nil, err
	}
	list, err := s.resRepo.GetReservationsInRange(ctx, from, to)
	return list, storeErr(err, nil, "listing reservations in range")
}

func (s *reservationService) ListUpcoming(ctx context.Context, limit int) ([]models.Reservation, error) {
	if limit <= 0 {
		limit = defaultUpcomingSize
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	list, err := s.resRepo.GetUpcomingReservations(ctx, s.now(), limit)
	return list, storeErr(err, nil, "listing upcoming reservations")
}

// SetExternalEventRef records the remote calendar event id. A nil or empty ref clears it.
func (s *reservationService) SetExternalEventRef(ctx context.Context, id int64, ref *string) error {
	if ref != nil {
		ref = utils.NewNullString(*ref)
	}
	if err := s.resRepo.SetExternalEventRef(ctx, s.db, id, ref); err != nil {
		return storeErr(err, ErrReservationNotFound, "setting external event ref")
	}
	return nil
}

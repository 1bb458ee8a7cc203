package services

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostlounge_backend/internal/calendar"
	"ghostlounge_backend/internal/models"
)

func (e *env) book(clientID, pcID int64, start, end time.Time) (*models.Reservation, error) {
	return e.reservations.Create(e.ctx, ReservationRequest{ClientID: clientID, PCID: pcID, StartTime: start, EndTime: end}, e.staff)
}

func TestBackToBackReservationsAllowed(t *testing.T) {
	e := newEnv(t)
	neo, pc := e.client("Neo"), e.pc("PC-1")

	_, err := e.book(neo, pc, at(10, 0), at(11, 0))
	require.NoError(t, err)
	_, err = e.book(neo, pc, at(11, 0), at(12, 0))
	require.NoError(t, err)
	_, err = e.book(neo, pc, at(9, 0), at(10, 0))
	require.NoError(t, err)
}

func TestOverlappingReservationRejected(t *testing.T) {
	e := newEnv(t)
	neo, pc := e.client("Neo"), e.pc("PC-1")
	_, err := e.book(neo, pc, at(10, 0), at(11, 0))
	require.NoError(t, err)

	conflict, err := e.reservations.CheckConflict(e.ctx, pc, at(10, 30), at(10, 45), nil)
	require.NoError(t, err)
	assert.True(t, conflict)

	_, err = e.book(neo, pc, at(10, 30), at(10, 45))
	requireKind(t, err, KindConflict)
	assert.ErrorIs(t, err, ErrReservationConflict)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.ReservationConflicts()))

	// another pc is unaffected
	_, err = e.book(neo, e.pc("PC-2"), at(10, 30), at(10, 45))
	require.NoError(t, err)
}

func TestUpdateExcludesItself(t *testing.T) {
	e := newEnv(t)
	neo, pc := e.client("Neo"), e.pc("PC-1")
	res, err := e.book(neo, pc, at(10, 0), at(11, 0))
	require.NoError(t, err)

	conflict, err := e.reservations.CheckConflict(e.ctx, pc, at(10, 15), at(11, 15), &res.ID)
	require.NoError(t, err)
	assert.False(t, conflict)

	updated, err := e.reservations.Update(e.ctx, res.ID, ReservationRequest{ClientID: neo, PCID: pc, StartTime: at(10, 15), EndTime: at(11, 15)})
	require.NoError(t, err)
	assert.True(t, updated.StartTime.Equal(at(10, 15)))
	assert.True(t, updated.EndTime.Equal(at(11, 15)))
	assert.Equal(t, res.CreatedBy, updated.CreatedBy)

	other, err := e.book(neo, pc, at(12, 0), at(13, 0))
	require.NoError(t, err)
	_, err = e.reservations.Update(e.ctx, other.ID, ReservationRequest{ClientID: neo, PCID: pc, StartTime: at(11, 0), EndTime: at(12, 30)})
	assert.ErrorIs(t, err, ErrReservationConflict)
}

func TestNoDoubleBookingUnderConcurrentCreates(t *testing.T) {
	e := newEnv(t)
	neo, pc := e.client("Neo"), e.pc("PC-1")

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := at(10, i*5)
			_, errs[i] = e.book(neo, pc, start, start.Add(time.Hour))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	all, err := e.reservations.ListAll(e.ctx)
	require.NoError(t, err)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			assert.False(t, all[i].PCID == all[j].PCID && all[i].Overlaps(all[j].StartTime, all[j].EndTime))
		}
	}
}

func TestReservationValidation(t *testing.T) {
	e := newEnv(t)
	neo, pc := e.client("Neo"), e.pc("PC-1")

	_, err := e.book(neo, pc, at(11, 0), at(10, 0))
	requireKind(t, err, KindValidation)
	_, err = e.book(neo, pc, at(10, 0), at(10, 0))
	requireKind(t, err, KindValidation)
	_, err = e.reservations.CheckConflict(e.ctx, pc, at(10, 0), at(9, 0), nil)
	requireKind(t, err, KindValidation)

	_, err = e.book(9999, pc, at(10, 0), at(11, 0))
	assert.ErrorIs(t, err, ErrClientNotFound)
	_, err = e.book(neo, 9999, at(10, 0), at(11, 0))
	assert.ErrorIs(t, err, ErrPCNotFound)
	_, err = e.reservations.Create(e.ctx, ReservationRequest{ClientID: neo, PCID: pc, StartTime: at(10, 0), EndTime: at(11, 0)}, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	inactive := false
	_, err = e.pcs.UpdatePC(e.ctx, pc, UpdatePCRequest{IsActive: &inactive})
	require.NoError(t, err)
	_, err = e.book(neo, pc, at(10, 0), at(11, 0))
	requireKind(t, err, KindValidation)
}

func TestInactivePCKeepsExistingBookingsEditable(t *testing.T) {
	e := newEnv(t)
	neo, pc := e.client("Neo"), e.pc("PC-1")
	res, err := e.book(neo, pc, at(10, 0), at(11, 0))
	require.NoError(t, err)

	inactive := false
	_, err = e.pcs.UpdatePC(e.ctx, pc, UpdatePCRequest{IsActive: &inactive})
	require.NoError(t, err)

	_, err = e.reservations.Update(e.ctx, res.ID, ReservationRequest{ClientID: neo, PCID: pc, StartTime: at(10, 30), EndTime: at(11, 30)})
	require.NoError(t, err)

	err = e.pcs.DeletePC(e.ctx, pc)
	assert.ErrorIs(t, err, ErrPCHasReservations)
}

func TestReservationTimesAreNormalised(t *testing.T) {
	e := newEnv(t)
	neo, pc := e.client("Neo"), e.pc("PC-1")
	almaty := time.FixedZone("UTC+5", 5*3600)
	start := time.Date(2030, 1, 15, 15, 0, 0, 123456789, almaty)

	res, err := e.book(neo, pc, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, at(10, 0), res.StartTime)
	assert.Equal(t, time.UTC, res.StartTime.Location())

	_, err = e.book(neo, pc, at(10, 59), at(12, 0))
	assert.ErrorIs(t, err, ErrReservationConflict)
}

func TestListByRangeAndUpcoming(t *testing.T) {
	e := newEnv(t)
	neo, trin := e.client("Neo"), e.client("Trinity")
	pc1, pc2 := e.pc("PC-1"), e.pc("PC-2")

	_, err := e.book(neo, pc1, at(8, 0), at(9, 0))
	require.NoError(t, err)
	_, err = e.book(trin, pc2, at(12, 0), at(13, 0))
	require.NoError(t, err)
	_, err = e.book(neo, pc1, at(10, 0), at(11, 0))
	require.NoError(t, err)

	list, err := e.reservations.ListByRange(e.ctx, at(9, 0), at(12, 0))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].StartTime.Equal(at(10, 0)))

	list, err = e.reservations.ListByRange(e.ctx, at(8, 30), at(12, 30))
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].StartTime.Before(list[1].StartTime))
	assert.True(t, list[1].StartTime.Before(list[2].StartTime))

	_, err = e.reservations.ListByRange(e.ctx, at(12, 0), at(9, 0))
	requireKind(t, err, KindValidation)

	svc := e.reservations.(*reservationService)
	svc.now = func() time.Time { return at(10, 0) }
	upcoming, err := e.reservations.ListUpcoming(e.ctx, 5)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "Neo", upcoming[0].ClientName)
	assert.Equal(t, "Trinity", upcoming[1].ClientName)

	mine, err := e.reservations.ListByClient(e.ctx, trin)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "PC-2", mine[0].PCName)
}

func TestCalendarMirrorIsBestEffort(t *testing.T) {
	e := newEnv(t)
	neo, pc := e.client("Neo"), e.pc("PC-1")
	e.syncer.err = errBroker

	res, err := e.book(neo, pc, at(10, 0), at(11, 0))
	require.NoError(t, err)
	_, err = e.reservations.Update(e.ctx, res.ID, ReservationRequest{ClientID: neo, PCID: pc, StartTime: at(10, 0), EndTime: at(11, 30)})
	require.NoError(t, err)
	require.NoError(t, e.reservations.Delete(e.ctx, res.ID))

	assert.Equal(t, []string{calendar.ActionCreated, calendar.ActionUpdated, calendar.ActionDeleted}, e.syncer.actions())
	assert.Equal(t, 3.0, testutil.ToFloat64(e.metrics.CalendarFailures()))

	_, err = e.reservations.Get(e.ctx, res.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.ErrorIs(t, e.reservations.Delete(e.ctx, res.ID), ErrReservationNotFound)
}

func TestSlowCalendarDoesNotBlockBookings(t *testing.T) {
	e := newEnv(t)
	neo, pc := e.client("Neo"), e.pc("PC-1")
	e.reservations.(*reservationService).lockWait = 200 * time.Millisecond

	gate := make(chan struct{})
	e.syncer.gate = gate
	done := make(chan error, 1)
	go func() {
		_, err := e.book(neo, pc, at(10, 0), at(11, 0))
		done <- err
	}()
	require.Eventually(t, func() bool { return len(e.syncer.actions()) == 1 }, 2*time.Second, 5*time.Millisecond)

	// the first create is still publishing; a disjoint booking on the same pc goes through
	_, err := e.book(neo, pc, at(14, 0), at(15, 0))
	require.NoError(t, err)
	_, err = e.book(neo, pc, at(10, 30), at(10, 45))
	assert.ErrorIs(t, err, ErrReservationConflict)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, 0.0, testutil.ToFloat64(e.metrics.CalendarFailures()))
}

func TestExternalEventRef(t *testing.T) {
	e := newEnv(t)
	res, err := e.book(e.client("Neo"), e.pc("PC-1"), at(10, 0), at(11, 0))
	require.NoError(t, err)

	ref := "evt-42"
	require.NoError(t, e.reservations.SetExternalEventRef(e.ctx, res.ID, &ref))
	got, err := e.reservations.Get(e.ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ExternalEventRef)
	assert.Equal(t, ref, *got.ExternalEventRef)

	empty := "  "
	require.NoError(t, e.reservations.SetExternalEventRef(e.ctx, res.ID, &empty))
	got, err = e.reservations.Get(e.ctx, res.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ExternalEventRef)

	assert.ErrorIs(t, e.reservations.SetExternalEventRef(e.ctx, 9999, &ref), ErrReservationNotFound)
}

func TestDeletingClientCascadesReservations(t *testing.T) {
	e := newEnv(t)
	neo, pc := e.client("Neo"), e.pc("PC-1")
	res, err := e.book(neo, pc, at(10, 0), at(11, 0))
	require.NoError(t, err)

	require.NoError(t, e.clients.DeleteClient(e.ctx, neo))
	_, err = e.reservations.Get(e.ctx, res.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	require.NoError(t, e.pcs.DeletePC(e.ctx, pc))
}

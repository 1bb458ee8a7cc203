package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostlounge_backend/internal/metrics"
	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/services"
)

type fakeAlerts struct {
	services.AlertService

	mu       sync.Mutex
	due      []models.PaymentAlert
	failMark map[int64]bool
	marked   []int64
	listErr  error
}

func (f *fakeAlerts) GetOverdueAlerts(context.Context) ([]models.PaymentAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.PaymentAlert
	for _, a := range f.due {
		if !a.IsNotified {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlerts) MarkNotified(_ context.Context, id int64) (*models.PaymentAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMark[id] {
		return nil, services.ErrAlertNotFound
	}
	for i := range f.due {
		if f.due[i].ID == id {
			f.due[i].IsNotified = true
			f.marked = append(f.marked, id)
			return &f.due[i], nil
		}
	}
	return nil, services.ErrAlertNotFound
}

func (f *fakeAlerts) markedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.marked)
}

func TestSweepOnceMarksDueAlerts(t *testing.T) {
	alerts := &fakeAlerts{
		due:      []models.PaymentAlert{{ID: 1, ClientID: 7, Amount: 500}, {ID: 2, ClientID: 8, Amount: 100}, {ID: 3, ClientID: 9}},
		failMark: map[int64]bool{3: true},
	}
	m := metrics.New()
	s := NewSweeper(alerts, time.Minute, m)

	n, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AlertsNotified()))

	// already notified alerts are not surfaced twice
	n, err = s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSweepOnceReturnsListError(t *testing.T) {
	s := NewSweeper(&fakeAlerts{listErr: errors.New("db gone")}, 0, nil)
	assert.Equal(t, DefaultInterval, s.interval)
	_, err := s.SweepOnce(context.Background())
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	alerts := &fakeAlerts{due: []models.PaymentAlert{{ID: 1}}}
	s := NewSweeper(alerts, 10*time.Millisecond, nil)
	s.initialDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return alerts.markedCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

// Package notifier surfaces overdue payment alerts.
package notifier

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ghostlounge_backend/internal/metrics"
	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"
)

const (
	DefaultInterval     = 5 * time.Minute
	defaultInitialDelay = 10 * time.Second
)

// Sweeper periodically logs every due, un-notified payment alert and marks it notified.
type Sweeper struct {
	alerts       services.AlertService
	metrics      *metrics.Metrics
	interval     time.Duration
	initialDelay time.Duration
	log          zerolog.Logger
}

func NewSweeper(alerts services.AlertService, interval time.Duration, m *metrics.Metrics) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		alerts:       alerts,
		metrics:      m,
		interval:     interval,
		initialDelay: defaultInitialDelay,
		log:          utils.Component("alert_sweeper"),
	}
}

// Run sweeps shortly after start and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("Alert sweeper started")
	defer s.log.Info().Msg("Alert sweeper stopped")

	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Error().Err(err).Msg("Alert sweep failed")
			}
			timer.Reset(s.interval)
		}
	}
}

// SweepOnce handles the currently due alerts and returns how many were marked.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	due, err := s.alerts.GetOverdueAlerts(ctx)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, alert := range due {
		s.log.Warn().
			Int64("alert_id", alert.ID).
			Int64("client_id", alert.ClientID).
			Str("client_name", alert.ClientName).
			Str("amount", alert.Amount.String()).
			Time("due_at", alert.DueAt).
			Str("notes", utils.DerefString(alert.Notes)).
			Msg("Payment overdue")

		if _, err := s.alerts.MarkNotified(ctx, alert.ID); err != nil {
			s.log.Error().Err(err).Int64("alert_id", alert.ID).Msg("Failed to mark payment alert notified")
			continue
		}
		s.metrics.RecordAlertNotified()
		marked++
	}
	return marked, nil
}

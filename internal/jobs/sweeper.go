// Package jobs hosts background maintenance work that runs on a schedule.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// InvitationExpirer flips stale pending invitations to expired.
// Satisfied by *family.Service.
type InvitationExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

const sweepTimeout = 30 * time.Second

// Sweeper periodically expires stale invitations. The lookup predicates
// already hide aged-out invitations, so the sweep only keeps stored state
// honest; missing a run is harmless.
type Sweeper struct {
	cron    *cron.Cron
	expirer InvitationExpirer
	logger  zerolog.Logger
}

// NewSweeper schedules the expiry sweep with a cron spec such as "@hourly".
func NewSweeper(expirer InvitationExpirer, spec string, logger zerolog.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron:    cron.New(),
		expirer: expirer,
		logger:  logger.With().Str("component", "sweeper").Logger(),
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the scheduler in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info().Msg("invitation expiry sweep scheduled")
}

// Stop halts the scheduler and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.expirer.ExpireStale(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("invitation expiry sweep failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int("expired", n).Msg("expired stale invitations")
	}
}

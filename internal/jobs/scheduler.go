package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Minister124/BlazorAuth-sub000/internal/audit"
	"github.com/Minister124/BlazorAuth-sub000/internal/models"
	"github.com/Minister124/BlazorAuth-sub000/internal/repository"
)

// Scheduler runs periodic directory maintenance: purging expired sessions
// and deactivating accounts that sat in pending for too long.
type Scheduler struct {
	cron              *cron.Cron
	sessions          repository.SessionRepository
	users             repository.UserRepository
	auditor           *audit.Publisher
	pendingExpiryDays int
	log               zerolog.Logger
}

func NewScheduler(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	auditor *audit.Publisher,
	pendingExpiryDays int,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:              cron.New(cron.WithSeconds()),
		sessions:          sessions,
		users:             users,
		auditor:           auditor,
		pendingExpiryDays: pendingExpiryDays,
		log:               log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.purgeExpiredSessions); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.expireStalePending); err != nil { // hourly
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		s.cron.Stop()
		cancel()
	}()
	return cancel
}

func (s *Scheduler) purgeExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired sessions failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("expired sessions purged")
		s.auditor.Publish(ctx, audit.Event{Action: audit.ActionSessionsPurged})
	}
}

func (s *Scheduler) expireStalePending() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stale, err := s.users.ListStalePending(ctx, s.pendingExpiryDays)
	if err != nil {
		s.log.Error().Err(err).Msg("list stale pending users failed")
		return
	}

	for _, user := range stale {
		user.Status = models.UserStatusInactive
		if err := s.users.Update(ctx, user); err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("deactivate stale pending user failed")
			continue
		}
		s.log.Info().Str("user_id", user.ID).Msg("stale pending user deactivated")
		s.auditor.Publish(ctx, audit.Event{
			Action:   audit.ActionUserUpdated,
			EntityID: user.ID,
			Detail:   "pending account expired",
		})
	}
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aedentek-pro/lms004/internal/metrics"
	"github.com/aedentek-pro/lms004/internal/models"
	"github.com/aedentek-pro/lms004/internal/services"
)

const (
	// TickInterval is how often the reminder pass runs. Coarse polling is
	// enough for lead times measured in tens of minutes.
	TickInterval = time.Minute

	// OneToOneLeadTime is the window before a 1-on-1 session in which its
	// one-time reminder becomes due.
	OneToOneLeadTime = 30 * time.Minute

	// WebinarLeadTime is the same window for live sessions.
	WebinarLeadTime = time.Hour
)

type entityStore interface {
	Ready(ctx context.Context) bool
	GetUsers(ctx context.Context) ([]models.User, error)
	GetOneToOneSessions(ctx context.Context) ([]models.OneToOneSession, error)
	UpdateOneToOneSessions(ctx context.Context, mutate func([]models.OneToOneSession) ([]models.OneToOneSession, bool, error)) error
	GetLiveSessions(ctx context.Context) ([]models.LiveSession, error)
	UpdateLiveSessions(ctx context.Context, mutate func([]models.LiveSession) ([]models.LiveSession, bool, error)) error
}

// Scheduler wakes on a fixed interval, scans sessions whose reminder is due,
// appends the notifications and flips each session's reminderSent flag so the
// next tick cannot fire it again. A failed pass is logged and retried on the
// next tick, so delivery is at-least-once.
type Scheduler struct {
	store    entityStore
	notifier *services.Notifier
	logger   *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once

	// mu keeps ticks from overlapping when RunTick is invoked directly.
	mu  sync.Mutex
	now func() time.Time
}

func New(store entityStore, notifier *services.Notifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		notifier: notifier,
		logger:   logger,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start launches the ticker loop. It returns immediately; the loop runs
// until Stop is called or ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("starting reminder scheduler", zap.Duration("interval", TickInterval))
	go s.run(ctx)
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping reminder scheduler")
		close(s.stopChan)
	})
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunTick(ctx)
		case <-s.stopChan:
			s.logger.Info("reminder scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("reminder scheduler canceled")
			return
		}
	}
}

// RunTick executes one reminder pass. It never returns an error: failures
// are logged and the affected flags stay false, so the work is retried on
// the next tick.
func (s *Scheduler) RunTick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Ready(ctx) {
		s.logger.Debug("store not ready, skipping reminder tick")
		return
	}
	metrics.ReminderTicks.Inc()

	now := s.now()
	if err := s.remindOneToOne(ctx, now); err != nil {
		metrics.ReminderTickErrors.Inc()
		s.logger.Error("one-to-one reminder pass failed", zap.Error(err))
	}
	if err := s.remindWebinars(ctx, now); err != nil {
		metrics.ReminderTickErrors.Inc()
		s.logger.Error("webinar reminder pass failed", zap.Error(err))
	}
}

func (s *Scheduler) remindOneToOne(ctx context.Context, now time.Time) error {
	sessions, err := s.store.GetOneToOneSessions(ctx)
	if err != nil {
		return err
	}
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return err
	}

	due := make(map[string]bool)
	var notifications []models.Notification
	for _, session := range sessions {
		if session.Status != models.SessionScheduled || session.ReminderSent {
			continue
		}
		until := session.DateTime.Sub(now)
		if until <= 0 || until > OneToOneLeadTime {
			continue
		}

		student := userByID(users, session.StudentID)
		instructor := userByID(users, session.InstructorID)
		if student == nil || instructor == nil {
			// A participant no longer resolves; leave the flag alone and
			// move on rather than stalling the whole pass.
			s.logger.Warn("session references missing user",
				zap.String("session_id", session.ID),
				zap.String("student_id", session.StudentID),
				zap.String("instructor_id", session.InstructorID),
			)
			continue
		}

		notifications = append(notifications,
			s.notifier.Build(
				student.ID,
				fmt.Sprintf("Your 1-on-1 session with %s is starting in 30 minutes.", instructor.Name),
				models.NotificationSession,
				services.LinkSessions,
			),
			s.notifier.Build(
				instructor.ID,
				fmt.Sprintf("Your 1-on-1 session with %s is starting in 30 minutes.", student.Name),
				models.NotificationSession,
				services.LinkSessions,
			),
		)
		due[session.ID] = true
	}
	if len(due) == 0 {
		return nil
	}

	// Notifications go out before the flags flip: a crash in between means a
	// duplicate next tick, never a silently dropped reminder.
	if err := s.notifier.SendAll(ctx, notifications); err != nil {
		return err
	}
	err = s.store.UpdateOneToOneSessions(ctx, func(current []models.OneToOneSession) ([]models.OneToOneSession, bool, error) {
		changed := false
		for i := range current {
			if due[current[i].ID] && !current[i].ReminderSent {
				current[i].ReminderSent = true
				changed = true
			}
		}
		return current, changed, nil
	})
	if err != nil {
		return err
	}

	metrics.RemindersSent.WithLabelValues("one_to_one").Add(float64(len(notifications)))
	s.logger.Info("sent one-to-one session reminders",
		zap.Int("sessions", len(due)),
		zap.Int("notifications", len(notifications)),
	)
	return nil
}

func (s *Scheduler) remindWebinars(ctx context.Context, now time.Time) error {
	sessions, err := s.store.GetLiveSessions(ctx)
	if err != nil {
		return err
	}

	due := make(map[string]bool)
	var notifications []models.Notification
	for _, session := range sessions {
		if session.ReminderSent {
			continue
		}
		until := session.DateTime.Sub(now)
		if until <= 0 || until > WebinarLeadTime {
			continue
		}

		message := fmt.Sprintf("The webinar %q is starting in 1 hour.", session.Title)
		recipients := append(append([]string{}, session.AttendeeIDs...), session.InstructorID)
		for _, recipientID := range recipients {
			notifications = append(notifications, s.notifier.Build(
				recipientID,
				message,
				models.NotificationSession,
				services.LinkLive,
			))
		}
		due[session.ID] = true
	}
	if len(due) == 0 {
		return nil
	}

	if err := s.notifier.SendAll(ctx, notifications); err != nil {
		return err
	}
	err = s.store.UpdateLiveSessions(ctx, func(current []models.LiveSession) ([]models.LiveSession, bool, error) {
		changed := false
		for i := range current {
			if due[current[i].ID] && !current[i].ReminderSent {
				current[i].ReminderSent = true
				changed = true
			}
		}
		return current, changed, nil
	})
	if err != nil {
		return err
	}

	metrics.RemindersSent.WithLabelValues("webinar").Add(float64(len(notifications)))
	s.logger.Info("sent webinar reminders",
		zap.Int("sessions", len(due)),
		zap.Int("notifications", len(notifications)),
	)
	return nil
}

func userByID(users []models.User, id string) *models.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

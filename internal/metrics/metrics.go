package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReminderTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lms_reminder_ticks_total",
		Help: "Number of reminder scheduler ticks executed.",
	})

	ReminderTickErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lms_reminder_tick_errors_total",
		Help: "Number of reminder passes that failed and will retry next tick.",
	})

	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_reminders_sent_total",
		Help: "Number of reminder notifications emitted, by session kind.",
	}, []string{"kind"})
)

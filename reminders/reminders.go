// Package reminders delivers the daily wind-down messages to the owner chat
// on a cron schedule.
package reminders

import (
	"context"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Reminder struct {
	Spec    string
	Message string
}

// Defaults returns the standard evening schedule.
func Defaults() []Reminder {
	return []Reminder{
		{Spec: "0 18 * * *", Message: "🌙 Gentle wind-down reminder - start easing off for the evening."},
		{Spec: "0 19 * * *", Message: "🛏 Time to start your bedtime routine."},
		{Spec: "0 21 * * *", Message: "💡 Lights out! Target wake: 5:19 AM for Brahma Muhurta 🌅"},
	}
}

// specKeys pair each default reminder with the viper key that can retime it.
var specKeys = []string{
	"reminders.wind_down",
	"reminders.bedtime",
	"reminders.lights_out",
}

// FromViper returns the configured schedule: nil when reminders.enabled is
// false, otherwise the defaults with any per-reminder cron spec overridden.
func FromViper() []Reminder {
	if !viper.GetBool("reminders.enabled") {
		return nil
	}
	rs := Defaults()
	for i, key := range specKeys {
		if spec := strings.TrimSpace(viper.GetString(key)); spec != "" {
			rs[i].Spec = spec
		}
	}
	return rs
}

// Sender delivers one reminder message; the telegram transport implements it.
type Sender func(ctx context.Context, message string) error

type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

func NewScheduler(reminders []Reminder, send Sender, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	c := cron.New()
	for _, r := range reminders {
		r := r
		_, err := c.AddFunc(r.Spec, func() {
			if err := send(context.Background(), r.Message); err != nil {
				log.Warn("reminder_send_error", "spec", r.Spec, "error", err.Error())
				return
			}
			log.Info("reminder_sent", "spec", r.Spec)
		})
		if err != nil {
			return nil, err
		}
	}
	return &Scheduler{cron: c, log: log}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Describe renders the schedule for the /reminders command.
func Describe() string {
	return "⏰ *Your Daily Reminders:*\n\n" +
		"• 6:00 PM - Gentle wind-down reminder\n" +
		"• 7:00 PM - Start bedtime routine\n" +
		"• 9:00 PM - Lights out!\n\n" +
		"All times are in your local timezone.\n" +
		"Target wake: 5:19 AM for Brahma Muhurta 🌅"
}

// internal/scheduler/reminder.go

// Package scheduler periodically nudges employees who have not responded to
// an implemented policy. Reminders reuse the links from the original
// announcement; no new tokens are minted.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/logger"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/metrics"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/models"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/notifier"
)

// Ledger is the slice of the store the scheduler scans.
type Ledger interface {
	ListAwaiting(ctx context.Context) ([]models.AcknowledgementDetail, error)
}

// Sender delivers the reminder batch.
type Sender interface {
	SendReminders(ctx context.Context, recipients []notifier.Recipient, subject, body string) *notifier.BatchResult
}

// Throttle suppresses repeat reminders inside a window. SetNX returns false
// when the key already exists, meaning a reminder went out recently. Del
// releases keys whose send did not go through, so the next run retries.
type Throttle interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type ReminderScheduler struct {
	ledger   Ledger
	sender   Sender
	throttle Throttle
	window   time.Duration
	subject  string
	body     string
	logger   logger.Logger
}

// New builds a scheduler. throttle may be nil, which disables suppression
// and reminds every awaiting recipient on every run.
func New(ledger Ledger, sender Sender, throttle Throttle, window time.Duration, subject, body string, log logger.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		ledger:   ledger,
		sender:   sender,
		throttle: throttle,
		window:   window,
		subject:  subject,
		body:     body,
		logger:   log.WithFields(map[string]interface{}{"component": "scheduler"}),
	}
}

// RunOnce performs a single reminder scan. It returns the batch result for
// the reminders actually attempted; a run with nothing awaiting returns an
// empty result.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (*notifier.BatchResult, error) {
	metrics.ReminderRuns.Inc()

	awaiting, err := s.ledger.ListAwaiting(ctx)
	if err != nil {
		return nil, err
	}
	if len(awaiting) == 0 {
		s.logger.Debug("no pending acknowledgements", nil)
		return &notifier.BatchResult{StartedAt: time.Now().UTC()}, nil
	}

	recipients := make([]notifier.Recipient, 0, len(awaiting))
	keysByEmail := make(map[string][]string)
	skipped := 0
	for _, entry := range awaiting {
		due, err := s.due(ctx, entry)
		if err != nil {
			s.logger.Warn("throttle check failed, sending anyway", map[string]interface{}{
				"error": err,
				"email": entry.EmployeeEmail,
			})
			due = true
		}
		if !due {
			skipped++
			continue
		}
		keysByEmail[entry.EmployeeEmail] = append(keysByEmail[entry.EmployeeEmail], throttleKey(entry))
		recipients = append(recipients, notifier.Recipient{
			EmployeeID: entry.EmployeeID,
			Name:       entry.EmployeeName,
			Email:      entry.EmployeeEmail,
		})
	}

	s.logger.Info("reminder scan", map[string]interface{}{
		"awaiting":  len(awaiting),
		"reminding": len(recipients),
		"throttled": skipped,
	})
	if len(recipients) == 0 {
		return &notifier.BatchResult{StartedAt: time.Now().UTC()}, nil
	}

	result := s.sender.SendReminders(ctx, recipients, s.subject, s.body)
	s.releaseFailed(ctx, result.Failed, keysByEmail)
	return result, nil
}

// releaseFailed drops the throttle keys of recipients whose send was
// rejected, so the next scan retries them instead of waiting out the window.
func (s *ReminderScheduler) releaseFailed(ctx context.Context, failed []notifier.Failure, keysByEmail map[string][]string) {
	if s.throttle == nil || len(failed) == 0 {
		return
	}
	var keys []string
	for _, f := range failed {
		keys = append(keys, keysByEmail[f.Email]...)
	}
	if len(keys) == 0 {
		return
	}
	if err := s.throttle.Del(ctx, keys...); err != nil {
		s.logger.Warn("failed to release throttle keys", map[string]interface{}{
			"error": err,
			"keys":  len(keys),
		})
	}
}

// Run drives RunOnce on a fixed interval until ctx is cancelled.
func (s *ReminderScheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scheduler stopped", nil)
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("reminder run failed", map[string]interface{}{"error": err})
			}
		}
	}
}

func (s *ReminderScheduler) due(ctx context.Context, entry models.AcknowledgementDetail) (bool, error) {
	if s.throttle == nil || s.window <= 0 {
		return true, nil
	}
	return s.throttle.SetNX(ctx, throttleKey(entry), time.Now().UTC().Format(time.RFC3339), s.window)
}

func throttleKey(entry models.AcknowledgementDetail) string {
	return fmt.Sprintf("reminder:policy:%d:employee:%d", entry.PolicyID, entry.EmployeeID)
}

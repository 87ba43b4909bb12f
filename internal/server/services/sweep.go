package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/timex"
)

// SweepReport summarises one expiration sweep.
type SweepReport struct {
	Warned       int       `json:"warned"`
	WarnFailures int       `json:"warn_failures"`
	Expired      int64     `json:"expired"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Sweep warns active accounts expiring within the warning window and then
// expires every active account whose expiry has passed. Accounts are warned
// once per validity period; a failed warning is retried on the next run.
func (s *AccessService) Sweep(ctx context.Context) (SweepReport, error) {
	now := s.now().UTC()
	report := SweepReport{StartedAt: now}

	expiring, err := s.store.ListExpiringBetween(ctx, now, now.Add(s.warningWindow))
	if err != nil {
		return report, s.fail(ctx, "sweep_list_expiring", "", err)
	}

	for _, acct := range expiring {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		daysLeft := timex.DaysCeil(acct.ExpiresAt.Sub(now))
		if !s.notifier.SendExpirationWarning(ctx, acct, daysLeft) {
			report.WarnFailures++
			continue
		}
		if err := s.store.MarkWarned(ctx, acct.ID, now); err != nil {
			_ = s.fail(ctx, "sweep_mark_warned", acct.Email, err)
		}
		report.Warned++
	}

	expired, err := s.store.MarkExpiredBefore(ctx, now)
	if err != nil {
		return report, s.fail(ctx, "sweep_expire", "", err)
	}
	report.Expired = expired
	report.FinishedAt = s.now().UTC()

	s.log.Info(ctx, "sweep finished",
		"warned", report.Warned, "warn_failures", report.WarnFailures, "expired", report.Expired)
	return report, nil
}

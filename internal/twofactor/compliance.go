package twofactor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Warning is delivered to the compliance callback for every polled account
// without 2FA enabled. ShowFor is the time-boxed display window; dismissal
// and account deactivation policy live with the caller.
type Warning struct {
	Username string
	ShowFor  time.Duration
}

// StartCompliance polls the enrollment status of the accounts returned by
// list at the given interval and invokes onWarn for each non-compliant one.
// It runs until the returned stop function is called. Status failures are
// logged and the account skipped for that round; this probe only reports, it
// never deactivates.
func (s *Service) StartCompliance(interval time.Duration, list func(ctx context.Context) []string, onWarn func(Warning)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.checkCompliance(ctx, list, onWarn)
			}
		}
	}()
	return cancel
}

func (s *Service) checkCompliance(ctx context.Context, list func(ctx context.Context) []string, onWarn func(Warning)) {
	for _, username := range list(ctx) {
		info, err := s.Status(ctx, username)
		if err != nil {
			s.log.Warn("compliance status check failed",
				zap.String("username", username), zap.Error(err))
			continue
		}
		if info.Enabled {
			continue
		}
		onWarn(Warning{Username: username, ShowFor: s.warnFor})
	}
}

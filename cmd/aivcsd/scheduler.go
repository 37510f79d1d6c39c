package main

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/aivcs/infrastructure/logging"
	"github.com/R3E-Network/aivcs/internal/enterprise"
	"github.com/R3E-Network/aivcs/internal/trace"
)

// startScheduler registers the background jobs aivcsd runs on a fixed
// cadence: trace-retention pruning (§4.6) and, when sloTrackers is
// non-empty, periodic SLO/error-budget status rollups. It returns the
// running *cron.Cron so callers can Stop it on shutdown.
func startScheduler(logger *logging.Logger, traceDir string, retention trace.RetentionPolicy, sloTrackers map[string]*enterprise.SloTracker) *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc("@hourly", func() {
		pruned, err := retention.Prune(traceDir)
		if err != nil {
			logger.WithError(err).Warn("trace retention prune failed")
			return
		}
		if pruned > 0 {
			logger.WithFields(map[string]interface{}{"pruned": pruned}).Info("trace retention pruned runs")
		}
	}); err != nil {
		logger.WithError(err).Error("failed to schedule trace retention job")
	}

	if len(sloTrackers) > 0 {
		if _, err := c.AddFunc("@every 5m", func() {
			for name, tracker := range sloTrackers {
				status := tracker.Status(time.Now().UTC())
				entry := logger.WithFields(map[string]interface{}{
					"slo":                    name,
					"current_ratio":          status.CurrentRatio,
					"error_budget_remaining": status.ErrorBudgetRemaining,
				})
				if status.BudgetExhausted {
					entry.Warn("slo error budget exhausted")
				} else {
					entry.Info("slo rollup")
				}
			}
		}); err != nil {
			logger.WithError(err).Error("failed to schedule slo rollup job")
		}
	}

	c.Start()
	return c
}

package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/Dan9191/card-service/internal/metrics"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/sirupsen/logrus"
)

// CriticalAlertSource lists CRITICAL alerts newer than a point in time
type CriticalAlertSource interface {
	CriticalAlertsSince(ctx context.Context, since time.Time) ([]*models.FraudAlert, error)
}

// DigestSender delivers an alert digest
type DigestSender interface {
	SendAlertDigest(to string, since time.Time, alerts []*models.FraudAlert) error
}

// AlertDigest mails the CRITICAL alerts created after the newest alert of
// its previous digest. Nothing is sent when there are none.
type AlertDigest struct {
	alerts  CriticalAlertSource
	sender  DigestSender
	to      string
	logger  *logrus.Logger
	metrics *metrics.Collector

	mu      sync.Mutex
	lastRun time.Time
}

// NewAlertDigest creates a digest job covering alerts raised after start
func NewAlertDigest(alerts CriticalAlertSource, sender DigestSender, to string, start time.Time, logger *logrus.Logger, m *metrics.Collector) *AlertDigest {
	return &AlertDigest{
		alerts:  alerts,
		sender:  sender,
		to:      to,
		logger:  logger,
		metrics: m,
		lastRun: start,
	}
}

func (d *AlertDigest) Name() string { return "critical_alert_digest" }

func (d *AlertDigest) Execute(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	alerts, err := d.alerts.CriticalAlertsSince(ctx, d.lastRun)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		d.logger.Debug("No new critical alerts")
		return nil
	}

	if err := d.sender.SendAlertDigest(d.to, d.lastRun, alerts); err != nil {
		return err
	}
	d.metrics.DigestSent()
	d.logger.Infof("Sent digest of %d critical alerts to %s", len(alerts), d.to)
	// advance to the newest mailed alert, not the wall clock
	for _, a := range alerts {
		if a.CreatedAt.After(d.lastRun) {
			d.lastRun = a.CreatedAt
		}
	}
	return nil
}

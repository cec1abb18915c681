package lead

import (
	"context"
	"log/slog"
	"time"

	"github.com/a1media/agency-dashboard/internal"
	"github.com/a1media/agency-dashboard/internal/core/events"
	"github.com/robfig/cron/v3"
)

// FollowUpSource yields the leads whose follow-up is due now.
type FollowUpSource interface {
	PendingFollowUps(ctx context.Context) ([]*Lead, error)
}

// FollowUpNotifier publishes one follow-up-due event per pending lead.
type FollowUpNotifier struct {
	source    FollowUpSource
	publisher events.Publisher
	logger    *slog.Logger
	timeout   time.Duration
}

func NewFollowUpNotifier(source FollowUpSource, publisher events.Publisher, logger *slog.Logger, timeout time.Duration) *FollowUpNotifier {
	return &FollowUpNotifier{
		source:    source,
		publisher: publisher,
		logger:    logger,
		timeout:   timeout,
	}
}

// Run scans once and returns the number of events published.
func (n *FollowUpNotifier) Run(ctx context.Context) (int, error) {
	ctx, cancel := internal.WithOperationTimeout(ctx, n.timeout)
	defer cancel()

	due, err := n.source.PendingFollowUps(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, l := range due {
		e := events.NewFollowUpDueEvent(l.ID, l.ClientName(), l.AssignedTo, string(l.Stage), *l.FollowUpDate)
		if err := n.publisher.Publish(ctx, e); err != nil {
			n.logger.Error("failed to publish follow-up", "lead_id", l.ID, "error", err)
			continue
		}
		sent++
	}

	n.logger.Info("follow-up scan complete", "due", len(due), "published", sent)
	return sent, nil
}

// Schedule registers the scan on the scheduler under a standard cron spec.
func (n *FollowUpNotifier) Schedule(ctx context.Context, scheduler *cron.Cron, spec string) (cron.EntryID, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return 0, err
	}
	return scheduler.AddFunc(spec, func() {
		if _, err := n.Run(ctx); err != nil {
			n.logger.Error("follow-up scan failed", "error", err)
		}
	})
}

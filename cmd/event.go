package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/a1media/agency-dashboard/internal/core/events"
	"github.com/a1media/agency-dashboard/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish pipeline events by hand to check subscribers and log output.`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a test pipeline event",
	Long:      `Publish a sample pipeline event (lead.created, lead.stage_changed, lead.deleted, lead.follow_up_due) to the event bus`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypeLeadCreated, events.EventTypeLeadStageChanged, events.EventTypeLeadDeleted, events.EventTypeFollowUpDue},
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishTestEvent(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var eventLeadID string

func sampleEvent(eventType, leadID string) (events.Event, error) {
	switch eventType {
	case events.EventTypeLeadCreated:
		return events.NewLeadCreatedEvent(leadID, "client-1", "Website", false), nil
	case events.EventTypeLeadStageChanged:
		return events.NewLeadStageChangedEvent(leadID, "New", "Contacted", "sys"), nil
	case events.EventTypeLeadDeleted:
		return events.NewLeadDeletedEvent(leadID, "sys"), nil
	case events.EventTypeFollowUpDue:
		return events.NewFollowUpDueEvent(leadID, "Sarah Jenkins", "2", "New", time.Now()), nil
	}
	return nil, fmt.Errorf("unknown event type %q", eventType)
}

func publishTestEvent(eventType string) error {
	log := logger.LoggerWrapper()

	e, err := sampleEvent(eventType, eventLeadID)
	if err != nil {
		return err
	}

	eventBus := events.NewEventBus(log)
	subscribeAuditLog(eventBus, log)

	log.Info("publishing test event", "event_type", eventType, "event_id", e.EventID())
	if err := eventBus.PublishSync(context.Background(), e); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	log.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventLeadID, "lead", "lead-1", "Lead id carried by the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a1media/agency-dashboard/internal/lead"
	"github.com/a1media/agency-dashboard/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers for the lead pipeline, such as the follow-up reminder scan.`,
}

var followUpWorkerCmd = &cobra.Command{
	Use:   "followups",
	Short: "Start the follow-up reminder scheduler",
	Long:  `Scan for leads whose follow-up date has passed on a cron schedule and publish a reminder event for each.`,
	Run: func(cmd *cobra.Command, args []string) {
		startFollowUpWorker()
	},
}

var (
	followUpSchedule string
	followUpOnce     bool
)

func startFollowUpWorker() {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.LoggerWrapper()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, config, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	notifier := lead.NewFollowUpNotifier(app.Pipeline, app.Bus, log, config.Pipeline.OperationTimeout)

	if followUpOnce {
		if _, err := notifier.Run(ctx); err != nil {
			log.Error("follow-up scan failed", "error", err)
		}
		return
	}

	spec := getStringFlag(followUpSchedule, config.Pipeline.FollowUpSchedule)
	scheduler := cron.New()
	if _, err := notifier.Schedule(ctx, scheduler, spec); err != nil {
		log.Error("invalid follow-up schedule", "schedule", spec, "error", err)
		os.Exit(1)
	}

	scheduler.Start()
	log.Info("follow-up worker is running. Press Ctrl+C to stop.", "schedule", spec)

	<-ctx.Done()
	log.Info("received signal, shutting down follow-up worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	select {
	case <-scheduler.Stop().Done():
		log.Info("follow-up worker shutdown complete")
	case <-shutdownCtx.Done():
		log.Warn("shutdown timeout reached, forcing exit")
	}
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	followUpWorkerCmd.Flags().StringVar(&followUpSchedule, "schedule", "", "Cron schedule (overrides config)")
	followUpWorkerCmd.Flags().BoolVar(&followUpOnce, "once", false, "Run a single scan and exit")

	workerCmd.AddCommand(followUpWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/a1media/agency-dashboard/internal/lead"
	"github.com/a1media/agency-dashboard/pkg/logger"
	"github.com/spf13/cobra"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Lead pipeline commands",
}

var exportLeadsCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the lead pipeline to an Excel workbook",
	Long:  `Write every lead and its activity log to an .xlsx file in the configured export directory.`,
	RunE:  runLeadsExport,
}

var (
	exportStage  string
	exportOutput string
)

func runLeadsExport(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logger.LoggerWrapper()

	app, err := newApplication(context.Background(), cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := app.operationContext(context.Background())
	defer cancel()

	leads, err := app.Pipeline.ListLeads(ctx, lead.ListFilter{Stage: lead.Stage(exportStage)})
	if err != nil {
		return err
	}

	path := exportOutput
	if path == "" {
		if err := os.MkdirAll(cfg.Pipeline.ExportDir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
		path = filepath.Join(cfg.Pipeline.ExportDir, fmt.Sprintf("leads-%s.xlsx", time.Now().UTC().Format("20060102-150405")))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := lead.WriteWorkbook(f, leads); err != nil {
		return err
	}

	log.Info("lead export written", "path", path, "leads", len(leads))
	return nil
}

func init() {
	exportLeadsCmd.Flags().StringVar(&exportStage, "stage", "", "Only export leads in this stage")
	exportLeadsCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (defaults to a timestamped file in the export dir)")

	leadsCmd.AddCommand(exportLeadsCmd)
	rootCmd.AddCommand(leadsCmd)
}

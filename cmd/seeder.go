package cmd

import (
	"context"
	"log"

	"github.com/a1media/agency-dashboard/internal/database"
	"github.com/a1media/agency-dashboard/internal/seed"
	"github.com/a1media/agency-dashboard/pkg/logger"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the demo accounts, default role permissions, clients and leads for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.LoggerWrapper()

		db, err := database.Open(cfg.Database, lg)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		res, err := seed.Run(context.Background(), db.Gorm, seed.Options{
			Clear:      clearData,
			BCryptCost: cfg.Security.BCryptCost,
		}, lg)
		if err != nil {
			log.Fatalf("failed to seed: %v", err)
		}

		lg.Info("seed complete",
			"users", res.Users,
			"role_modules", res.RoleModules,
			"clients", res.Clients,
			"leads", res.Leads,
			"demo_password", seed.DemoPassword)
	},
}

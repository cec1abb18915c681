package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/a1media/agency-dashboard/internal"
	"github.com/a1media/agency-dashboard/internal/auth"
	authPostgres "github.com/a1media/agency-dashboard/internal/auth/postgres"
	authRedis "github.com/a1media/agency-dashboard/internal/auth/redis"
	"github.com/a1media/agency-dashboard/internal/client"
	clientPostgres "github.com/a1media/agency-dashboard/internal/client/postgres"
	"github.com/a1media/agency-dashboard/internal/core/events"
	"github.com/a1media/agency-dashboard/internal/database"
	"github.com/a1media/agency-dashboard/internal/lead"
	leadPostgres "github.com/a1media/agency-dashboard/internal/lead/postgres"
	"github.com/a1media/agency-dashboard/internal/user"
	userPostgres "github.com/a1media/agency-dashboard/internal/user/postgres"
	goredis "github.com/redis/go-redis/v9"
)

// application holds the wired services shared by the server, worker and
// export commands.
type application struct {
	Config   *internal.Config
	Logger   *slog.Logger
	DB       *database.DB
	Redis    *goredis.Client
	Bus      *events.EventBus
	Auth     *auth.Service
	Users    *user.Service
	Clients  *client.Service
	Pipeline *lead.Pipeline
}

func newApplication(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*application, error) {
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app := &application{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Bus:    events.NewEventBus(logger),
	}

	var revoker auth.TokenRevoker
	if cfg.Redis.Enabled() {
		rdb, err := authRedis.Connect(ctx, authRedis.Config{
			Addr:    cfg.Redis.Addr,
			DB:      cfg.Redis.DB,
			Timeout: cfg.Redis.Timeout,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		app.Redis = rdb
		revoker = authRedis.NewRevoker(rdb)
	} else {
		logger.Warn("redis not configured, token revocation is kept in memory")
	}

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	app.Auth = auth.NewService(authPostgres.NewRepository(db.Gorm), tokens, revoker, nil, logger)
	if err := app.Auth.LoadPermissions(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}

	app.Users = user.NewService(userPostgres.NewRepository(db.SQL))
	app.Clients = client.NewService(clientPostgres.NewClientRepository(db.Gorm), logger)
	app.Pipeline = lead.NewPipeline(
		leadPostgres.NewLeadRepository(db.Gorm),
		app.Clients,
		logger,
		lead.WithPublisher(app.Bus),
	)

	subscribeAuditLog(app.Bus, logger)
	return app, nil
}

// Close waits for in-flight event handlers and releases connections.
func (a *application) Close() {
	a.Bus.Wait()
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("redis close error", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("database close error", "error", err)
	}
}

func (a *application) operationContext(parent context.Context) (context.Context, context.CancelFunc) {
	return internal.WithOperationTimeout(parent, a.Config.Pipeline.OperationTimeout)
}

// subscribeAuditLog writes every pipeline event to the process log.
func subscribeAuditLog(bus *events.EventBus, logger *slog.Logger) {
	audit := func(_ context.Context, e events.Event) error {
		logger.Info("pipeline event",
			"event_id", e.EventID(),
			"event_type", e.EventType(),
			"occurred_at", e.OccurredAt(),
			"payload", e.Payload())
		return nil
	}
	bus.Subscribe(events.AllEvents, audit)
}

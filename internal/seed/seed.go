// Package seed loads the demo dataset: the four dashboard accounts, the
// default permission table and three clients with one lead each.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/a1media/agency-dashboard/internal/auth"
	clientDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/client"
	leadDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/lead"
	userDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/user"
	"github.com/a1media/agency-dashboard/internal/lead"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password"

type Options struct {
	// Clear removes all rows first.
	Clear      bool
	BCryptCost int
	Now        time.Time
}

type Result struct {
	Users       int
	RoleModules int
	Clients     int
	Leads       int
}

// Run inserts the demo rows. Existing rows with the same keys are kept, so
// running it twice is harmless.
func Run(ctx context.Context, db *gorm.DB, opts Options, logger *slog.Logger) (Result, error) {
	if opts.BCryptCost == 0 {
		opts.BCryptCost = bcrypt.DefaultCost
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), opts.BCryptCost)
	if err != nil {
		return Result{}, fmt.Errorf("hash demo password: %w", err)
	}

	var res Result
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Clear {
			if err := clearAll(tx); err != nil {
				return err
			}
			logger.Info("cleared existing data")
		}

		users := demoUsers(string(hash), opts.Now)
		if err := insert(tx, &users); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		if err := syncUserSequence(tx); err != nil {
			return err
		}

		roleModules := demoRoleModules()
		if err := insert(tx, &roleModules); err != nil {
			return fmt.Errorf("seed role modules: %w", err)
		}

		clients := demoClients(opts.Now)
		if err := insert(tx, &clients); err != nil {
			return fmt.Errorf("seed clients: %w", err)
		}

		leads := demoLeads(opts.Now)
		if err := tx.Omit("Client", "Logs").Clauses(clause.OnConflict{DoNothing: true}).Create(&leads).Error; err != nil {
			return fmt.Errorf("seed leads: %w", err)
		}

		res = Result{Users: len(users), RoleModules: len(roleModules), Clients: len(clients), Leads: len(leads)}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logger.Info("seed complete",
		"users", res.Users,
		"role_modules", res.RoleModules,
		"clients", res.Clients,
		"leads", res.Leads)
	return res, nil
}

func insert(tx *gorm.DB, rows interface{}) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error
}

func clearAll(tx *gorm.DB) error {
	for _, model := range []interface{}{
		&leadDatamodel.LeadLog{},
		&leadDatamodel.Lead{},
		&clientDatamodel.Client{},
		&userDatamodel.RoleModule{},
		&userDatamodel.User{},
	} {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// syncUserSequence moves the postgres id sequence past the fixed demo ids.
func syncUserSequence(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	err := tx.Exec("SELECT setval(pg_get_serial_sequence('users', 'id'), (SELECT COALESCE(MAX(id), 1) FROM users))").Error
	if err != nil {
		return fmt.Errorf("sync users sequence: %w", err)
	}
	return nil
}

func demoUsers(hash string, now time.Time) []userDatamodel.User {
	mk := func(id int64, email, name string, role auth.Role) userDatamodel.User {
		return userDatamodel.User{
			ID:           id,
			Email:        email,
			Name:         name,
			PasswordHash: hash,
			Role:         string(role),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
	return []userDatamodel.User{
		mk(1, "admin@a1media.com", "Admin User", auth.RoleAdmin),
		mk(2, "manager@a1media.com", "Manager User", auth.RoleManager),
		mk(3, "photo@a1media.com", "Photo User", auth.RolePhotographer),
		mk(4, "client@dummy.com", "Client User", auth.RoleClient),
	}
}

func demoRoleModules() []userDatamodel.RoleModule {
	var rows []userDatamodel.RoleModule
	defaults := auth.DefaultRoleModules()
	for _, role := range auth.AllRoles {
		for _, m := range defaults[role] {
			rows = append(rows, userDatamodel.RoleModule{Role: string(role), Module: string(m)})
		}
	}
	return rows
}

func demoClients(now time.Time) []clientDatamodel.Client {
	day := 24 * time.Hour
	return []clientDatamodel.Client{
		{
			ID: "client-1", Name: "Sarah Jenkins", Phone: "+1 555-0198", Email: "sarah.j@techstart.io",
			Company: "TechStart", Linkedin: "linkedin.com/in/sjenkins",
			CreatedAt: now.Add(-2 * day), UpdatedAt: now.Add(-2 * day),
		},
		{
			ID: "client-2", Name: "Michael Chang", Phone: "+1 555-0234", Email: "m.chang@designco.com",
			Company: "Design Co", Instagram: "@mikechang_design",
			CreatedAt: now.Add(-3 * day), UpdatedAt: now.Add(-day),
		},
		{
			ID: "client-3", Name: "Emma Watson", Phone: "+1 555-0912", Email: "emma@bloomfloral.com",
			Company: "Bloom Floral",
			CreatedAt: now.Add(-7 * day), UpdatedAt: now.Add(-2 * day),
		},
	}
}

func demoLeads(now time.Time) []leadDatamodel.Lead {
	day := 24 * time.Hour
	at := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}
	return []leadDatamodel.Lead{
		{
			ID: "lead-1", ClientID: "client-1", Source: string(lead.SourceWebsite), Stage: string(lead.StageNew),
			Budget:       "$5,000 - $10,000",
			Requirements: "Needs a corporate promo video for their upcoming product launch.",
			Notes:        "Very interested in drone footage.",
			AssignedTo:   "2", FollowUpDate: at(day),
			CreatedAt: now.Add(-2 * day), UpdatedAt: now.Add(-2 * day),
		},
		{
			ID: "lead-2", ClientID: "client-2", Source: string(lead.SourceInstagram), Stage: string(lead.StageContacted),
			Budget:       "$2,000",
			Requirements: "Photography session for team headshots.",
			Notes:        "Wants outdoor lighting setup.",
			AssignedTo:   "3", FollowUpDate: at(0),
			CreatedAt: now.Add(-3 * day), UpdatedAt: now.Add(-day),
		},
		{
			ID: "lead-3", ClientID: "client-3", Source: string(lead.SourceReferral), Stage: string(lead.StageMeetingScheduled),
			Budget:       "$15,000",
			Requirements: "Full branding content package (Photo + Video array)",
			Notes:        "Referred by John Doe. High priority.",
			AssignedTo:   "1", FollowUpDate: at(3 * day),
			CreatedAt: now.Add(-7 * day), UpdatedAt: now.Add(-2 * day),
		},
	}
}

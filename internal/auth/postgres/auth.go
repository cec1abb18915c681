package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/a1media/agency-dashboard/internal"
	"github.com/a1media/agency-dashboard/internal/auth"
	userDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetPasswordForUsername(ctx context.Context, email string) (string, int64, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "password_hash").
		Where("email = ? AND is_active = ?", email, true).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, internal.ErrUserNotFound
		}
		return "", 0, err
	}
	return u.PasswordHash, u.ID, nil
}

func (r *Repository) GetActorByID(ctx context.Context, userID int64) (*auth.Actor, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", userID, true).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}

	role, err := auth.ParseRole(u.Role)
	if err != nil {
		return nil, internal.NewInternalError("stored user has unknown role", err)
	}

	return &auth.Actor{
		ID:    strconv.FormatInt(u.ID, 10),
		Name:  u.Name,
		Email: u.Email,
		Role:  role,
	}, nil
}

func (r *Repository) LoadRoleModules(ctx context.Context) (map[auth.Role][]auth.Module, error) {
	var rows []userDatamodel.RoleModule
	if err := r.db.WithContext(ctx).Order("role, module").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[auth.Role][]auth.Module)
	for _, row := range rows {
		role, err := auth.ParseRole(row.Role)
		if err != nil {
			continue
		}
		module, err := auth.ParseModule(row.Module)
		if err != nil {
			continue
		}
		out[role] = append(out[role], module)
	}
	return out, nil
}

// SaveRoleModules replaces every stored row with the given table in one
// transaction.
func (r *Repository) SaveRoleModules(ctx context.Context, table map[auth.Role][]auth.Module) error {
	rows := make([]userDatamodel.RoleModule, 0, len(table)*len(auth.AllModules))
	for _, role := range auth.AllRoles {
		for _, m := range table[role] {
			rows = append(rows, userDatamodel.RoleModule{Role: string(role), Module: string(m)})
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&userDatamodel.RoleModule{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

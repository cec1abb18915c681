package postgres

import (
	"context"
	"errors"

	"github.com/a1media/agency-dashboard/internal"
	"github.com/a1media/agency-dashboard/internal/client"
	clientDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/client"
	leadDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/lead"
	"gorm.io/gorm"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) client.RepositoryAPI {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) List(ctx context.Context) ([]*clientDatamodel.Client, error) {
	var clients []*clientDatamodel.Client
	err := r.db.WithContext(ctx).Order("created_at DESC, id").Find(&clients).Error
	return clients, err
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (*clientDatamodel.Client, error) {
	var c clientDatamodel.Client
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrClientNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) Create(ctx context.Context, c *clientDatamodel.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ClientRepository) Update(ctx context.Context, c *clientDatamodel.Client) error {
	result := r.db.WithContext(ctx).Model(&clientDatamodel.Client{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"name":       c.Name,
			"email":      c.Email,
			"phone":      c.Phone,
			"whatsapp":   c.Whatsapp,
			"company":    c.Company,
			"instagram":  c.Instagram,
			"linkedin":   c.Linkedin,
			"twitter":    c.Twitter,
			"updated_at": c.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrClientNotFound
	}
	return nil
}

// Delete refuses to remove a client that leads still point at.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&leadDatamodel.Lead{}).Where("client_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return internal.ErrClientInUse
		}

		result := tx.Where("id = ?", id).Delete(&clientDatamodel.Client{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return internal.ErrClientNotFound
		}
		return nil
	})
}

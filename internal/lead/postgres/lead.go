package postgres

import (
	"context"
	"errors"

	"github.com/a1media/agency-dashboard/internal"
	leadDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/lead"
	"github.com/a1media/agency-dashboard/internal/lead"
	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) lead.Store {
	return &LeadRepository{db: db}
}

func hydrated(db *gorm.DB) *gorm.DB {
	return db.Preload("Client").
		Preload("Logs", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("seq ASC")
		})
}

func (r *LeadRepository) List(ctx context.Context) ([]*lead.Lead, error) {
	var rows []*leadDatamodel.Lead
	if err := hydrated(r.db.WithContext(ctx)).Order("created_at DESC, id").Find(&rows).Error; err != nil {
		return nil, err
	}

	leads := make([]*lead.Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, lead.FromDataModel(row))
	}
	return leads, nil
}

func (r *LeadRepository) Get(ctx context.Context, id string) (*lead.Lead, error) {
	return get(r.db.WithContext(ctx), id)
}

func get(db *gorm.DB, id string) (*lead.Lead, error) {
	var row leadDatamodel.Lead
	if err := hydrated(db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrLeadNotFound
		}
		return nil, err
	}
	return lead.FromDataModel(&row), nil
}

func (r *LeadRepository) Create(ctx context.Context, l *lead.Lead) (*lead.Lead, error) {
	row := lead.ToDataModel(l)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Client").Create(row).Error
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, l.ID)
}

// Update writes the changed columns and appends new log rows after the
// lead's current last sequence number, all in one transaction.
func (r *LeadRepository) Update(ctx context.Context, id string, changes lead.Changes) (*lead.Lead, error) {
	var out *lead.Lead
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&leadDatamodel.Lead{}).Where("id = ?", id).Updates(columns(changes))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return internal.ErrLeadNotFound
		}

		if len(changes.AppendLogs) > 0 {
			var last int
			if err := tx.Model(&leadDatamodel.LeadLog{}).
				Where("lead_id = ?", id).
				Select("COALESCE(MAX(seq), 0)").
				Scan(&last).Error; err != nil {
				return err
			}

			rows := make([]leadDatamodel.LeadLog, 0, len(changes.AppendLogs))
			for i, entry := range changes.AppendLogs {
				rows = append(rows, lead.LogToDataModel(id, last+i+1, entry))
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		var err error
		out, err = get(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func columns(c lead.Changes) map[string]interface{} {
	cols := map[string]interface{}{"updated_at": c.UpdatedAt}
	if c.Source != nil {
		cols["source"] = string(*c.Source)
	}
	if c.Stage != nil {
		cols["stage"] = string(*c.Stage)
	}
	if c.Budget != nil {
		cols["budget"] = *c.Budget
	}
	if c.Requirements != nil {
		cols["requirements"] = *c.Requirements
	}
	if c.Notes != nil {
		cols["notes"] = *c.Notes
	}
	if c.AssignedTo != nil {
		cols["assigned_to"] = *c.AssignedTo
	}
	if c.FollowUpDate != nil {
		cols["follow_up_date"] = *c.FollowUpDate
	}
	return cols
}

// Delete removes the lead and its log rows. Logs are deleted explicitly so
// the result does not depend on the database enforcing the cascade.
func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", id).Delete(&leadDatamodel.LeadLog{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&leadDatamodel.Lead{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return internal.ErrLeadNotFound
		}
		return nil
	})
}

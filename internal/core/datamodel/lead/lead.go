package lead

import (
	"time"

	clientDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/client"
)

type Lead struct {
	ID           string                  `gorm:"column:id;primaryKey;size:64"`
	ClientID     string                  `gorm:"column:client_id;size:64;index;not null"`
	Client       *clientDatamodel.Client `gorm:"foreignKey:ClientID;references:ID"`
	Source       string                  `gorm:"column:source;not null"`
	Stage        string                  `gorm:"column:stage;index;not null"`
	Budget       string                  `gorm:"column:budget"`
	Requirements string                  `gorm:"column:requirements"`
	Notes        string                  `gorm:"column:notes"`
	AssignedTo   string                  `gorm:"column:assigned_to"`
	FollowUpDate *time.Time              `gorm:"column:follow_up_date;index"`
	CreatedAt    time.Time               `gorm:"column:created_at"`
	UpdatedAt    time.Time               `gorm:"column:updated_at"`
	Logs         []LeadLog               `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`
}

func (Lead) TableName() string {
	return "leads"
}

// LeadLog rows are insert-only. Seq preserves append order within a lead.
type LeadLog struct {
	ID            string    `gorm:"column:id;primaryKey;size:64"`
	LeadID        string    `gorm:"column:lead_id;size:64;index;not null"`
	Seq           int       `gorm:"column:seq;not null"`
	Action        string    `gorm:"column:action;not null"`
	PreviousStage string    `gorm:"column:previous_stage"`
	NewStage      string    `gorm:"column:new_stage"`
	ActorID       string    `gorm:"column:actor_id"`
	ActorName     string    `gorm:"column:actor_name"`
	Timestamp     time.Time `gorm:"column:created_at"`
}

func (LeadLog) TableName() string {
	return "lead_logs"
}

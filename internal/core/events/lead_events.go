package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLeadCreated      = "lead.created"
	EventTypeLeadStageChanged = "lead.stage_changed"
	EventTypeLeadDeleted      = "lead.deleted"
	EventTypeFollowUpDue      = "lead.follow_up_due"
)

type LeadCreatedEvent struct {
	BaseEvent
	LeadID   string `json:"lead_id"`
	ClientID string `json:"client_id"`
	Source   string `json:"source"`
	Public   bool   `json:"public"`
}

func NewLeadCreatedEvent(leadID, clientID, source string, public bool) *LeadCreatedEvent {
	return &LeadCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLeadCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"lead_id":   leadID,
				"client_id": clientID,
				"source":    source,
				"public":    public,
			},
		},
		LeadID:   leadID,
		ClientID: clientID,
		Source:   source,
		Public:   public,
	}
}

type LeadStageChangedEvent struct {
	BaseEvent
	LeadID        string `json:"lead_id"`
	PreviousStage string `json:"previous_stage"`
	NewStage      string `json:"new_stage"`
	ActorID       string `json:"actor_id"`
}

func NewLeadStageChangedEvent(leadID, previousStage, newStage, actorID string) *LeadStageChangedEvent {
	return &LeadStageChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLeadStageChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"lead_id":        leadID,
				"previous_stage": previousStage,
				"new_stage":      newStage,
				"actor_id":       actorID,
			},
		},
		LeadID:        leadID,
		PreviousStage: previousStage,
		NewStage:      newStage,
		ActorID:       actorID,
	}
}

type LeadDeletedEvent struct {
	BaseEvent
	LeadID  string `json:"lead_id"`
	ActorID string `json:"actor_id"`
}

func NewLeadDeletedEvent(leadID, actorID string) *LeadDeletedEvent {
	return &LeadDeletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLeadDeleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"lead_id":  leadID,
				"actor_id": actorID,
			},
		},
		LeadID:  leadID,
		ActorID: actorID,
	}
}

type FollowUpDueEvent struct {
	BaseEvent
	LeadID       string    `json:"lead_id"`
	ClientName   string    `json:"client_name"`
	AssignedTo   string    `json:"assigned_to"`
	Stage        string    `json:"stage"`
	FollowUpDate time.Time `json:"follow_up_date"`
}

func NewFollowUpDueEvent(leadID, clientName, assignedTo, stage string, followUpDate time.Time) *FollowUpDueEvent {
	return &FollowUpDueEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeFollowUpDue,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"lead_id":        leadID,
				"client_name":    clientName,
				"assigned_to":    assignedTo,
				"stage":          stage,
				"follow_up_date": followUpDate,
			},
		},
		LeadID:       leadID,
		ClientName:   clientName,
		AssignedTo:   assignedTo,
		Stage:        stage,
		FollowUpDate: followUpDate,
	}
}
